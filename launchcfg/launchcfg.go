package launchcfg

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/conf"
	"github.com/spawnkit/spawnkit/conf/ports"
	"github.com/spawnkit/spawnkit/syncx"
	"github.com/spawnkit/spawnkit/util"
)

const (
	minHistorySize = 1
	maxHistorySize = 4096
)

var (
	globalConfig   *Config
	globalConfigMu sync.Mutex

	diffBroadcaster = syncx.NewBroadcaster[Change]()
)

type Config struct {
	// disclaim TCC responsibility for daemon-launched sessions unless the
	// request says otherwise
	DisclaimByDefault bool `json:"disclaim_by_default"`
	// local SSH launch surface
	SSHServer bool `json:"ssh_server"`
	SSHPort   int  `json:"ssh_port"`
	// exited sessions kept for inspection
	HistorySize int `json:"history_size"`
}

type Change struct {
	Old *Config `json:"old"`
	New *Config `json:"new"`
}

func (c *Config) Validate() error {
	if c.SSHPort < 1 || c.SSHPort > 65535 {
		return fmt.Errorf("invalid ssh port %d", c.SSHPort)
	}

	// clamp history
	if c.HistorySize < minHistorySize {
		c.HistorySize = minHistorySize
	}
	if c.HistorySize > maxHistorySize {
		c.HistorySize = maxHistorySize
	}

	return nil
}

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func Get() *Config {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	if globalConfig != nil {
		return globalConfig
	}

	data, err := os.ReadFile(conf.ConfigFile())
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults()
		}
		panic(err)
	}

	config := Defaults()
	err = json.Unmarshal(data, &config)
	check(err)

	err = config.Validate()
	if err != nil {
		logrus.WithError(err).Fatal("Invalid config")
	}

	globalConfig = config
	return globalConfig
}

func Update(cb func(*Config)) error {
	oldConfig := Get()

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	// make a copy for mutating
	newConfig := *oldConfig
	cb(&newConfig)

	err := newConfig.Validate()
	if err != nil {
		return err
	}

	// save only the diff vs defaults, so defaults can change later without
	// being pinned by old config files
	diffDefault, err := diffJsonMaps(Defaults(), &newConfig)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(diffDefault, "", "\t")
	if err != nil {
		return err
	}

	err = util.WriteFileAtomic(conf.ConfigFile(), data, 0644)
	if err != nil {
		return err
	}

	// broadcast the change from old, if anything changed
	if newConfig != *oldConfig {
		diffBroadcaster.EmitQueued(Change{
			Old: oldConfig,
			New: &newConfig,
		})
	}

	globalConfig = &newConfig
	return nil
}

func diffJsonMaps(a, b any) (map[string]any, error) {
	aJson, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}

	bJson, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}

	var aMap, bMap map[string]any
	err = json.Unmarshal(aJson, &aMap)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(bJson, &bMap)
	if err != nil {
		return nil, err
	}

	diff := make(map[string]any)
	for k, v := range bMap {
		if aMap[k] != v {
			diff[k] = v
		}
	}

	return diff, nil
}

func Defaults() *Config {
	return &Config{
		DisclaimByDefault: true,
		SSHServer:         false,
		SSHPort:           ports.DefaultHostSSH,
		HistorySize:       256,
	}
}

func Reset() error {
	return Update(func(c *Config) {
		*c = *Defaults()
	})
}

func SubscribeDiff() chan Change {
	return diffBroadcaster.Subscribe()
}

func UnsubscribeDiff(ch chan Change) {
	diffBroadcaster.Unsubscribe(ch)
}
