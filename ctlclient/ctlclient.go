package ctlclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/spawnkit/spawnkit/conf"
	"github.com/spawnkit/spawnkit/ctlclient/ctltypes"
	"github.com/spawnkit/spawnkit/flock"
	"github.com/spawnkit/spawnkit/launchcfg"
	"github.com/spawnkit/spawnkit/profiles"
	"github.com/spawnkit/spawnkit/sessions"
	"github.com/spawnkit/spawnkit/util/errorx"
	"golang.org/x/sys/unix"
)

const (
	forceStopTimeout    = 15 * time.Second
	gracefulStopTimeout = 25 * time.Second
)

var (
	noResult interface{}
)

type CtlClient struct {
	rpc *jrpc2.Client
}

var Client = sync.OnceValue(func() *CtlClient {
	err := EnsureDaemon()
	errorx.CheckCLI(err)

	client, err := NewClient()
	errorx.CheckCLI(err)

	return client
})

func NewClient() (*CtlClient, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns: 2,
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", conf.ControlSocket())
			},
		},
	}

	ch := jhttp.NewChannel("http://skrpc", &jhttp.ChannelOptions{
		Client: httpClient,
	})
	rpcClient := jrpc2.NewClient(ch, nil)
	return &CtlClient{
		rpc: rpcClient,
	}, nil
}

func (c *CtlClient) Close() error {
	return c.rpc.Close()
}

func (c *CtlClient) Ping() error {
	return c.rpc.CallResult(context.TODO(), "Ping", nil, &noResult)
}

func (c *CtlClient) Info() (*ctltypes.DaemonInfo, error) {
	var info ctltypes.DaemonInfo
	err := c.rpc.CallResult(context.TODO(), "Info", nil, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

// isDisconnect reports whether err is the channel dropping mid-call, which
// is expected when the daemon stops.
func isDisconnect(err error) bool {
	return err.Error() == `[-32603] Post "http://skrpc": EOF`
}

func (c *CtlClient) Stop() error {
	// the daemon has its own deadline to escalate to a force stop
	ctx, cancel := context.WithTimeout(context.Background(), gracefulStopTimeout)
	defer cancel()

	err := c.rpc.CallResult(ctx, "Stop", nil, &noResult)
	if err != nil && !isDisconnect(err) {
		return err
	}

	return nil
}

func (c *CtlClient) ForceStop() error {
	ctx, cancel := context.WithTimeout(context.Background(), forceStopTimeout)
	defer cancel()

	err := c.rpc.CallResult(ctx, "ForceStop", nil, &noResult)
	if err != nil && !isDisconnect(err) {
		return err
	}

	return nil
}

func (c *CtlClient) SyntheticStopOrKill() error {
	err := c.Stop()
	if err != nil {
		return SyntheticKill()
	}

	return nil
}

// SyntheticKill kills the daemon by pid from the lock file, bypassing RPC.
func SyntheticKill() error {
	pid, err := flock.ReadPid(conf.DaemonLockFile())
	if err != nil {
		return err
	}

	// safeguard: never kill pid -1 (if lock type is wrong)
	if pid == -1 {
		return fmt.Errorf("invalid pid -1")
	}

	if pid == 0 {
		// nothing to kill
		return nil
	}

	return unix.Kill(pid, unix.SIGKILL)
}

func (c *CtlClient) Launch(req *sessions.LaunchRequest) (*sessions.Info, error) {
	var info sessions.Info
	err := c.rpc.CallResult(context.TODO(), "Launch", req, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *CtlClient) Wait(id string) (*sessions.Info, error) {
	var info sessions.Info
	err := c.rpc.CallResult(context.TODO(), "Wait", &ctltypes.SessionRequest{ID: id}, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *CtlClient) Signal(id string, signal string) error {
	return c.rpc.CallResult(context.TODO(), "Signal", &ctltypes.SignalRequest{
		ID:     id,
		Signal: signal,
	}, &noResult)
}

func (c *CtlClient) ListSessions() ([]sessions.Info, error) {
	var infos []sessions.Info
	err := c.rpc.CallResult(context.TODO(), "ListSessions", nil, &infos)
	if err != nil {
		return nil, err
	}

	return infos, nil
}

func (c *CtlClient) GetSession(id string) (*sessions.Info, error) {
	var info sessions.Info
	err := c.rpc.CallResult(context.TODO(), "GetSession", &ctltypes.SessionRequest{ID: id}, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}

func (c *CtlClient) GetConfig() (*launchcfg.Config, error) {
	var config launchcfg.Config
	err := c.rpc.CallResult(context.TODO(), "GetConfig", nil, &config)
	if err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *CtlClient) SetConfig(patch *launchcfg.Config) error {
	return c.rpc.CallResult(context.TODO(), "SetConfig", patch, &noResult)
}

func (c *CtlClient) ResetConfig() error {
	return c.rpc.CallResult(context.TODO(), "ResetConfig", nil, &noResult)
}

func (c *CtlClient) ListProfiles() (map[string]profiles.Profile, error) {
	var out map[string]profiles.Profile
	err := c.rpc.CallResult(context.TODO(), "ListProfiles", nil, &out)
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (c *CtlClient) LaunchProfile(name string, extraArgs []string) (*sessions.Info, error) {
	var info sessions.Info
	err := c.rpc.CallResult(context.TODO(), "LaunchProfile", &ctltypes.LaunchProfileRequest{
		Name:      name,
		ExtraArgs: extraArgs,
	}, &info)
	if err != nil {
		return nil, err
	}

	return &info, nil
}
