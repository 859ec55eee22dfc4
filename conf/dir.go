package conf

import (
	"errors"
	"os"
	"sync"

	"github.com/spawnkit/spawnkit/conf/appid"
)

var (
	ensuredDirsMu sync.Mutex
	ensuredDirs   = make(map[string]struct{})
)

func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	return home
}

func AppDir() string {
	return ensureDir(HomeDir() + "/." + appid.AppName)
}

func ensureDir(dir string) string {
	_, err := EnsureDir(dir)
	if err != nil {
		panic(err)
	}
	return dir
}

func EnsureDir(dir string) (string, error) {
	ensuredDirsMu.Lock()
	defer ensuredDirsMu.Unlock()

	if _, ok := ensuredDirs[dir]; ok {
		return dir, nil
	}
	defer func() {
		ensuredDirs[dir] = struct{}{}
	}()

	// stat first
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		return dir, nil
	}

	err := os.MkdirAll(dir, 0755)
	if err != nil && !errors.Is(err, os.ErrExist) {
		return "", err
	}
	return dir, nil
}

// RunDir holds sockets and per-boot state. It's wiped on daemon start.
func RunDir() string {
	return ensureDir(AppDir() + "/run")
}

func LogDir() string {
	return ensureDir(AppDir() + "/log")
}

func SessionLogDir() string {
	return ensureDir(LogDir() + "/sessions")
}

func ControlSocket() string {
	return RunDir() + "/control.sock"
}

func DaemonLockFile() string {
	return AppDir() + "/" + appid.DaemonName + ".lock"
}

func DaemonVersionFile() string {
	return RunDir() + "/" + appid.DaemonName + ".version"
}

func DaemonLog() string {
	return LogDir() + "/" + appid.DaemonName + ".log"
}

func DaemonLog1() string {
	return LogDir() + "/" + appid.DaemonName + ".log.old"
}

func ConfigFile() string {
	env := os.Getenv("SPAWNKIT_CONFIG")
	if env != "" {
		return env
	}

	return AppDir() + "/config.json"
}

func ProfilesFile() string {
	env := os.Getenv("SPAWNKIT_PROFILES")
	if env != "" {
		return env
	}

	return AppDir() + "/profiles.yaml"
}

func SSHHostKeyFile() string {
	return AppDir() + "/ssh_host_ed25519_key"
}
