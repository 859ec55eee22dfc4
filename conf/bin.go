package conf

import (
	"os"
	"path/filepath"

	"github.com/spawnkit/spawnkit/conf/appid"
)

func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// FindDaemonExe returns the daemon binary, assumed to sit next to ours.
func FindDaemonExe() (string, error) {
	exeDir, err := ExecutableDir()
	if err != nil {
		return "", err
	}

	daemon := exeDir + "/" + appid.DaemonName
	if _, err := os.Stat(daemon); err == nil {
		return daemon, nil
	}

	// dev convenience: fall back to PATH
	return appid.DaemonName, nil
}
