package ctlclient

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spawnkit/spawnkit/conf"
	"github.com/spawnkit/spawnkit/util"
	"golang.org/x/sys/unix"
)

const (
	startPollInterval = 100 * time.Millisecond
	startTimeout      = 15 * time.Second
)

func IsRunning() bool {
	// try dialing
	conn, err := net.Dial("unix", conf.ControlSocket())
	if err != nil {
		return false
	}
	defer conn.Close()

	return true
}

func isProcessRunning(pid int) bool {
	// try sending signal 0 to the process
	err := unix.Kill(pid, 0)
	return err == nil
}

func SpawnDaemon(newBuildID string) (int, error) {
	daemonExe, err := conf.FindDaemonExe()
	if err != nil {
		return 0, fmt.Errorf("find daemon exe: %w", err)
	}

	// exec the daemon with spawn-daemon; it re-execs itself detached and
	// prints the new pid
	args := []string{daemonExe, "spawn-daemon"}
	if newBuildID != "" {
		args = append(args, newBuildID)
	}
	out, err := util.Run(args...)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, fmt.Errorf("parse pid: %w", err)
	}

	return pid, nil
}

func readDaemonLogs() (string, error) {
	logs, err := os.ReadFile(conf.DaemonLog())
	if err != nil {
		return "", fmt.Errorf("read daemon logs: %w", err)
	}

	return string(logs), nil
}

func EnsureDaemon() error {
	if !IsRunning() {
		pid, err := SpawnDaemon("")
		if err != nil {
			return fmt.Errorf("spawn daemon: %w", err)
		}

		// wait for the control socket to come up
		before := time.Now()
		for !IsRunning() {
			if !isProcessRunning(pid) {
				// process exited. let's read logs
				logs, err := readDaemonLogs()
				if err != nil {
					return fmt.Errorf("daemon exited unexpectedly; failed to read logs: %w", err)
				}

				return fmt.Errorf("daemon exited unexpectedly; logs:\n%s", logs)
			}
			if time.Since(before) > startTimeout {
				return errors.New("timed out waiting for daemon to start")
			}

			time.Sleep(startPollInterval)
		}
	}

	return nil
}
