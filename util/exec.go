package util

import (
	"fmt"
	"os"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spawnkit/spawnkit/util/pspawn"
)

func makeRunCmd(combinedArgs ...string) *pspawn.Cmd {
	logrus.Tracef("run: %v", combinedArgs)
	cmd := pspawn.Command(combinedArgs[0], combinedArgs[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		// without this, running interactive shell breaks ctrl-c SIGINT
		Setsid: true,
	}
	// inherit env
	cmd.Env = os.Environ()
	// avoid triggering iterm2 shell integration
	cmd.Env = append(cmd.Env, "TERM=dumb")

	return cmd
}

func finishRun(cmd *pspawn.Cmd, combinedArgs []string) (string, error) {
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("run command '%v': %w; output: %s", combinedArgs, err, string(output))
	}

	return string(output), nil
}

func Run(combinedArgs ...string) (string, error) {
	cmd := makeRunCmd(combinedArgs...)
	return finishRun(cmd, combinedArgs)
}

func RunWithEnv(extraEnv []string, combinedArgs ...string) (string, error) {
	cmd := makeRunCmd(combinedArgs...)
	cmd.Env = append(cmd.Env, extraEnv...)
	return finishRun(cmd, combinedArgs)
}
