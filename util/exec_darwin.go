//go:build darwin

package util

import "github.com/spawnkit/spawnkit/util/pspawn"

// RunDisclaimTCC runs a command with TCC responsibility disclaimed, so any
// permission prompt it triggers is attributed to the command itself.
func RunDisclaimTCC(combinedArgs ...string) (string, error) {
	cmd := makeRunCmd(combinedArgs...)
	cmd.PspawnAttr = &pspawn.PspawnAttr{
		DisclaimTCCResponsibility: true,
	}

	return finishRun(cmd, combinedArgs)
}
