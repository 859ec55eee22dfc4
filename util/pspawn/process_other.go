//go:build !darwin

package pspawn

import "os"

func StartProcess(exe string, argv []string, attr *os.ProcAttr, pattr *PspawnAttr) (*os.Process, error) {
	// pattr has no meaning here
	return os.StartProcess(exe, argv, attr)
}
