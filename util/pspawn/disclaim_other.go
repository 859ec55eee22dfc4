//go:build !darwin

package pspawn

// PspawnAttr is accepted but ignored outside macOS: there is no
// responsible-process tracking to disclaim.
type PspawnAttr struct {
	DisclaimTCCResponsibility bool
}

func DisclaimSupported() bool {
	return false
}
