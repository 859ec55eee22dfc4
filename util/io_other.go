//go:build !darwin

package util

func SetBackupExclude(path string, exclude bool) error {
	return nil
}
