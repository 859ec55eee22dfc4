package buildid

import (
	"os"
	"strconv"
)

// install tools can shift mtime by a few ns when copying the bundle,
// so round to a coarse bucket
const mtimeGranularity = 5 // sec

// CalculateCurrent returns a cheap identity for the running executable,
// used to decide whether an already-running daemon is the same build.
func CalculateCurrent() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", err
	}
	return CalculatePath(exePath)
}

func CalculatePath(path string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	// mtime is faster than hashing the binary
	id := st.ModTime().Unix() / mtimeGranularity * mtimeGranularity
	return strconv.FormatInt(id, 10), nil
}
