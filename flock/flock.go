//go:build unix

package flock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func Open(path string) (*os.File, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	return file, nil
}

func Lock(file *os.File) error {
	flock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	// must use fcntl locks (not flock) so ReadPid can get l_pid
	return unix.FcntlFlock(file.Fd(), unix.F_SETLK, &flock)
}

// WaitLock blocks until the lock can be taken. Used for daemon handoff,
// where the old instance holds the lock until it fully exits.
func WaitLock(file *os.File) error {
	flock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	return unix.FcntlFlock(file.Fd(), unix.F_SETLKW, &flock)
}

func Unlock(file *os.File) error {
	flock := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	return unix.FcntlFlock(file.Fd(), unix.F_SETLK, &flock)
}

// ReadPid returns the pid of the lock holder, or 0 if unlocked. More
// atomic than a pid file: the kernel clears the lock when the holder dies.
func ReadPid(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}

		return 0, err
	}
	defer file.Close()

	flock := unix.Flock_t{
		Type:   unix.F_WRLCK,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	err = unix.FcntlFlock(file.Fd(), unix.F_GETLK, &flock)
	if err != nil {
		return 0, err
	}

	if flock.Type == unix.F_UNLCK {
		return 0, nil
	}
	return int(flock.Pid), nil
}
