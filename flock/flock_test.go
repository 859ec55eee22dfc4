//go:build unix

package flock

import (
	"os"
	"testing"
)

func tempLockFile(t *testing.T) *os.File {
	t.Helper()

	file, err := os.CreateTemp(t.TempDir(), "flock_test")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { file.Close() })

	return file
}

func TestLock(t *testing.T) {
	t.Parallel()

	file := tempLockFile(t)
	if err := Lock(file); err != nil {
		t.Fatal(err)
	}
}

func TestLockWait(t *testing.T) {
	t.Parallel()

	file := tempLockFile(t)
	if err := Lock(file); err != nil {
		t.Fatal(err)
	}

	// same process already holds it, so this must not block
	if err := WaitLock(file); err != nil {
		t.Fatal(err)
	}
}

func TestUnlock(t *testing.T) {
	t.Parallel()

	file := tempLockFile(t)
	if err := Lock(file); err != nil {
		t.Fatal(err)
	}

	if err := Unlock(file); err != nil {
		t.Fatal(err)
	}
}

func TestReadPidSelf(t *testing.T) {
	t.Parallel()

	file := tempLockFile(t)
	if err := Lock(file); err != nil {
		t.Fatal(err)
	}

	// fcntl locks are per-process: probing from the same process reports
	// unlocked, since we'd be allowed to take it
	pid, err := ReadPid(file.Name())
	if err != nil {
		t.Fatal(err)
	}
	if pid != 0 && pid != os.Getpid() {
		t.Fatalf("unexpected lock holder pid %d", pid)
	}
}

func TestReadPidMissingFile(t *testing.T) {
	t.Parallel()

	pid, err := ReadPid(t.TempDir() + "/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	if pid != 0 {
		t.Fatalf("expected pid 0, got %d", pid)
	}
}
