package pspawn

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func TestCombinedOutput(t *testing.T) {
	t.Parallel()

	out, err := Command("sh", "-c", "echo out; echo err >&2").CombinedOutput()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "out\nerr\n" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestOutputStderrOnExitError(t *testing.T) {
	t.Parallel()

	_, err := Command("sh", "-c", "echo bad >&2; exit 3").Output()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.ExitCode() != 3 {
		t.Fatalf("expected exit code 3, got %d", exitErr.ExitCode())
	}
	if !strings.Contains(string(exitErr.Stderr), "bad") {
		t.Fatalf("expected captured stderr, got %q", exitErr.Stderr)
	}
}

func TestDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cmd := Command("pwd")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		t.Fatal(err)
	}
	// macOS TempDir goes through /private symlinks, so compare by stat
	got := strings.TrimSpace(string(out))
	want, err := os.Stat(dir)
	if err != nil {
		t.Fatal(err)
	}
	st, err := os.Stat(got)
	if err != nil {
		t.Fatal(err)
	}
	if !os.SameFile(want, st) {
		t.Fatalf("pwd %q is not %q", got, dir)
	}
}

func TestEnv(t *testing.T) {
	t.Parallel()

	cmd := Command("sh", "-c", "echo $PSPAWN_TEST_VAR")
	cmd.Env = append(os.Environ(), "PSPAWN_TEST_VAR=hello")
	out, err := cmd.Output()
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(out)) != "hello" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestStdinPipeCopy(t *testing.T) {
	t.Parallel()

	cmd := Command("cat")
	cmd.Stdin = bytes.NewReader([]byte("roundtrip"))
	out, err := cmd.Output()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "roundtrip" {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestContextKill(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := CommandContext(ctx, "sleep", "30").Run()
	if err == nil {
		t.Fatal("expected error from killed process")
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("context cancellation did not kill the process")
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	err := Command("definitely-not-a-real-binary-xyz").Run()
	if err == nil {
		t.Fatal("expected error")
	}
}
