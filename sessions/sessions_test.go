package sessions

import (
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func testRegistry(t *testing.T, history int) *Registry {
	t.Helper()

	reg, err := NewRegistry(history, func() bool { return false }, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestLaunchWait(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	info, err := reg.Launch(&LaunchRequest{
		Args: []string{"sh", "-c", "exit 7"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if info.Pid <= 0 {
		t.Errorf("bad pid %d", info.Pid)
	}

	final, err := reg.Wait(info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Running {
		t.Error("still running after wait")
	}
	if final.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", final.ExitCode)
	}

	// wait again: served from history
	again, err := reg.Wait(info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.ExitCode != 7 {
		t.Errorf("exit code = %d, want 7", again.ExitCode)
	}
}

func TestLaunchEmptyArgs(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	_, err := reg.Launch(&LaunchRequest{})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSignal(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	info, err := reg.Launch(&LaunchRequest{
		Args: []string{"sleep", "30"},
	})
	if err != nil {
		t.Fatal(err)
	}

	err = reg.Signal(info.ID, syscall.SIGTERM)
	if err != nil {
		t.Fatal(err)
	}

	final, err := reg.Wait(info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.ExitSignal != unix.SIGTERM.String() {
		t.Errorf("exit signal = %q, want %q", final.ExitSignal, unix.SIGTERM.String())
	}

	// gone from running
	err = reg.Signal(info.ID, syscall.SIGTERM)
	if err == nil {
		t.Error("expected error signaling exited session")
	}
}

func TestCaptureOutput(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	info, err := reg.Launch(&LaunchRequest{
		Args:          []string{"sh", "-c", "echo hello out; echo hello err >&2"},
		CaptureOutput: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if info.LogFile == "" {
		t.Fatal("no log file")
	}

	_, err = reg.Wait(info.ID)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(info.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello out") || !strings.Contains(string(data), "hello err") {
		t.Errorf("log missing output: %q", data)
	}
}

func TestEnvDir(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)
	dir := t.TempDir()

	info, err := reg.Launch(&LaunchRequest{
		Args:          []string{"sh", "-c", `printf '%s %s' "$SK_TEST_VAL" "$PWD"`},
		Dir:           dir,
		Env:           []string{"SK_TEST_VAL=abc123"},
		CaptureOutput: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = reg.Wait(info.ID)
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(info.LogFile)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if !strings.Contains(out, "abc123") {
		t.Errorf("env not passed: %q", out)
	}
	if !strings.Contains(out, dir) {
		t.Errorf("dir not applied: %q", out)
	}
}

func TestHistoryEviction(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 2)

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := reg.Launch(&LaunchRequest{
			Args: []string{"true"},
		})
		if err != nil {
			t.Fatal(err)
		}
		_, err = reg.Wait(info.ID)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, info.ID)
	}

	_, err := reg.Get(ids[0])
	if err == nil {
		t.Error("oldest session not evicted")
	}
	for _, id := range ids[1:] {
		if _, err := reg.Get(id); err != nil {
			t.Errorf("session %s missing: %v", id, err)
		}
	}

	if n := len(reg.List()); n != 2 {
		t.Errorf("list len = %d, want 2", n)
	}
}

func TestSetHistorySize(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	var ids []string
	for i := 0; i < 3; i++ {
		info, err := reg.Launch(&LaunchRequest{
			Args: []string{"true"},
		})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := reg.Wait(info.ID); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, info.ID)
	}

	// shrinking evicts oldest first
	reg.SetHistorySize(1)
	for _, id := range ids[:2] {
		if _, err := reg.Get(id); err == nil {
			t.Errorf("session %s not evicted after resize", id)
		}
	}
	if _, err := reg.Get(ids[2]); err != nil {
		t.Errorf("newest session missing: %v", err)
	}
}

func TestShutdown(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	info, err := reg.Launch(&LaunchRequest{
		Args: []string{"sleep", "30"},
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	reg.Shutdown(5 * time.Second)
	if time.Since(start) > 3*time.Second {
		t.Error("shutdown did not terminate promptly")
	}

	final, err := reg.Get(info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.Running {
		t.Error("session still running after shutdown")
	}
}

func TestShutdownKillsStragglers(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	// several sessions that all ignore SIGTERM, so every one of them has to
	// be escalated to SIGKILL
	var ids []string
	for i := 0; i < 3; i++ {
		info, err := reg.Launch(&LaunchRequest{
			Args: []string{"sh", "-c", `trap "" TERM; sleep 60`},
		})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, info.ID)
	}

	start := time.Now()
	reg.Shutdown(500 * time.Millisecond)
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("shutdown took %v, want under grace plus slack", elapsed)
	}

	for _, id := range ids {
		final, err := reg.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if final.Running {
			t.Errorf("session %s still running after shutdown", id)
		}
	}
}

func TestParseSignal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want os.Signal
	}{
		{"TERM", unix.SIGTERM},
		{"SIGTERM", unix.SIGTERM},
		{"kill", unix.SIGKILL},
		{"9", unix.Signal(9)},
	}
	for _, c := range cases {
		got, err := ParseSignal(c.in)
		if err != nil {
			t.Errorf("ParseSignal(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseSignal(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"NOPE", "-1", ""} {
		if _, err := ParseSignal(bad); err == nil {
			t.Errorf("ParseSignal(%q): expected error", bad)
		}
	}
}

func TestIDPrefix(t *testing.T) {
	t.Parallel()
	reg := testRegistry(t, 4)

	info, err := reg.Launch(&LaunchRequest{
		Args: []string{"sh", "-c", "exit 0"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Wait(info.ID); err != nil {
		t.Fatal(err)
	}

	got, err := reg.Get(info.ID[:8])
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != info.ID {
		t.Errorf("resolved %s, want %s", got.ID, info.ID)
	}

	if _, err := reg.Get(""); err == nil {
		t.Error("empty id: expected error")
	}
	if _, err := reg.Get("zzzzzzzz"); err == nil {
		t.Error("unknown prefix: expected error")
	}
}
