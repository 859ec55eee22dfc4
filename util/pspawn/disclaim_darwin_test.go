//go:build darwin

package pspawn

import (
	"os"
	"syscall"
	"testing"
)

var sysProcAttrSetsid = syscall.SysProcAttr{Setsid: true}

// the private API must return its status verbatim: 0 for both flag values
// on any supported macOS
func TestDisclaimStatusPassthrough(t *testing.T) {
	t.Parallel()

	for _, disclaim := range []bool{true, false} {
		status, err := probeDisclaim(disclaim)
		if err != nil {
			t.Fatal(err)
		}
		if status != 0 {
			t.Fatalf("setdisclaim(%v) = %d, want 0", disclaim, status)
		}
	}
}

func TestDisclaimSupported(t *testing.T) {
	t.Parallel()

	if !DisclaimSupported() {
		t.Fatal("disclaim not supported; requires macOS 10.14+")
	}
}

// a disclaiming attr set must still spawn: the attr stays usable after
// setdisclaim, and the status doesn't poison the spawn itself
func TestStartProcessDisclaim(t *testing.T) {
	t.Parallel()

	for _, disclaim := range []bool{true, false} {
		proc, err := StartProcess("/usr/bin/true", []string{"true"}, &os.ProcAttr{}, &PspawnAttr{
			DisclaimTCCResponsibility: disclaim,
		})
		if err != nil {
			t.Fatalf("disclaim=%v: %v", disclaim, err)
		}

		state, err := proc.Wait()
		if err != nil {
			t.Fatal(err)
		}
		if !state.Success() {
			t.Fatalf("disclaim=%v: child failed: %v", disclaim, state)
		}
	}
}

func TestStartProcessSetsid(t *testing.T) {
	t.Parallel()

	proc, err := StartProcess("/usr/bin/true", []string{"true"}, &os.ProcAttr{
		Sys: &sysProcAttrSetsid,
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	state, err := proc.Wait()
	if err != nil {
		t.Fatal(err)
	}
	if !state.Success() {
		t.Fatalf("child failed: %v", state)
	}
}
