//go:build darwin

package pspawn

/*
#include <spawn.h>

// Private API, stable since 10.14: makes the spawned process the
// "responsible process" for its own TCC operations instead of inheriting
// ours, so permission prompts show the child app's identity. Not in public
// headers; Qt, LLVM and Chromium link the same symbol. Resolved against
// libsystem at link time, so a missing symbol fails the build, not runtime.
extern int responsibility_spawnattrs_setdisclaim(posix_spawnattr_t *attr, int disclaim);

static int pspawn_attr_setdisclaim(posix_spawnattr_t *attr, int disclaim) {
	return responsibility_spawnattrs_setdisclaim(attr, disclaim);
}
*/
import "C"
import "syscall"

// OS-ABI value set by responsibility_spawnattrs_setdisclaim on the attr
// flags. Not public; kept here for reference only.
const _POSIX_SPAWN_SETDISCLAIM = 1

// setDisclaim forwards to the private API and returns its status verbatim.
// attr stays caller-owned: it must be initialized, and we never destroy it.
func setDisclaim(attr *C.posix_spawnattr_t, disclaim bool) C.int {
	d := C.int(0)
	if disclaim {
		d = C.int(1)
	}
	return C.pspawn_attr_setdisclaim(attr, d)
}

// probeDisclaim runs setDisclaim against a throwaway attr set and returns
// the raw status.
func probeDisclaim(disclaim bool) (int, error) {
	var attr C.posix_spawnattr_t
	ret := C.posix_spawnattr_init(&attr)
	if ret != 0 {
		return 0, syscall.Errno(ret)
	}
	defer C.posix_spawnattr_destroy(&attr)

	return int(setDisclaim(&attr, disclaim)), nil
}

// DisclaimSupported reports whether TCC responsibility disclaiming works on
// this OS version.
func DisclaimSupported() bool {
	status, err := probeDisclaim(true)
	return err == nil && status == 0
}
