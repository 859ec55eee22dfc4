//go:build darwin

package osver

import "testing"

func TestOsVersionAtLeast(t *testing.T) {
	t.Parallel()

	// disclaim requires 10.14+, and we don't support anything older anyway
	if !IsAtLeast("v10.14") {
		t.Fatal("expected macOS 10.14 or later")
	}
}
