package sessions

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// ParseSignal accepts "TERM", "SIGTERM", or a raw number.
func ParseSignal(name string) (os.Signal, error) {
	if num, err := strconv.Atoi(name); err == nil {
		if num <= 0 {
			return nil, fmt.Errorf("invalid signal number: %d", num)
		}
		return unix.Signal(num), nil
	}

	upper := strings.ToUpper(name)
	if !strings.HasPrefix(upper, "SIG") {
		upper = "SIG" + upper
	}
	sig := unix.SignalNum(upper)
	if sig == 0 {
		return nil, fmt.Errorf("unknown signal: %s", name)
	}
	return sig, nil
}
