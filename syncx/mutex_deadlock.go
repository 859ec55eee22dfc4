//go:build deadlock

package syncx

import (
	"github.com/sasha-s/go-deadlock"
)

// log potential deadlocks but keep running, so -tags deadlock stays usable
// for long interactive sessions
func init() {
	deadlock.Opts.OnPotentialDeadlock = func() {}
}

type Mutex = deadlock.Mutex
type RWMutex = deadlock.RWMutex
