package earlyinit

import (
	"runtime"

	"github.com/spawnkit/spawnkit/conf"
)

func init() {
	if !conf.Debug() {
		runtime.MemProfileRate = 0
	}
}
