package conf

import (
	"os"
	"sync"
)

var Debug = sync.OnceValue(func() bool {
	return os.Getenv("SPAWNKIT_DEBUG") == "1"
})
