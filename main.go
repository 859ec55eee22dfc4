package main

import (
	"os"

	_ "github.com/spawnkit/spawnkit/earlyinit"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "spawn-daemon":
		runSpawnDaemon()
	case "daemon", "":
		runDaemon()
	default:
		panic("unknown command: " + cmd)
	}
}
