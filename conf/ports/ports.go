package ports

const (
	// local SSH launch surface (loopback only)
	DefaultHostSSH = 32777

	// pprof in debug mode
	DebugPprof = 6061
)
