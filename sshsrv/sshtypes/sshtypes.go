package sshtypes

const (
	// env var carrying launch metadata from our own clients
	KeyMeta = "__SPAWNKIT_CMETA"
)

type SessionMeta struct {
	Pwd        string
	Argv0      *string
	RawCommand bool
	PtyStdin   bool
	PtyStdout  bool
	PtyStderr  bool
	// nil = daemon config default
	Disclaim *bool
}
