package appid

const (
	Codename     = "spawnkit"
	AppName      = "spawnkit"
	UserAppName  = "SpawnKit"
	ShortAppName = "sk"

	ShortCmd = "sk"
	ShortCtl = "skctl"

	DaemonName = "spawnd"
)

const BundleID = "dev.spawnkit.SpawnKit"
