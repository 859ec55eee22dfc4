package ctltypes

type SessionRequest struct {
	ID string `json:"id"`
}

type SignalRequest struct {
	ID     string `json:"id"`
	Signal string `json:"signal"`
}

type LaunchProfileRequest struct {
	Name string `json:"name"`
	// appended to the profile's args
	ExtraArgs []string `json:"extra_args,omitempty"`
}

type DaemonInfo struct {
	Version   string `json:"version"`
	BuildID   string `json:"build_id"`
	Pid       int    `json:"pid"`
	OSVersion string `json:"os_version"`
	// whether spawned children can disclaim TCC responsibility on this host
	DisclaimSupported bool `json:"disclaim_supported"`
}
