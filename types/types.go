package types

type StopType int

const (
	StopTypeForce StopType = iota
	StopTypeGraceful
)

type StopReason int

const (
	// 100 + <unexpected stop reason, starting from 1>
	stopExitCodeBase = 100

	// normal reasons
	StopReasonSignal StopReason = 0
	StopReasonAPI    StopReason = 1
	StopReasonUpdate StopReason = 2

	Start_UnexpectedStopReasons StopReason = 3

	// unexpected reasons
	StopReasonHealthCheck StopReason = 4
	StopReasonIOError     StopReason = 5
)

func (r StopReason) ExitCode() int {
	if r > Start_UnexpectedStopReasons {
		return stopExitCodeBase + int(r-Start_UnexpectedStopReasons)
	} else {
		return -1
	}
}

type StopRequest struct {
	Type   StopType
	Reason StopReason
}
