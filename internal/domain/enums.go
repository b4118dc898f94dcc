package domain

type TimerStatus string

const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
)

// ValidTimerStatuses is the canonical set of accepted timer status strings.
var ValidTimerStatuses = map[TimerStatus]bool{
	TimerIdle: true, TimerRunning: true, TimerPaused: true,
}

type OverlapPolicy string

const (
	OverlapAllow  OverlapPolicy = "allow"
	OverlapWarn   OverlapPolicy = "warn"
	OverlapReject OverlapPolicy = "reject"
)
