package app

// StopReason is used for structured shutdown tracing.
type StopReason string

const (
	StopUnknown    StopReason = "unknown"
	StopQuit       StopReason = "quit"
	StopSignal     StopReason = "signal"
	StopFatalError StopReason = "fatal_error"
)
