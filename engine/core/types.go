package core

// -----------------------------------------------------------------------------
// Execution Status
// -----------------------------------------------------------------------------

type StatusType string

const (
	StatusPending StatusType = "PENDING"
	StatusRunning StatusType = "RUNNING"
	StatusSuccess StatusType = "SUCCESS"
	StatusFailed  StatusType = "FAILED"
)

func (s StatusType) String() string {
	return string(s)
}

func (s StatusType) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailed
}
