package history

import "time"

// Status describes a cycle record's lifecycle state.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Cycle is one persisted capture-cycle record.
type Cycle struct {
	ID           int64
	CycleID      string
	Symbol       string
	Status       Status
	SuccessCount int
	Attempted    int
	ResultsJSON  string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HealthSummary aggregates record counts for diagnostic output.
type HealthSummary struct {
	Total     int
	Running   int
	Completed int
	Failed    int
}
