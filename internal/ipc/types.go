package ipc

// StatusRequest asks for daemon runtime information.
type StatusRequest struct{}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running       bool   `json:"running"`
	PID           int    `json:"pid"`
	Symbol        string `json:"symbol"`
	HistoryDBPath string `json:"history_db_path"`
	LockPath      string `json:"lock_path"`

	Total     int `json:"total"`
	CyclesRun int `json:"cycles_running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`

	LastCycle *CycleRecord `json:"last_cycle,omitempty"`
}

// CaptureRequest queues a capture cycle.
type CaptureRequest struct{}

// CaptureResponse acknowledges a queued capture cycle.
type CaptureResponse struct {
	Queued  bool   `json:"queued"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop processing.
type StopRequest struct{}

// StopResponse acknowledges a stop.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// CycleRecord is the wire form of one history record.
type CycleRecord struct {
	ID           int64  `json:"id"`
	CycleID      string `json:"cycle_id"`
	Symbol       string `json:"symbol"`
	Status       string `json:"status"`
	SuccessCount int    `json:"success_count"`
	Attempted    int    `json:"attempted"`
	ResultsJSON  string `json:"results_json,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// HistoryListRequest asks for recent cycle records.
type HistoryListRequest struct {
	Limit int `json:"limit"`
}

// HistoryListResponse carries recent cycle records, newest first.
type HistoryListResponse struct {
	Cycles []CycleRecord `json:"cycles"`
}

// HistoryClearRequest removes cycle records.
type HistoryClearRequest struct {
	// CompletedOnly restricts removal to completed records.
	CompletedOnly bool `json:"completed_only"`
}

// HistoryClearResponse reports how many records were removed.
type HistoryClearResponse struct {
	Removed int64 `json:"removed"`
}

// LogTailRequest reads daemon log lines from a cursor. A negative cursor
// requests the last Limit lines.
type LogTailRequest struct {
	Cursor     int64 `json:"cursor"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse carries log lines and the cursor for the next request.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Cursor int64    `json:"cursor"`
}
