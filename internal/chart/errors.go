package chart

import (
	"errors"
	"fmt"
)

// HostError carries the platform error code reported by the charting
// terminal for a failed host operation.
type HostError struct {
	Op      string
	Code    int
	Message string
}

func (e *HostError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: host error %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: host error %d", e.Op, e.Code)
}

// HostCode extracts the platform error code from an error chain. It returns
// zero when no HostError is present.
func HostCode(err error) int {
	var hostErr *HostError
	if errors.As(err, &hostErr) {
		return hostErr.Code
	}
	return 0
}
