package app

import "time"

// Operation tracks one CLI invocation. Its ID doubles as the log operation
// ID, so every line a command logs can be tied back to it.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	Err        error
	StartedAt  time.Time
}

// NewOperation creates a new in-memory operation record.
func NewOperation(id, name, parameters string) *Operation {
	return &Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		StartedAt:  time.Now(),
	}
}

// Fail marks the operation as failed. The first error is kept.
func (op *Operation) Fail(err error) {
	op.Status = "error"
	if op.Err == nil {
		op.Err = err
	}
}

// Failed returns true if Fail has been called.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// Duration returns the time elapsed between the start and now, truncated to milliseconds.
func (op *Operation) Duration(now time.Time) time.Duration {
	return now.Sub(op.StartedAt).Truncate(time.Millisecond)
}
