package ledger

import (
	"fmt"
	"slices"
	"sync"

	"portal-go/internal/portal"
)

// MemoryLedger keeps records in process memory. It is used by tests and by
// the "memory" ledger type.
type MemoryLedger struct {
	mu        sync.Mutex
	logs      map[portal.LogName][]portal.Record
	appendErr error
}

var _ portal.Ledger = (*MemoryLedger)(nil)

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{logs: make(map[portal.LogName][]portal.Record)}
}

// FailAppends makes every later Append return err wrapped in ErrIO.
// Passing nil restores normal behaviour.
func (l *MemoryLedger) FailAppends(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendErr = err
}

func (l *MemoryLedger) Append(log portal.LogName, rec portal.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return fmt.Errorf("appending to %s log: %w: %w", log, portal.ErrIO, l.appendErr)
	}
	l.logs[log] = append(l.logs[log], rec)
	return nil
}

func (l *MemoryLedger) ReadAll(log portal.LogName) ([]portal.Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.logs[log]), nil
}

func (l *MemoryLedger) Close() error { return nil }
