package portal

import (
	"fmt"
	"time"
)

// LogName identifies one append-only event log.
type LogName string

const (
	LogUpload     LogName = "upload"
	LogDecline    LogName = "decline"
	LogActivity   LogName = "activity"
	LogSession    LogName = "session"
	LogSuggestion LogName = "suggestion"
)

// AllLogs lists every log kind in a stable order.
func AllLogs() []LogName {
	return []LogName{LogUpload, LogDecline, LogActivity, LogSession, LogSuggestion}
}

// ParseLogName validates a log name supplied by a caller.
func ParseLogName(s string) (LogName, error) {
	for _, l := range AllLogs() {
		if string(l) == s {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown log %q: %w", s, ErrNotFound)
}

// Actions recorded in the ledger.
const (
	ActionUpload         = "UPLOAD"
	ActionDecline        = "DECLINE"
	ActionCreateFolder   = "CREATE_FOLDER"
	ActionDelete         = "DELETE"
	ActionPublish        = "PUBLISH"
	ActionDownloadFile   = "FILE"
	ActionDownloadFolder = "FOLDER"
	ActionLogin          = "LOGIN"
	ActionLogout         = "LOGOUT"
	ActionSuggestion     = "SUGGESTION"
)

// RecordTimeFormat is how record timestamps are persisted.
const RecordTimeFormat = time.RFC3339

// RecordHeader is the column layout shared by the CSV ledger and exports.
var RecordHeader = []string{"timestamp", "identity", "action", "subject", "extra"}

// Record is one immutable ledger entry.
//
// For upload records Subject is the uploaded relative path and Extra the
// suggested destination. For decline records Identity is the uploader and
// Extra the deciding admin.
type Record struct {
	Time     time.Time
	Identity string
	Action   string
	Subject  string
	Extra    string
}

// Fields returns the record in RecordHeader column order.
func (r Record) Fields() []string {
	return []string{r.Time.UTC().Format(RecordTimeFormat), r.Identity, r.Action, r.Subject, r.Extra}
}

// ParseRecord is the inverse of Fields. Missing trailing columns are empty.
func ParseRecord(fields []string) (Record, error) {
	if len(fields) == 0 {
		return Record{}, fmt.Errorf("empty record")
	}
	ts, err := time.Parse(RecordTimeFormat, fields[0])
	if err != nil {
		return Record{}, fmt.Errorf("parsing record timestamp %q: %w", fields[0], err)
	}
	col := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return Record{
		Time:     ts,
		Identity: col(1),
		Action:   col(2),
		Subject:  col(3),
		Extra:    col(4),
	}, nil
}

// Ledger is the append-only event store. Append is the only write and
// ReadAll the only read; there is no update or delete.
type Ledger interface {
	// Append persists one record atomically. Failures wrap ErrIO.
	Append(log LogName, rec Record) error

	// ReadAll returns every record of a log in append order.
	// A log that has never been written is empty, not an error.
	ReadAll(log LogName) ([]Record, error)

	// Close releases any held resources.
	Close() error
}
