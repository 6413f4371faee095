package portal

import (
	"errors"
	"fmt"
)

// Sentinel errors. Components wrap these with context using fmt.Errorf("...: %w")
// so callers can classify failures with errors.Is.
var (
	// ErrForbidden marks a path escape, a self-modification, a disallowed
	// bucket transition or an actor without the required role.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound marks a missing target, identity or staged item.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a destination or identity that already exists.
	ErrConflict = errors.New("already exists")

	// ErrIO marks a filesystem or persistence failure.
	ErrIO = errors.New("storage failure")

	// ErrInvalid marks malformed caller input such as an empty or
	// multi-segment folder name.
	ErrInvalid = errors.New("invalid input")

	// ErrIntegrity marks persisted state that violates an invariant, such as
	// an identity present in more than one bucket.
	ErrIntegrity = errors.New("integrity violation")
)

// RejectReason says why an upload was refused.
type RejectReason string

const (
	RejectUnsupportedType    RejectReason = "unsupported-type"
	RejectTooLarge           RejectReason = "too-large"
	RejectMaliciousSignature RejectReason = "malicious-signature"
	RejectUnsafeFilename     RejectReason = "unsafe-filename"
)

// RejectedError is returned per file by upload validation. It is not fatal to
// a batch; the remaining files are still processed.
type RejectedError struct {
	Filename string
	Reason   RejectReason
	Detail   string
}

func (e *RejectedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s rejected: %s", e.Filename, e.Reason)
	}
	return fmt.Sprintf("%s rejected: %s (%s)", e.Filename, e.Reason, e.Detail)
}

// Message maps an error to a short message fit for showing to the person who
// triggered it. Internal detail stays in the logs.
func Message(err error) string {
	var rej *RejectedError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rej):
		switch rej.Reason {
		case RejectUnsupportedType:
			return fmt.Sprintf("%s: file type not allowed", rej.Filename)
		case RejectTooLarge:
			return fmt.Sprintf("%s: file exceeds the size limit (%s)", rej.Filename, rej.Detail)
		case RejectMaliciousSignature:
			return fmt.Sprintf("%s: file content looks like an executable", rej.Filename)
		default:
			return fmt.Sprintf("%s: invalid file name", rej.Filename)
		}
	case errors.Is(err, ErrForbidden):
		return "access denied"
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrConflict):
		return "already exists"
	case errors.Is(err, ErrInvalid):
		return "invalid input"
	case errors.Is(err, ErrIntegrity):
		return "account data is inconsistent, contact an administrator"
	default:
		return "operation failed"
	}
}
