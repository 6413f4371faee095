package portal

import "fmt"

// Role is the trusted privilege level supplied with every operation.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Actor is the already-authenticated caller of an operation.
type Actor struct {
	Identity string
	Role     Role
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// RequireAdmin returns an error wrapping ErrForbidden unless the actor is an admin.
func (a Actor) RequireAdmin(op string) error {
	if !a.IsAdmin() {
		return fmt.Errorf("%s requires admin role (actor %q): %w", op, a.Identity, ErrForbidden)
	}
	return nil
}

// Bucket is one of the three account admission states.
type Bucket string

const (
	BucketPending Bucket = "pending"
	BucketActive  Bucket = "active"
	BucketDenied  Bucket = "denied"
)

// AllBuckets lists the buckets in lock order.
func AllBuckets() []Bucket {
	return []Bucket{BucketActive, BucketDenied, BucketPending}
}

// ParseBucket validates a bucket name supplied by a caller.
func ParseBucket(s string) (Bucket, error) {
	for _, b := range AllBuckets() {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown bucket %q: %w", s, ErrNotFound)
}

// Account statuses. Every bucket transition sets the status matching the
// target bucket; ToggleStatus flips between active and inactive.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusPending  = "pending"
	StatusDenied   = "denied"
)

// StatusFor returns the status a principal carries after landing in b.
func StatusFor(b Bucket) string {
	switch b {
	case BucketActive:
		return StatusActive
	case BucketDenied:
		return StatusDenied
	default:
		return StatusPending
	}
}

// Principal is one account row. CredentialHash is opaque to the core.
type Principal struct {
	Identity       string
	CredentialHash string
	Role           Role
	Status         string
}

// Moderator is the account admission state machine.
type Moderator interface {
	// Approve moves a principal from pending to active.
	Approve(actor Actor, identity string) error

	// Deny moves a principal from pending to denied.
	Deny(actor Actor, identity string) error

	// Repend moves a principal from denied back to pending.
	Repend(actor Actor, identity string) error

	// ToggleRole flips admin/user for an active principal.
	ToggleRole(actor Actor, identity string) (*Principal, error)

	// ToggleStatus flips active/inactive for an active principal.
	ToggleStatus(actor Actor, identity string) (*Principal, error)

	// Enroll adds a new principal to the pending bucket.
	Enroll(p Principal) error

	// List returns the principals of a bucket in file order.
	List(b Bucket) ([]*Principal, error)

	// Locate finds the single bucket holding identity.
	// Wraps ErrIntegrity if it is found in more than one.
	Locate(identity string) (*Principal, Bucket, error)

	// Verify scans all buckets for identities held more than once.
	Verify() error
}
