package portal

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstracts time retrieval so ledger timestamps and trash names are
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// UUIDGenerator produces random UUIDs.
type UUIDGenerator struct{}

func (UUIDGenerator) New() string { return uuid.New().String() }

// ShortID returns the first n characters of a fresh ID with dashes removed.
// Used for collision suffixes where a full UUID would be noise.
func ShortID(idgen IDGenerator, n int) string {
	id := strings.ReplaceAll(idgen.New(), "-", "")
	if len(id) > n {
		return id[:n]
	}
	return id
}
