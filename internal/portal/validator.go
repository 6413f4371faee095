package portal

// UploadLimit describes the ceiling that applies to one class of upload.
type UploadLimit struct {
	Class      string
	Extensions []string
	MaxBytes   int64
}

// UploadValidator decides whether a file may enter staging.
type UploadValidator interface {
	// Admit checks the filename and extension and returns the byte ceiling
	// for the caller's role. Failures are *RejectedError.
	Admit(filename string, role Role) (int64, error)

	// Check inspects the spooled size and leading bytes. Failures are
	// *RejectedError.
	Check(filename string, size, limit int64, prefix []byte) error

	// Limits lists the ceilings that apply to role.
	Limits(role Role) []UploadLimit
}

// SignatureLength is how many leading bytes of an upload are inspected for
// a content signature.
const SignatureLength = 2048
