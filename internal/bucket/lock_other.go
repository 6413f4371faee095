//go:build !unix

package bucket

// lockFile is a no-op where flock is unavailable; the in-process mutex
// still serializes callers within one process.
func lockFile(path string) (func(), error) {
	return func() {}, nil
}
