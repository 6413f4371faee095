package portal

// Trash archives deleted share entries instead of destroying them.
type Trash interface {
	// SoftDelete moves share/<rel> into the trash root under a timestamped
	// name and records a DELETE activity. It returns the trash-relative name.
	SoftDelete(actor Actor, rel string) (string, error)

	// List returns the archived entries, newest first.
	List() ([]*Entry, error)
}
