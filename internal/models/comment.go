package models

// Comment is one comment on an issue.
type Comment struct {
	// ID is the backend comment id, empty for comments created in this
	// session whose id has not round-tripped back yet.
	ID string

	// LocalID is a client-side ulid minted when a draft comment is added,
	// so unsaved comments can be addressed stably before ID exists.
	LocalID string

	Author string
	Date   string
	Text   string
}

// Persisted reports whether the comment has a backend id.
func (c *Comment) Persisted() bool { return c.ID != "" }
