package session

import "errors"

// Validation errors are caught before any network call; the triggering field
// stays editable and no state is mutated. The strings double as the
// user-visible status messages.
var (
	ErrEmptyTitle     = errors.New("title cannot be empty")
	ErrEmptyText      = errors.New("comment text cannot be empty")
	ErrUserNotFound   = errors.New("user not found")
	ErrAmbiguousUser  = errors.New("assignee name matches more than one user")
	ErrAuthorRequired = errors.New("author required")
	ErrIssueNotFound  = errors.New("issue not found")
	ErrNoEditSession  = errors.New("no edit in progress")
	ErrClosed         = errors.New("session is closed")
)
