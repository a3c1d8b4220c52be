package models

import (
	"strings"
)

// Status is a normalized issue status label. Filtering and the status
// summary line use the fixed canonical set below, but the backend may hand
// back arbitrary text, so Status stays an open string: unrecognized labels
// are preserved verbatim rather than rejected.
type Status string

const (
	StatusToBeDone   Status = "To-Be-Done"
	StatusInProgress Status = "In-Progress"
	StatusDone       Status = "Done"
)

// CanonicalStatuses is the fixed label set, in workflow order.
var CanonicalStatuses = []Status{StatusToBeDone, StatusInProgress, StatusDone}

// statusSynonyms maps lowercased backend encodings onto canonical labels.
// Numeric codes come from the backend's enum column; the text forms have
// been observed across backend versions.
var statusSynonyms = map[string]Status{
	"1":           StatusToBeDone,
	"todo":        StatusToBeDone,
	"to do":       StatusToBeDone,
	"to be done":  StatusToBeDone,
	"to-be-done":  StatusToBeDone,
	"tbd":         StatusToBeDone,
	"open":        StatusToBeDone,
	"2":           StatusInProgress,
	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"in_progress": StatusInProgress,
	"wip":         StatusInProgress,
	"3":           StatusDone,
	"done":        StatusDone,
	"closed":      StatusDone,
	"resolved":    StatusDone,
}

// ParseStatus maps a backend status encoding onto a canonical label. It
// accepts numeric codes 1/2/3 and case-insensitive text synonyms. Any other
// non-empty string passes through unchanged with ok=false, so callers can
// keep unknown labels as their own filter bucket. An empty input normalizes
// to To-Be-Done.
func ParseStatus(raw string) (status Status, ok bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StatusToBeDone, true
	}
	if s, found := statusSynonyms[strings.ToLower(trimmed)]; found {
		return s, true
	}
	return Status(trimmed), false
}

// Next returns the status that follows in the workflow cycle. Unknown
// labels restart the cycle at To-Be-Done.
func (s Status) Next() Status {
	for i, c := range CanonicalStatuses {
		if c == s {
			return CanonicalStatuses[(i+1)%len(CanonicalStatuses)]
		}
	}
	return StatusToBeDone
}

// UnknownDate is the display value for timestamps the backend omitted or
// that could not be parsed.
const UnknownDate = "Unknown date"

// Issue is the normalized, UI-facing view-model for one issue. It is built
// from a backend DTO by the api package and owned by a detail session while
// one is open.
type Issue struct {
	// RawID is the backend identity in normalized string form. It is empty
	// if and only if the issue has never been persisted; that is the sole
	// discriminator between the create and update flows.
	RawID string

	Title       string
	Description string
	Status      Status

	// Author is the issue creator, resolved against the user directory.
	Author string

	// AssignedTo is free-form; empty means unassigned.
	AssignedTo string

	Tags     []Tag
	Comments []Comment

	// CreatedAt is the already-formatted display date ("Unknown date" when
	// the backend gave none).
	CreatedAt string

	// Database records which backend database the issue came from. Display
	// only; never sent back to the backend.
	Database string
}

// DisplayID returns the "#"-prefixed id shown in lists and headings, or
// "#?" for an issue that has not been created yet.
func (i *Issue) DisplayID() string {
	if i.RawID == "" {
		return "#?"
	}
	return "#" + i.RawID
}

// Persisted reports whether the issue exists on the backend.
func (i *Issue) Persisted() bool { return i.RawID != "" }

// Clone returns a deep copy. Sessions rely on this to keep the baseline and
// working snapshots independent.
func (i *Issue) Clone() *Issue {
	c := *i
	if i.Tags != nil {
		c.Tags = make([]Tag, len(i.Tags))
		copy(c.Tags, i.Tags)
	}
	if i.Comments != nil {
		c.Comments = make([]Comment, len(i.Comments))
		copy(c.Comments, i.Comments)
	}
	return &c
}
