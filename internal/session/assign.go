package session

import (
	"context"
	"strings"
)

// ResolveAssignee matches a free-text name against the cached user
// directory. The match is case-insensitive and must be unique; on success
// the directory's canonical casing is returned, not the input. An empty
// input resolves to "" (unassign).
func (s *Session) ResolveAssignee(ctx context.Context, input string) (canonical string, err error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", nil
	}

	users, err := s.Directory(ctx)
	if err != nil {
		return "", err
	}

	var matches []string
	for _, u := range users {
		if strings.EqualFold(u.Name, trimmed) {
			matches = append(matches, u.Name)
		}
	}
	switch len(matches) {
	case 0:
		return "", ErrUserNotFound
	case 1:
		return matches[0], nil
	default:
		return "", ErrAmbiguousUser
	}
}

// CommitAssignee ends an assignee edit. Empty input is an explicit
// unassign; non-empty input must resolve to exactly one directory entry. A
// resolution equal to the current assignee is a no-op. Assignment persists
// immediately for a persisted issue; the working copy is only mutated after
// the backend accepts, so a failure leaves the pre-edit label in place.
func (s *Session) CommitAssignee(ctx context.Context, input string) (changed bool, err error) {
	if s.closed {
		return false, ErrClosed
	}

	canonical, err := s.ResolveAssignee(ctx, input)
	if err != nil {
		return false, err
	}

	if canonical == s.working.AssignedTo {
		return false, nil
	}

	if s.working.Persisted() {
		if canonical == "" {
			err = s.cfg.Backend.UnassignIssue(ctx, s.working.RawID)
		} else {
			err = s.cfg.Backend.AssignIssue(ctx, canonical, s.working.RawID)
		}
		if err != nil {
			return false, err
		}
	}

	s.working.AssignedTo = canonical
	s.baseline.AssignedTo = canonical
	if s.working.Persisted() {
		s.notify()
	}
	return true, nil
}
