package session

import (
	"context"
	"strings"

	"github.com/trackerlab/itc/internal/models"
)

// FieldOutcome records one save-time persistence attempt.
type FieldOutcome struct {
	Field string
	Value string
	Err   error
}

// SaveResult reports what Save did. Outcomes lists every attempted write in
// order; with the non-atomic per-field policy some may have failed while
// others landed.
type SaveResult struct {
	Created  bool
	Outcomes []FieldOutcome
	Issue    models.Issue
}

// Err returns the last failure among the outcomes, matching the best-effort
// "report last error" policy.
func (r *SaveResult) Err() error {
	var last error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			last = o.Err
		}
	}
	return last
}

// Save reconciles the working copy with the backend.
//
// For a never-persisted issue it submits one create request; the
// backend-assigned id, timestamps, and canonical status become the new
// baseline, and draft comments and tags are then flushed best-effort. A
// create failure keeps the session open with no local mutation.
//
// For a persisted issue it diffs title and description against the baseline
// and issues one per-field update per change. Fields are independent:
// failure of one does not roll back the others. An empty diff issues no
// network call and is success.
//
// The update callback fires once if anything persisted.
func (s *Session) Save(ctx context.Context) (*SaveResult, error) {
	if s.closed {
		return nil, ErrClosed
	}

	// An open inline edit commits first; its validation failure aborts the
	// save so the field stays editable.
	if s.edit != nil {
		if _, err := s.CommitEdit(ctx, s.edit.pending); err != nil {
			return nil, err
		}
	}

	if !s.working.Persisted() {
		return s.saveCreate(ctx)
	}
	return s.saveUpdate(ctx)
}

func (s *Session) saveCreate(ctx context.Context) (*SaveResult, error) {
	if strings.TrimSpace(s.working.Title) == "" {
		return nil, ErrEmptyTitle
	}

	author, err := s.resolveAuthor(ctx)
	if err != nil {
		return nil, err
	}

	created, err := s.cfg.Backend.CreateIssue(ctx, s.working.Title, s.working.Description, author)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{Created: true}

	// The backend's view wins for identity, timestamps, and canonical
	// status; local drafts (comments, tags, assignee) are carried over and
	// flushed below.
	drafts := s.working.Comments
	tags := s.working.Tags
	assignee := s.working.AssignedTo

	created.Author = author
	created.Database = s.cfg.ActiveDatabase
	s.working = created.Clone()
	s.working.Tags = nil

	for _, tag := range tags {
		err := s.cfg.Backend.AddIssueTag(ctx, s.working.RawID, tag)
		result.Outcomes = append(result.Outcomes, FieldOutcome{Field: "tag", Value: tag.Label, Err: err})
		if err == nil {
			s.working.Tags = append(s.working.Tags, tag)
		}
	}

	for _, draft := range drafts {
		flushed, err := s.cfg.Backend.AddComment(ctx, s.working.RawID, draft.Text, draft.Author)
		result.Outcomes = append(result.Outcomes, FieldOutcome{Field: "comment", Value: draft.Text, Err: err})
		if err == nil {
			draft.ID = flushed.ID
			s.working.Comments = append(s.working.Comments, draft)
		}
	}

	if assignee != "" {
		err := s.cfg.Backend.AssignIssue(ctx, assignee, s.working.RawID)
		result.Outcomes = append(result.Outcomes, FieldOutcome{Field: "assignee", Value: assignee, Err: err})
		if err == nil {
			s.working.AssignedTo = assignee
		}
	}

	s.baseline = s.working.Clone()
	result.Issue = *s.working.Clone()
	s.notify()
	return result, nil
}

func (s *Session) saveUpdate(ctx context.Context) (*SaveResult, error) {
	result := &SaveResult{}

	diff := []FieldOutcome{}
	if s.working.Title != s.baseline.Title {
		diff = append(diff, FieldOutcome{Field: "title", Value: s.working.Title})
	}
	if s.working.Description != s.baseline.Description {
		diff = append(diff, FieldOutcome{Field: "description", Value: s.working.Description})
	}

	if len(diff) == 0 {
		result.Issue = *s.working.Clone()
		return result, nil
	}

	persistedAny := false
	for _, change := range diff {
		change.Err = s.cfg.Backend.UpdateIssueField(ctx, s.working.RawID, change.Field, change.Value)
		if change.Err == nil {
			persistedAny = true
			switch change.Field {
			case "title":
				s.baseline.Title = s.working.Title
			case "description":
				s.baseline.Description = s.working.Description
			}
		}
		result.Outcomes = append(result.Outcomes, change)
	}

	result.Issue = *s.working.Clone()
	if persistedAny {
		s.notify()
	}
	return result, result.Err()
}

// Close saves pending changes and ends the session. The session stays open
// when the save fails so the user can retry or discard explicitly.
func (s *Session) Close(ctx context.Context) (*SaveResult, error) {
	result, err := s.Save(ctx)
	if err != nil {
		return result, err
	}
	s.closed = true
	return result, nil
}

// SetStatus persists a status change immediately and advances both
// snapshots. For a not-yet-created issue the change is local only.
func (s *Session) SetStatus(ctx context.Context, status models.Status) error {
	if s.closed {
		return ErrClosed
	}
	if status == s.working.Status {
		return nil
	}
	if s.working.Persisted() {
		if err := s.cfg.Backend.UpdateIssueField(ctx, s.working.RawID, "status", string(status)); err != nil {
			return err
		}
	}
	s.working.Status = status
	s.baseline.Status = status
	if s.working.Persisted() {
		s.notify()
	}
	return nil
}

// CycleStatus moves the status to the next canonical label.
func (s *Session) CycleStatus(ctx context.Context) (models.Status, error) {
	next := s.working.Status.Next()
	if err := s.SetStatus(ctx, next); err != nil {
		return s.working.Status, err
	}
	return next, nil
}

// AddTag attaches a tag, persisting immediately for a persisted issue. An
// empty color takes the default palette value.
func (s *Session) AddTag(ctx context.Context, tag models.Tag) error {
	if s.closed {
		return ErrClosed
	}
	if strings.TrimSpace(tag.Label) == "" {
		return nil
	}
	if tag.Color == "" {
		tag.Color = models.DefaultTagColor
	}
	for _, existing := range s.working.Tags {
		if strings.EqualFold(existing.Label, tag.Label) {
			return nil
		}
	}
	if s.working.Persisted() {
		if err := s.cfg.Backend.AddIssueTag(ctx, s.working.RawID, tag); err != nil {
			return err
		}
	}
	s.working.Tags = append(s.working.Tags, tag)
	s.baseline.Tags = append(s.baseline.Tags, tag)
	if s.working.Persisted() {
		s.notify()
	}
	return nil
}

// RemoveTag detaches a tag by label, persisting immediately for a persisted
// issue.
func (s *Session) RemoveTag(ctx context.Context, label string) error {
	if s.closed {
		return ErrClosed
	}
	idx := -1
	for i, tag := range s.working.Tags {
		if strings.EqualFold(tag.Label, label) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	if s.working.Persisted() {
		if err := s.cfg.Backend.RemoveIssueTag(ctx, s.working.RawID, s.working.Tags[idx].Label); err != nil {
			return err
		}
	}
	s.working.Tags = append(s.working.Tags[:idx], s.working.Tags[idx+1:]...)
	if bidx := tagIndex(s.baseline.Tags, label); bidx >= 0 {
		s.baseline.Tags = append(s.baseline.Tags[:bidx], s.baseline.Tags[bidx+1:]...)
	}
	if s.working.Persisted() {
		s.notify()
	}
	return nil
}

func tagIndex(tags []models.Tag, label string) int {
	for i, tag := range tags {
		if strings.EqualFold(tag.Label, label) {
			return i
		}
	}
	return -1
}
