package session

import (
	"context"
	"strings"
	"time"

	"github.com/trackerlab/itc/internal/models"
)

// AddComment appends a comment to the issue. When the issue is persisted the
// comment is created on the backend immediately and the returned copy
// carries the backend id; for a not-yet-created issue it stays a local draft
// (identified by its LocalID) until Save flushes it.
func (s *Session) AddComment(ctx context.Context, text string) (added models.Comment, err error) {
	if s.closed {
		return models.Comment{}, ErrClosed
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Comment{}, ErrEmptyText
	}

	author, err := s.resolveAuthor(ctx)
	if err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		LocalID: newLocalID(),
		Author:  author,
		Date:    time.Now().Format("2006-01-02"),
		Text:    trimmed,
	}

	if s.working.Persisted() {
		created, err := s.cfg.Backend.AddComment(ctx, s.working.RawID, trimmed, author)
		if err != nil {
			return models.Comment{}, err
		}
		comment.ID = created.ID
		if created.Date != "" && created.Date != models.UnknownDate {
			comment.Date = created.Date
		}
		if created.Author != "" {
			comment.Author = created.Author
		}
		s.working.Comments = append(s.working.Comments, comment)
		s.baseline.Comments = append(s.baseline.Comments, comment)
		s.notify()
		return comment, nil
	}

	s.working.Comments = append(s.working.Comments, comment)
	return comment, nil
}

// commitCommentEdit applies a committed edit-session value to a comment.
// The working copy is mutated first and kept even if the backend write
// fails, so the user can retry; the baseline only advances on success.
func (s *Session) commitCommentEdit(ctx context.Context, ref, text string) error {
	idx := s.commentIndex(ref)
	if idx < 0 {
		return errCommentNotFound
	}

	s.working.Comments[idx].Text = text

	comment := s.working.Comments[idx]
	if !s.working.Persisted() || !comment.Persisted() {
		return nil
	}

	if err := s.cfg.Backend.UpdateComment(ctx, s.working.RawID, comment.ID, text); err != nil {
		return err
	}
	if bidx := s.baselineCommentIndex(comment); bidx >= 0 {
		s.baseline.Comments[bidx].Text = text
	}
	s.notify()
	return nil
}

// DeleteComment removes the comment identified by ref (server id or local
// id). A comment with a backend id is deleted on the backend first; a
// local-only draft is removed without any network call.
func (s *Session) DeleteComment(ctx context.Context, ref string) error {
	idx := s.commentIndex(ref)
	if idx < 0 {
		return errCommentNotFound
	}
	return s.deleteCommentAt(ctx, idx)
}

// DeleteCommentAt removes the comment at the given position. Positional
// matching is the fallback for comments created in this session whose id
// has not round-tripped back.
func (s *Session) DeleteCommentAt(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.working.Comments) {
		return errCommentNotFound
	}
	return s.deleteCommentAt(ctx, index)
}

func (s *Session) deleteCommentAt(ctx context.Context, idx int) error {
	comment := s.working.Comments[idx]

	if s.working.Persisted() && comment.Persisted() {
		if err := s.cfg.Backend.DeleteComment(ctx, s.working.RawID, comment.ID); err != nil {
			return err
		}
		if bidx := s.baselineCommentIndex(comment); bidx >= 0 {
			s.baseline.Comments = append(s.baseline.Comments[:bidx], s.baseline.Comments[bidx+1:]...)
		}
		s.working.Comments = append(s.working.Comments[:idx], s.working.Comments[idx+1:]...)
		s.notify()
		return nil
	}

	// Local draft: remove exactly this position, no network call.
	s.working.Comments = append(s.working.Comments[:idx], s.working.Comments[idx+1:]...)
	return nil
}

// baselineCommentIndex finds the baseline entry for a working comment, by
// server id when present, else by local id.
func (s *Session) baselineCommentIndex(comment models.Comment) int {
	for i := range s.baseline.Comments {
		if comment.ID != "" && s.baseline.Comments[i].ID == comment.ID {
			return i
		}
		if comment.LocalID != "" && s.baseline.Comments[i].LocalID == comment.LocalID {
			return i
		}
	}
	return -1
}
