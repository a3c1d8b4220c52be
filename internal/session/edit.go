package session

import (
	"context"
	"errors"
	"strings"
)

// EditState is the per-field state of the inline edit machine. Every
// editable field is Viewing except the at-most-one field with an open edit
// session.
type EditState int

const (
	Viewing EditState = iota
	Editing
)

// FieldKind identifies which kind of field an edit session targets.
type FieldKind int

const (
	FieldTitle FieldKind = iota
	FieldDescription
	FieldComment
)

// Field identifies one editable field. For comments, CommentRef is the
// comment's server id or client-side local id.
type Field struct {
	Kind       FieldKind
	CommentRef string
}

// TitleField and DescriptionField are the two fixed editable fields.
var (
	TitleField       = Field{Kind: FieldTitle}
	DescriptionField = Field{Kind: FieldDescription}
)

// CommentField addresses a comment body by server or local id.
func CommentField(ref string) Field {
	return Field{Kind: FieldComment, CommentRef: ref}
}

var errCommentNotFound = errors.New("comment not found")

// editSession is one open inline edit. pending tracks the UI's in-progress
// value so that BeginEdit on another field can commit this one.
type editSession struct {
	field    Field
	original string
	pending  string
}

// State returns the edit state of the given field.
func (s *Session) State(field Field) EditState {
	if s.edit != nil && s.edit.field == field {
		return Editing
	}
	return Viewing
}

// Editing returns the field with an open edit session, its pre-edit value,
// and whether any session is open.
func (s *Session) Editing() (Field, string, bool) {
	if s.edit == nil {
		return Field{}, "", false
	}
	return s.edit.field, s.edit.original, true
}

// BeginEdit opens an edit session on field and returns the pre-edit value.
// Only one session may be open at a time: an open session on another field
// is committed first with its pending value, and a validation failure there
// blocks the new session.
func (s *Session) BeginEdit(ctx context.Context, field Field) (original string, err error) {
	if s.closed {
		return "", ErrClosed
	}
	if s.edit != nil {
		if s.edit.field == field {
			return s.edit.original, nil
		}
		if _, err := s.CommitEdit(ctx, s.edit.pending); err != nil {
			return "", err
		}
	}

	value, err := s.fieldValue(field)
	if err != nil {
		return "", err
	}
	s.edit = &editSession{field: field, original: value, pending: value}
	return value, nil
}

// SetPending records the UI's in-progress value for the open edit session,
// so an auto-commit triggered by BeginEdit on another field does not lose
// typed text.
func (s *Session) SetPending(value string) {
	if s.edit != nil {
		s.edit.pending = value
	}
}

// CommitEdit ends the open edit session with value. An empty trimmed title
// or comment body is rejected and the session stays open. A value equal to
// the pre-edit original is a no-op cancel. Title and description changes
// land in the working copy only, deferred to Save; comment changes persist
// immediately when both the issue and the comment have backend ids.
func (s *Session) CommitEdit(ctx context.Context, value string) (changed bool, err error) {
	if s.edit == nil {
		return false, ErrNoEditSession
	}

	trimmed := strings.TrimSpace(value)
	switch s.edit.field.Kind {
	case FieldTitle:
		if trimmed == "" {
			return false, ErrEmptyTitle
		}
	case FieldComment:
		if trimmed == "" {
			return false, ErrEmptyText
		}
	}

	if trimmed == s.edit.original {
		s.edit = nil
		return false, nil
	}

	field := s.edit.field
	s.edit = nil

	switch field.Kind {
	case FieldTitle:
		s.working.Title = trimmed
		return true, nil
	case FieldDescription:
		s.working.Description = trimmed
		return true, nil
	default:
		return true, s.commitCommentEdit(ctx, field.CommentRef, trimmed)
	}
}

// CancelEdit ends the open edit session, discarding the pending value, and
// returns the value to restore in the UI.
func (s *Session) CancelEdit() (original string, err error) {
	if s.edit == nil {
		return "", ErrNoEditSession
	}
	original = s.edit.original
	s.edit = nil
	return original, nil
}

// fieldValue reads the current working value of an editable field.
func (s *Session) fieldValue(field Field) (string, error) {
	switch field.Kind {
	case FieldTitle:
		return s.working.Title, nil
	case FieldDescription:
		return s.working.Description, nil
	default:
		idx := s.commentIndex(field.CommentRef)
		if idx < 0 {
			return "", errCommentNotFound
		}
		return s.working.Comments[idx].Text, nil
	}
}

// commentIndex resolves a comment reference against the working copy:
// server id first, then local id.
func (s *Session) commentIndex(ref string) int {
	if ref == "" {
		return -1
	}
	for i := range s.working.Comments {
		if s.working.Comments[i].ID != "" && s.working.Comments[i].ID == ref {
			return i
		}
	}
	for i := range s.working.Comments {
		if s.working.Comments[i].LocalID == ref {
			return i
		}
	}
	return -1
}
