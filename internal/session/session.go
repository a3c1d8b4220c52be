// Package session implements the issue detail controller: it owns one open
// issue-editing session, tracking a baseline (last known-persisted) and a
// working (in-progress) snapshot, running the inline edit state machine, and
// reconciling local state against the backend on save.
//
// The controller is headless. All UI bindings (terminal table views, the
// bubbletea detail view) drive it through its methods and read state back;
// nothing here touches a renderer.
package session

import (
	"context"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/trackerlab/itc/internal/api"
	"github.com/trackerlab/itc/internal/models"
)

// Backend is the slice of the API client a session needs. *api.Client
// satisfies it; tests substitute recording fakes.
type Backend interface {
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	CreateIssue(ctx context.Context, title, description, author string) (*models.Issue, error)
	UpdateIssueField(ctx context.Context, id, field, value string) error

	ListComments(ctx context.Context, issueID string) ([]models.Comment, error)
	AddComment(ctx context.Context, issueID, text, author string) (models.Comment, error)
	UpdateComment(ctx context.Context, issueID, commentID, text string) error
	DeleteComment(ctx context.Context, issueID, commentID string) error

	ListIssueTags(ctx context.Context, issueID string) ([]models.Tag, error)
	AddIssueTag(ctx context.Context, issueID string, tag models.Tag) error
	RemoveIssueTag(ctx context.Context, issueID, label string) error

	AssignIssue(ctx context.Context, userName, issueID string) error
	UnassignIssue(ctx context.Context, issueID string) error

	ListUsers(ctx context.Context) ([]models.User, error)
}

// Config carries the per-session context that would otherwise live in
// module-level state: the backend handle, the active database name stamped
// on the view-model, the preferred author, and the list controller's update
// callback. The composing command builds one per opened session.
type Config struct {
	Backend Backend

	// ActiveDatabase is the provenance label for issues in this session.
	// Display only; never sent to the backend.
	ActiveDatabase string

	// DefaultAuthor is used for created issues and comments. When empty the
	// first directory entry is used instead.
	DefaultAuthor string

	// OnUpdate is invoked once after every successful create, update,
	// assign/unassign, and comment mutation, carrying the reconciled
	// view-model. May be nil.
	OnUpdate func(models.Issue)
}

// Session is one open issue-editing session.
type Session struct {
	cfg Config

	baseline *models.Issue
	working  *models.Issue

	edit *editSession

	// User directory, fetched at most once per session. All access happens
	// on the caller's event loop, so no locking.
	users       []models.User
	usersLoaded bool

	closed bool
}

// New opens a session for a not-yet-created issue. The working copy starts
// empty with To-Be-Done status; RawID stays empty until Save creates it.
func New(cfg Config) *Session {
	issue := &models.Issue{
		Status:   models.StatusToBeDone,
		Author:   cfg.DefaultAuthor,
		Database: cfg.ActiveDatabase,
	}
	return &Session{
		cfg:      cfg,
		baseline: issue.Clone(),
		working:  issue.Clone(),
	}
}

// OpenIssue opens a session over an already-normalized issue, e.g. a list
// selection. The given issue becomes the baseline; the session works on a
// copy.
func OpenIssue(cfg Config, issue *models.Issue) *Session {
	base := issue.Clone()
	base.Database = cfg.ActiveDatabase
	ensureLocalIDs(base)
	return &Session{
		cfg:      cfg,
		baseline: base,
		working:  base.Clone(),
	}
}

// Open loads an issue by id along with its comments and tags. A backend 404
// is reported as ErrIssueNotFound so callers can distinguish it from
// generic failures.
func Open(ctx context.Context, cfg Config, id string) (*Session, error) {
	issue, err := cfg.Backend.GetIssue(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}

	if comments, err := cfg.Backend.ListComments(ctx, issue.RawID); err == nil {
		issue.Comments = comments
	}
	if tags, err := cfg.Backend.ListIssueTags(ctx, issue.RawID); err == nil && len(tags) > 0 {
		issue.Tags = tags
	}

	return OpenIssue(cfg, issue), nil
}

// Working returns the in-progress snapshot.
func (s *Session) Working() *models.Issue { return s.working }

// Baseline returns the last known-persisted snapshot.
func (s *Session) Baseline() *models.Issue { return s.baseline }

// Closed reports whether the session has been closed or discarded.
func (s *Session) Closed() bool { return s.closed }

// Dirty reports whether the working copy differs from the baseline in a
// field that save-time persistence would submit.
func (s *Session) Dirty() bool {
	return s.working.Title != s.baseline.Title ||
		s.working.Description != s.baseline.Description
}

// Directory returns the cached user directory, fetching it on first access.
// A fetch failure is not cached so a later access can retry.
func (s *Session) Directory(ctx context.Context) ([]models.User, error) {
	if s.usersLoaded {
		return s.users, nil
	}
	users, err := s.cfg.Backend.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	s.users = users
	s.usersLoaded = true
	return s.users, nil
}

// Discard drops the working copy without any network call or callback.
func (s *Session) Discard() {
	s.edit = nil
	s.working = s.baseline.Clone()
	s.closed = true
}

// notify invokes the update callback with the reconciled view-model.
func (s *Session) notify() {
	if s.cfg.OnUpdate != nil {
		s.cfg.OnUpdate(*s.working.Clone())
	}
}

// resolveAuthor picks the author for a create: the configured default when
// set, else the first directory entry. An empty directory blocks the create
// rather than fabricating a user.
func (s *Session) resolveAuthor(ctx context.Context) (string, error) {
	if s.working.Author != "" {
		return s.working.Author, nil
	}
	if s.cfg.DefaultAuthor != "" {
		return s.cfg.DefaultAuthor, nil
	}
	users, err := s.Directory(ctx)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", ErrAuthorRequired
	}
	return users[0].Name, nil
}

// newLocalID mints a client-side comment identity.
func newLocalID() string {
	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(entropy, 0)).String()
}

// ensureLocalIDs gives every comment a stable client-side handle so edits
// can address comments whose server id has not round-tripped yet.
func ensureLocalIDs(issue *models.Issue) {
	for i := range issue.Comments {
		if issue.Comments[i].LocalID == "" {
			issue.Comments[i].LocalID = newLocalID()
		}
	}
}
