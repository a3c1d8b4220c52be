package devserver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIssueCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, "First issue", "details", "ana")
	require.NoError(t, err)
	assert.Equal(t, int64(1), issue.ID)
	assert.Equal(t, "To-Be-Done", issue.Status)
	assert.Positive(t, issue.CreatedAt)

	got, err := s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "First issue", got.Title)
	assert.Equal(t, "ana", got.AuthorID)

	require.NoError(t, s.UpdateIssueField(ctx, issue.ID, "title", "Renamed"))
	require.NoError(t, s.UpdateIssueField(ctx, issue.ID, "status", "Done"))

	got, err = s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "Done", got.Status)

	issues, err := s.ListIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 1)

	require.NoError(t, s.DeleteIssue(ctx, issue.ID))
	_, err = s.GetIssue(ctx, issue.ID)
	assert.ErrorContains(t, err, "not found")
}

func TestUpdateIssueField_UnknownFieldRejected(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, "a", "", "")
	require.NoError(t, err)

	err = s.UpdateIssueField(ctx, issue.ID, "created_at", "0")
	assert.ErrorContains(t, err, "unknown issue field")
}

func TestUpdateIssueField_MissingIssue(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateIssueField(context.Background(), 99, "title", "x")
	assert.ErrorContains(t, err, "not found")
}

func TestCommentLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, "a", "", "ana")
	require.NoError(t, err)

	comment, err := s.AddComment(ctx, issue.ID, "first", "bob")
	require.NoError(t, err)
	assert.Positive(t, comment.ID)
	assert.Positive(t, comment.Timestamp)

	require.NoError(t, s.UpdateComment(ctx, issue.ID, comment.ID, "edited"))

	comments, err := s.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited", comments[0].Text)

	require.NoError(t, s.DeleteComment(ctx, issue.ID, comment.ID))
	comments, err = s.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment_MissingIssue(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddComment(context.Background(), 42, "text", "ana")
	assert.ErrorContains(t, err, "not found")
}

func TestDeleteIssue_CascadesComments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, "a", "", "")
	require.NoError(t, err)
	_, err = s.AddComment(ctx, issue.ID, "orphan?", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteIssue(ctx, issue.ID))

	comments, err := s.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestTagging(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	issue, err := s.CreateIssue(ctx, "a", "", "")
	require.NoError(t, err)

	require.NoError(t, s.TagIssue(ctx, issue.ID, "bug", "#ff0000"))
	// Re-tagging is idempotent; first color wins in the catalog.
	require.NoError(t, s.TagIssue(ctx, issue.ID, "bug", "#00ff00"))
	require.NoError(t, s.TagIssue(ctx, issue.ID, "ui", ""))

	tags, err := s.ListIssueTags(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "bug", tags[0].Tag)
	assert.Equal(t, "#ff0000", tags[0].Color)
	assert.Equal(t, "ui", tags[1].Tag)
	assert.Equal(t, "#49a3d8", tags[1].Color)

	catalog, err := s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)

	require.NoError(t, s.UntagIssue(ctx, issue.ID, "bug"))
	tags, err = s.ListIssueTags(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, tags, 1)

	// Detaching does not delete the catalog entry.
	catalog, err = s.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 2)
}

func TestUsersAndAssignment(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "ana", "")
	require.NoError(t, err)
	assert.Equal(t, "Developer", user.Role)

	_, err = s.CreateUser(ctx, "ana", "Owner")
	assert.Error(t, err, "duplicate names violate the primary key")

	issue, err := s.CreateIssue(ctx, "a", "", "ana")
	require.NoError(t, err)

	require.NoError(t, s.AssignIssue(ctx, "ana", issue.ID))
	got, err := s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.AssignedTo)

	err = s.AssignIssue(ctx, "ghost", issue.ID)
	assert.ErrorContains(t, err, "user not found")

	require.NoError(t, s.UnassignIssue(ctx, issue.ID))
	got, err = s.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.AssignedTo)

	require.NoError(t, s.UpdateUserField(ctx, "ana", "role", "Admin"))
	fetched, err := s.GetUser(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "Admin", fetched.Role)

	require.NoError(t, s.DeleteUser(ctx, "ana"))
	_, err = s.GetUser(ctx, "ana")
	assert.ErrorContains(t, err, "not found")
}
