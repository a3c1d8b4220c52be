package devserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackerlab/itc/internal/api"
	"github.com/trackerlab/itc/internal/models"
)

// newTestServer starts the full router over a fresh manager and returns an
// API client pointed at it, exercising the real wire contract end to end.
func newTestServer(t *testing.T) *api.Client {
	t.Helper()
	manager, err := NewManager(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	server := httptest.NewServer(NewServer(manager, nil).Router())
	t.Cleanup(server.Close)

	return api.New(server.URL, 5*time.Second)
}

func TestServer_IssueRoundTrip(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	created, err := client.CreateIssue(ctx, "Fix login crash", "Stack trace attached", "ana")
	require.NoError(t, err)
	assert.Equal(t, "1", created.RawID)
	assert.Equal(t, models.StatusToBeDone, created.Status)
	assert.Equal(t, "ana", created.Author)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), created.CreatedAt)

	require.NoError(t, client.UpdateIssueField(ctx, created.RawID, "status", "In-Progress"))
	require.NoError(t, client.UpdateIssueField(ctx, created.RawID, "title", "Fix login crash on Safari"))

	got, err := client.GetIssue(ctx, created.RawID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, got.Status)
	assert.Equal(t, "Fix login crash on Safari", got.Title)

	issues, err := client.ListIssues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 1)

	require.NoError(t, client.DeleteIssue(ctx, created.RawID))
	_, err = client.GetIssue(ctx, created.RawID)
	assert.True(t, api.IsNotFound(err))
}

func TestServer_EmptyTitleRejected(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	_, err := client.CreateIssue(ctx, "   ", "", "ana")
	require.Error(t, err)

	created, err := client.CreateIssue(ctx, "valid", "", "ana")
	require.NoError(t, err)
	err = client.UpdateIssueField(ctx, created.RawID, "title", "")
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestServer_CommentRoundTrip(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	issue, err := client.CreateIssue(ctx, "with comments", "", "ana")
	require.NoError(t, err)

	comment, err := client.AddComment(ctx, issue.RawID, "first note", "bob")
	require.NoError(t, err)
	assert.Equal(t, "1", comment.ID)
	assert.Equal(t, "bob", comment.Author)
	assert.NotEqual(t, models.UnknownDate, comment.Date)

	require.NoError(t, client.UpdateComment(ctx, issue.RawID, comment.ID, "edited note"))

	comments, err := client.ListComments(ctx, issue.RawID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited note", comments[0].Text)

	require.NoError(t, client.DeleteComment(ctx, issue.RawID, comment.ID))
	comments, err = client.ListComments(ctx, issue.RawID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestServer_TagsOnIssueList(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	issue, err := client.CreateIssue(ctx, "tagged", "", "ana")
	require.NoError(t, err)

	require.NoError(t, client.AddIssueTag(ctx, issue.RawID, models.Tag{Label: "bug", Color: "#ff0000"}))

	issues, err := client.ListIssues(ctx)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, issues[0].Tags, 1)
	assert.Equal(t, "bug", issues[0].Tags[0].Label)
	assert.Equal(t, "#ff0000", issues[0].Tags[0].Color)

	require.NoError(t, client.RemoveIssueTag(ctx, issue.RawID, "bug"))
	tags, err := client.ListIssueTags(ctx, issue.RawID)
	require.NoError(t, err)
	assert.Empty(t, tags)

	// Catalog keeps the tag for reuse.
	catalog, err := client.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, catalog, 1)
}

func TestServer_AssignmentFlow(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	_, err := client.CreateUser(ctx, "Ana", "Owner")
	require.NoError(t, err)
	issue, err := client.CreateIssue(ctx, "assignable", "", "Ana")
	require.NoError(t, err)

	require.NoError(t, client.AssignIssue(ctx, "Ana", issue.RawID))
	got, err := client.GetIssue(ctx, issue.RawID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.AssignedTo)

	err = client.AssignIssue(ctx, "ghost", issue.RawID)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))

	require.NoError(t, client.UnassignIssue(ctx, issue.RawID))
	got, err = client.GetIssue(ctx, issue.RawID)
	require.NoError(t, err)
	assert.Equal(t, "", got.AssignedTo)
}

func TestServer_UsersAndRoles(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	roles, err := client.ListRoles(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultRoles, roles)

	user, err := client.CreateUser(ctx, "ana", "")
	require.NoError(t, err)
	assert.Equal(t, "Developer", user.Role)

	require.NoError(t, client.UpdateUserField(ctx, "ana", "role", "Admin"))
	users, err := client.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Admin", users[0].Role)

	require.NoError(t, client.DeleteUser(ctx, "ana"))
	users, err = client.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestServer_DatabaseLifecycle(t *testing.T) {
	client := newTestServer(t)
	ctx := context.Background()

	active, err := client.ActiveDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultDatabase, active)

	require.NoError(t, client.CreateDatabase(ctx, "side"))
	require.NoError(t, client.SwitchDatabase(ctx, "side"))

	active, err = client.ActiveDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, "side.db", active)

	// The new database starts empty.
	issues, err := client.ListIssues(ctx)
	require.NoError(t, err)
	assert.Empty(t, issues)

	require.NoError(t, client.RenameDatabase(ctx, "side", "renamed"))
	active, err = client.ActiveDatabase(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed.db", active)

	err = client.DeleteDatabase(ctx, "renamed")
	require.Error(t, err, "active database is protected")

	require.NoError(t, client.SwitchDatabase(ctx, DefaultDatabase))
	require.NoError(t, client.DeleteDatabase(ctx, "renamed"))

	dbs, err := client.ListDatabases(ctx)
	require.NoError(t, err)
	assert.Len(t, dbs, 1)
}

func TestServer_BadIssueID(t *testing.T) {
	client := newTestServer(t)

	_, err := client.GetIssue(context.Background(), "not-a-number")
	require.Error(t, err)

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
