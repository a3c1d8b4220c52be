package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trackerlab/itc/internal/models"
)

// DefaultBaseURL is where the backend listens when nothing is configured.
const DefaultBaseURL = "http://localhost:8600"

// Client talks to the issue-tracker backend. One method per endpoint; all
// methods take a context so callers can bound or abort requests, though the
// detail session itself never cancels one once submitted.
type Client struct {
	base string
	http *http.Client
}

// New creates a client for the backend at base. A zero timeout means no
// client-side timeout.
func New(base string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.base }

// do issues one request and returns the response body. Any non-2xx status
// becomes an *Error carrying the body text verbatim.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request for %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response for %s: %w", path, err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, &Error{
			StatusCode: res.StatusCode,
			Path:       path,
			Message:    strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}

// --- Issues ---

// ListIssues fetches all issues in the active database.
func (c *Client) ListIssues(ctx context.Context) ([]*models.Issue, error) {
	data, err := c.do(ctx, http.MethodGet, "/issues", nil)
	if err != nil {
		return nil, err
	}
	return DecodeIssues(data)
}

// GetIssue fetches one issue by id. A backend 404 surfaces as an *Error for
// which IsNotFound is true.
func (c *Client) GetIssue(ctx context.Context, id string) (*models.Issue, error) {
	data, err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return DecodeIssue(data)
}

// CreateIssue creates a new issue and returns the backend's view of it,
// including the assigned id and canonical timestamps.
func (c *Client) CreateIssue(ctx context.Context, title, description, author string) (*models.Issue, error) {
	data, err := c.do(ctx, http.MethodPost, "/issues", issueCreateRequest{
		Title:       title,
		Description: description,
		AuthorID:    author,
	})
	if err != nil {
		return nil, err
	}
	return DecodeIssue(data)
}

// UpdateIssueField applies a single {field, value} update.
func (c *Client) UpdateIssueField(ctx context.Context, id, field, value string) error {
	_, err := c.do(ctx, http.MethodPatch, "/issues/"+url.PathEscape(id), fieldUpdateRequest{
		Field: field,
		Value: value,
	})
	return err
}

// DeleteIssue removes an issue.
func (c *Client) DeleteIssue(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/issues/"+url.PathEscape(id), nil)
	return err
}

// --- Comments ---

// ListComments fetches an issue's comments in order.
func (c *Client) ListComments(ctx context.Context, issueID string) ([]models.Comment, error) {
	data, err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(issueID)+"/comments", nil)
	if err != nil {
		return nil, err
	}
	return DecodeComments(data)
}

// AddComment creates a comment and returns it with the backend id set.
func (c *Client) AddComment(ctx context.Context, issueID, text, author string) (models.Comment, error) {
	data, err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/comments", commentCreateRequest{
		Text:     text,
		AuthorID: author,
	})
	if err != nil {
		return models.Comment{}, err
	}
	return DecodeComment(data)
}

// UpdateComment replaces a comment's text.
func (c *Client) UpdateComment(ctx context.Context, issueID, commentID, text string) error {
	path := "/issues/" + url.PathEscape(issueID) + "/comments/" + url.PathEscape(commentID)
	_, err := c.do(ctx, http.MethodPatch, path, commentUpdateRequest{Text: text})
	return err
}

// DeleteComment removes a comment.
func (c *Client) DeleteComment(ctx context.Context, issueID, commentID string) error {
	path := "/issues/" + url.PathEscape(issueID) + "/comments/" + url.PathEscape(commentID)
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// --- Tags ---

// ListTags fetches the global tag catalog.
func (c *Client) ListTags(ctx context.Context) ([]models.Tag, error) {
	data, err := c.do(ctx, http.MethodGet, "/tags", nil)
	if err != nil {
		return nil, err
	}
	return DecodeTags(data)
}

// ListIssueTags fetches the tags attached to one issue.
func (c *Client) ListIssueTags(ctx context.Context, issueID string) ([]models.Tag, error) {
	data, err := c.do(ctx, http.MethodGet, "/issues/"+url.PathEscape(issueID)+"/tags", nil)
	if err != nil {
		return nil, err
	}
	return DecodeTags(data)
}

// AddIssueTag attaches a tag to an issue.
func (c *Client) AddIssueTag(ctx context.Context, issueID string, tag models.Tag) error {
	_, err := c.do(ctx, http.MethodPost, "/issues/"+url.PathEscape(issueID)+"/tags", tagRequest{
		Tag:   tag.Label,
		Color: tag.Color,
	})
	return err
}

// RemoveIssueTag detaches a tag from an issue by label.
func (c *Client) RemoveIssueTag(ctx context.Context, issueID, label string) error {
	path := "/issues/" + url.PathEscape(issueID) + "/tags/" + url.PathEscape(label)
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}

// --- Assignment ---

// AssignIssue assigns an issue to a user.
func (c *Client) AssignIssue(ctx context.Context, userName, issueID string) error {
	_, err := c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userName)+"/issues", assignRequest{
		IssueID: issueID,
	})
	return err
}

// UnassignIssue clears an issue's assignment.
func (c *Client) UnassignIssue(ctx context.Context, issueID string) error {
	_, err := c.do(ctx, http.MethodPatch, "/issues/"+url.PathEscape(issueID)+"/unassign", nil)
	return err
}

// --- Users ---

// ListUsers fetches the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	data, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	return DecodeUsers(data)
}

// ListRoles fetches the available user roles. Callers fall back to
// models.DefaultRoles when the listing is empty.
func (c *Client) ListRoles(ctx context.Context) ([]string, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/roles", nil)
	if err != nil {
		return nil, err
	}
	var roles []string
	if err := json.Unmarshal(data, &roles); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	return roles, nil
}

// CreateUser adds a user to the directory.
func (c *Client) CreateUser(ctx context.Context, name, role string) (models.User, error) {
	data, err := c.do(ctx, http.MethodPost, "/users", userCreateRequest{Name: name, Role: role})
	if err != nil {
		return models.User{}, err
	}
	return DecodeUser(data)
}

// UpdateUserField applies a single {field, value} update to a user.
func (c *Client) UpdateUserField(ctx context.Context, name, field, value string) error {
	_, err := c.do(ctx, http.MethodPatch, "/users/"+url.PathEscape(name), fieldUpdateRequest{
		Field: field,
		Value: value,
	})
	return err
}

// DeleteUser removes a user from the directory.
func (c *Client) DeleteUser(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(name), nil)
	return err
}

// --- Databases ---

// ListDatabases fetches the backend's databases with the active one marked.
func (c *Client) ListDatabases(ctx context.Context) ([]models.Database, error) {
	data, err := c.do(ctx, http.MethodGet, "/databases", nil)
	if err != nil {
		return nil, err
	}
	return DecodeDatabases(data)
}

// ActiveDatabase returns the name of the active database, or "" when the
// backend reports none.
func (c *Client) ActiveDatabase(ctx context.Context) (string, error) {
	dbs, err := c.ListDatabases(ctx)
	if err != nil {
		return "", err
	}
	for _, db := range dbs {
		if db.Active {
			return db.Name, nil
		}
	}
	return "", nil
}

// CreateDatabase creates a new backend database.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodPost, "/databases", databaseCreateRequest{Name: name})
	return err
}

// DeleteDatabase removes a backend database.
func (c *Client) DeleteDatabase(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodDelete, "/databases/"+url.PathEscape(name), nil)
	return err
}

// SwitchDatabase makes the named database active.
func (c *Client) SwitchDatabase(ctx context.Context, name string) error {
	_, err := c.do(ctx, http.MethodPost, "/databases/"+url.PathEscape(name)+"/switch", nil)
	return err
}

// RenameDatabase renames a backend database.
func (c *Client) RenameDatabase(ctx context.Context, oldName, newName string) error {
	_, err := c.do(ctx, http.MethodPatch, "/databases/"+url.PathEscape(oldName), databaseRenameRequest{Name: newName})
	return err
}
