package devserver

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the SQLite backing for one database file served by the dev
// backend. Rows use the backend wire conventions: numeric autoincrement
// ids, snake_case columns, epoch-millisecond timestamps.
type Store struct {
	db *sql.DB
}

// Issue is a stored issue row.
type Issue struct {
	ID          int64
	AuthorID    string
	Title       string
	Description string
	AssignedTo  string
	Status      string
	CreatedAt   int64
}

// Comment is a stored comment row.
type Comment struct {
	ID        int64
	IssueID   int64
	AuthorID  string
	Text      string
	Timestamp int64
}

// Tag is a stored tag row.
type Tag struct {
	Tag   string
	Color string
}

// User is a stored user row.
type User struct {
	Name string
	Role string
}

// OpenStore opens (or creates) the SQLite database at path and ensures the
// schema exists.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single connection
	// serializes all access through Go's pool, preventing "database is
	// locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			author_id TEXT NOT NULL DEFAULT '',
			assigned_to TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'To-Be-Done',
			created_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS comments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			author_id TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			tag TEXT PRIMARY KEY,
			color TEXT NOT NULL DEFAULT '#49a3d8'
		)`,
		`CREATE TABLE IF NOT EXISTS issue_tags (
			issue_id INTEGER NOT NULL REFERENCES issues(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			PRIMARY KEY (issue_id, tag)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			name TEXT PRIMARY KEY,
			role TEXT NOT NULL DEFAULT 'Developer'
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// --- Issues ---

func (s *Store) CreateIssue(ctx context.Context, title, description, authorID string) (*Issue, error) {
	issue := &Issue{
		Title:       title,
		Description: description,
		AuthorID:    authorID,
		Status:      "To-Be-Done",
		CreatedAt:   nowMillis(),
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO issues (title, description, author_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		issue.Title, issue.Description, issue.AuthorID, issue.Status, issue.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	issue.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create issue id: %w", err)
	}
	return issue, nil
}

func (s *Store) GetIssue(ctx context.Context, id int64) (*Issue, error) {
	issue := &Issue{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, author_id, assigned_to, status, created_at
		FROM issues WHERE id = ?`, id,
	).Scan(&issue.ID, &issue.Title, &issue.Description, &issue.AuthorID, &issue.AssignedTo, &issue.Status, &issue.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("issue not found: %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	return issue, nil
}

func (s *Store) ListIssues(ctx context.Context) ([]*Issue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, description, author_id, assigned_to, status, created_at
		FROM issues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []*Issue
	for rows.Next() {
		issue := &Issue{}
		if err := rows.Scan(&issue.ID, &issue.Title, &issue.Description, &issue.AuthorID, &issue.AssignedTo, &issue.Status, &issue.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// issueColumns whitelists the fields the per-field PATCH may touch.
var issueColumns = map[string]string{
	"title":       "title",
	"description": "description",
	"status":      "status",
	"assigned_to": "assigned_to",
	"assignedTo":  "assigned_to",
}

// UpdateIssueField applies one {field, value} update. Unknown fields are
// rejected so clients cannot write arbitrary columns.
func (s *Store) UpdateIssueField(ctx context.Context, id int64, field, value string) error {
	column, ok := issueColumns[field]
	if !ok {
		return fmt.Errorf("unknown issue field: %s", field)
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE issues SET %s = ? WHERE id = ?", column), value, id)
	if err != nil {
		return fmt.Errorf("update issue field: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue not found: %d", id)
	}
	return nil
}

func (s *Store) DeleteIssue(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM issues WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("issue not found: %d", id)
	}
	return nil
}

// --- Comments ---

func (s *Store) AddComment(ctx context.Context, issueID int64, text, authorID string) (*Comment, error) {
	if _, err := s.GetIssue(ctx, issueID); err != nil {
		return nil, err
	}
	comment := &Comment{
		IssueID:   issueID,
		AuthorID:  authorID,
		Text:      text,
		Timestamp: nowMillis(),
	}
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (issue_id, author_id, text, timestamp) VALUES (?, ?, ?, ?)`,
		comment.IssueID, comment.AuthorID, comment.Text, comment.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("add comment: %w", err)
	}
	comment.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("add comment id: %w", err)
	}
	return comment, nil
}

func (s *Store) ListComments(ctx context.Context, issueID int64) ([]*Comment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, issue_id, author_id, text, timestamp FROM comments WHERE issue_id = ? ORDER BY id`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var comments []*Comment
	for rows.Next() {
		comment := &Comment{}
		if err := rows.Scan(&comment.ID, &comment.IssueID, &comment.AuthorID, &comment.Text, &comment.Timestamp); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *Store) UpdateComment(ctx context.Context, issueID, commentID int64, text string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE comments SET text = ? WHERE id = ? AND issue_id = ?", text, commentID, issueID)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comment not found: %d", commentID)
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, issueID, commentID int64) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM comments WHERE id = ? AND issue_id = ?", commentID, issueID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("comment not found: %d", commentID)
	}
	return nil
}

// --- Tags ---

func (s *Store) ListTags(ctx context.Context) ([]*Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag, color FROM tags ORDER BY tag")
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

func (s *Store) ListIssueTags(ctx context.Context, issueID int64) ([]*Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.tag, t.color FROM tags t
		JOIN issue_tags it ON it.tag = t.tag
		WHERE it.issue_id = ? ORDER BY t.tag`, issueID)
	if err != nil {
		return nil, fmt.Errorf("list issue tags: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanTags(rows)
}

func scanTags(rows *sql.Rows) ([]*Tag, error) {
	var tags []*Tag
	for rows.Next() {
		tag := &Tag{}
		if err := rows.Scan(&tag.Tag, &tag.Color); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// TagIssue attaches a tag to an issue, creating the tag in the catalog on
// first use.
func (s *Store) TagIssue(ctx context.Context, issueID int64, tag, color string) error {
	if _, err := s.GetIssue(ctx, issueID); err != nil {
		return err
	}
	if color == "" {
		color = "#49a3d8"
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO tags (tag, color) VALUES (?, ?) ON CONFLICT(tag) DO NOTHING", tag, color); err != nil {
		return fmt.Errorf("upsert tag: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO issue_tags (issue_id, tag) VALUES (?, ?) ON CONFLICT DO NOTHING", issueID, tag); err != nil {
		return fmt.Errorf("tag issue: %w", err)
	}
	return nil
}

func (s *Store) UntagIssue(ctx context.Context, issueID int64, tag string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM issue_tags WHERE issue_id = ? AND tag = ?", issueID, tag)
	if err != nil {
		return fmt.Errorf("untag issue: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("tag not on issue: %s", tag)
	}
	return nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, name, role string) (*User, error) {
	if role == "" {
		role = "Developer"
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, role) VALUES (?, ?)", name, role); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &User{Name: name, Role: role}, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, role FROM users ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []*User
	for rows.Next() {
		user := &User{}
		if err := rows.Scan(&user.Name, &user.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, name string) (*User, error) {
	user := &User{}
	err := s.db.QueryRowContext(ctx,
		"SELECT name, role FROM users WHERE name = ?", name).Scan(&user.Name, &user.Role)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// userColumns whitelists user fields for the per-field PATCH.
var userColumns = map[string]string{
	"name": "name",
	"role": "role",
}

func (s *Store) UpdateUserField(ctx context.Context, name, field, value string) error {
	column, ok := userColumns[field]
	if !ok {
		return fmt.Errorf("unknown user field: %s", field)
	}
	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE users SET %s = ? WHERE name = ?", column), value, name)
	if err != nil {
		return fmt.Errorf("update user field: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", name)
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, name string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("user not found: %s", name)
	}
	return nil
}

// AssignIssue sets assigned_to after checking the user exists.
func (s *Store) AssignIssue(ctx context.Context, userName string, issueID int64) error {
	if _, err := s.GetUser(ctx, userName); err != nil {
		return err
	}
	return s.UpdateIssueField(ctx, issueID, "assigned_to", userName)
}

// UnassignIssue clears assigned_to.
func (s *Store) UnassignIssue(ctx context.Context, issueID int64) error {
	return s.UpdateIssueField(ctx, issueID, "assigned_to", "")
}
