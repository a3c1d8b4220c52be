// Package devserver is a self-contained issue-tracker backend for local
// development and tests. It implements the same REST contract the client
// consumes in production, over SQLite database files, so the full client
// stack (normalization included) can be exercised without a deployed
// backend.
package devserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Server provides the REST handlers over a database manager.
type Server struct {
	manager *Manager
	log     *slog.Logger
}

// NewServer creates a server over the given manager. A nil logger disables
// request logging.
func NewServer(manager *Manager, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{manager: manager, log: logger}
}

// Router returns the http.Handler for all routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /issues", s.listIssues)
	mux.HandleFunc("POST /issues", s.createIssue)
	mux.HandleFunc("GET /issues/{id}", s.getIssue)
	mux.HandleFunc("PATCH /issues/{id}", s.updateIssueField)
	mux.HandleFunc("DELETE /issues/{id}", s.deleteIssue)
	mux.HandleFunc("PATCH /issues/{id}/unassign", s.unassignIssue)

	mux.HandleFunc("GET /issues/{id}/comments", s.listComments)
	mux.HandleFunc("POST /issues/{id}/comments", s.addComment)
	mux.HandleFunc("PATCH /issues/{id}/comments/{commentId}", s.updateComment)
	mux.HandleFunc("DELETE /issues/{id}/comments/{commentId}", s.deleteComment)

	mux.HandleFunc("GET /tags", s.listTags)
	mux.HandleFunc("GET /issues/{id}/tags", s.listIssueTags)
	mux.HandleFunc("POST /issues/{id}/tags", s.tagIssue)
	mux.HandleFunc("DELETE /issues/{id}/tags/{tag}", s.untagIssue)

	mux.HandleFunc("GET /users", s.listUsers)
	mux.HandleFunc("GET /users/roles", s.listRoles)
	mux.HandleFunc("POST /users", s.createUser)
	mux.HandleFunc("PATCH /users/{id}", s.updateUserField)
	mux.HandleFunc("DELETE /users/{id}", s.deleteUser)
	mux.HandleFunc("POST /users/{name}/issues", s.assignIssue)

	mux.HandleFunc("GET /databases", s.listDatabases)
	mux.HandleFunc("POST /databases", s.createDatabase)
	mux.HandleFunc("DELETE /databases/{name}", s.deleteDatabase)
	mux.HandleFunc("POST /databases/{name}/switch", s.switchDatabase)
	mux.HandleFunc("PATCH /databases/{name}", s.renameDatabase)

	return corsMiddleware(s.logMiddleware(mux))
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond).String(),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// errStatus maps store errors onto 404 vs 400 by message, matching the
// plain-text failure contract the client expects.
func errStatus(err error) int {
	if strings.Contains(err.Error(), "not found") {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimPrefix(r.PathValue(key), "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %q", r.PathValue(key))
	}
	return id, nil
}

// --- Wire DTOs (snake_case, matching the production backend) ---

type issueDTO struct {
	ID          int64    `json:"id"`
	AuthorID    string   `json:"author_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	AssignedTo  string   `json:"assigned_to"`
	Status      string   `json:"status"`
	Tags        []tagDTO `json:"tags,omitempty"`
	CreatedAt   int64    `json:"created_at"`
}

type commentDTO struct {
	ID        int64  `json:"id"`
	AuthorID  string `json:"author_id"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

type tagDTO struct {
	Tag   string `json:"tag"`
	Color string `json:"color"`
}

type userDTO struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type databaseDTO struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

func (s *Server) issueDTO(r *http.Request, issue *Issue) issueDTO {
	dto := issueDTO{
		ID:          issue.ID,
		AuthorID:    issue.AuthorID,
		Title:       issue.Title,
		Description: issue.Description,
		AssignedTo:  issue.AssignedTo,
		Status:      issue.Status,
		CreatedAt:   issue.CreatedAt,
	}
	if tags, err := s.manager.Store().ListIssueTags(r.Context(), issue.ID); err == nil {
		for _, tag := range tags {
			dto.Tags = append(dto.Tags, tagDTO{Tag: tag.Tag, Color: tag.Color})
		}
	}
	return dto
}

func commentToDTO(comment *Comment) commentDTO {
	return commentDTO{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Text:      comment.Text,
		Timestamp: comment.Timestamp,
	}
}

// --- Issues ---

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := s.manager.Store().ListIssues(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]issueDTO, 0, len(issues))
	for _, issue := range issues {
		dtos = append(dtos, s.issueDTO(r, issue))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) getIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	issue, err := s.manager.Store().GetIssue(r.Context(), id)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.issueDTO(r, issue))
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		AuthorID    string `json:"author_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	issue, err := s.manager.Store().CreateIssue(r.Context(), req.Title, req.Description, req.AuthorID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.issueDTO(r, issue))
}

func (s *Server) updateIssueField(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Field == "title" && strings.TrimSpace(req.Value) == "" {
		writeError(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if err := s.manager.Store().UpdateIssueField(r.Context(), id, req.Field, req.Value); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) deleteIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Store().DeleteIssue(r.Context(), id); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unassignIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Store().UnassignIssue(r.Context(), id); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// --- Comments ---

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	comments, err := s.manager.Store().ListComments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]commentDTO, 0, len(comments))
	for _, comment := range comments {
		dtos = append(dtos, commentToDTO(comment))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Text     string `json:"text"`
		AuthorID string `json:"author_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "comment text is required")
		return
	}
	comment, err := s.manager.Store().AddComment(r.Context(), id, req.Text, req.AuthorID)
	if err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, commentToDTO(comment))
}

func (s *Server) updateComment(w http.ResponseWriter, r *http.Request) {
	issueID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "comment text is required")
		return
	}
	if err := s.manager.Store().UpdateComment(r.Context(), issueID, commentID, req.Text); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	issueID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	commentID, err := pathID(r, "commentId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Store().DeleteComment(r.Context(), issueID, commentID); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Tags ---

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.manager.Store().ListTags(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]tagDTO, 0, len(tags))
	for _, tag := range tags {
		dtos = append(dtos, tagDTO{Tag: tag.Tag, Color: tag.Color})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) listIssueTags(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tags, err := s.manager.Store().ListIssueTags(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]tagDTO, 0, len(tags))
	for _, tag := range tags {
		dtos = append(dtos, tagDTO{Tag: tag.Tag, Color: tag.Color})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) tagIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req tagDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Tag) == "" {
		writeError(w, http.StatusBadRequest, "tag is required")
		return
	}
	if err := s.manager.Store().TagIssue(r.Context(), id, req.Tag, req.Color); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) untagIssue(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Store().UntagIssue(r.Context(), id, r.PathValue("tag")); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Users ---

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.manager.Store().ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]userDTO, 0, len(users))
	for _, user := range users {
		dtos = append(dtos, userDTO{Name: user.Name, Role: user.Role})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// roles is the fixed role catalog the production backend exposes.
var roles = []string{"Developer", "Owner", "Admin", "Viewer"}

func (s *Server) listRoles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, roles)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var req userDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	user, err := s.manager.Store().CreateUser(r.Context(), req.Name, req.Role)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, userDTO{Name: user.Name, Role: user.Role})
}

func (s *Server) updateUserField(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.manager.Store().UpdateUserField(r.Context(), r.PathValue("id"), req.Field, req.Value); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Store().DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) assignIssue(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IssueID any `json:"issue_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	issueID, err := coerceID(req.IssueID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.manager.Store().AssignIssue(r.Context(), r.PathValue("name"), issueID); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// coerceID accepts the numeric and string issue-id forms clients send.
func coerceID(v any) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimPrefix(t, "#"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid issue_id: %q", t)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("issue_id is required")
	}
}

// --- Databases ---

func (s *Server) listDatabases(w http.ResponseWriter, r *http.Request) {
	dbs, err := s.manager.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	dtos := make([]databaseDTO, 0, len(dbs))
	for _, db := range dbs {
		dtos = append(dtos, databaseDTO{Name: db.Name, Active: db.Active})
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) createDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.manager.Create(req.Name); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, databaseDTO{Name: withDBExt(req.Name)})
}

func (s *Server) deleteDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Delete(r.PathValue("name")); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) switchDatabase(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Switch(r.PathValue("name")); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) renameDatabase(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.manager.Rename(r.PathValue("name"), req.Name); err != nil {
		writeError(w, errStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
