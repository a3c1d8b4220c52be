package api

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/trackerlab/itc/internal/models"
)

// This file is the only translation layer between backend DTOs and the
// internal view-model. Backend field naming is not stable across versions
// (snake_case vs camelCase, numeric vs string ids, several status
// encodings), so every field is read through pick with its known aliases.
// Nothing outside this file inspects raw DTO keys.

// pick returns the first value among candidate keys that is present and
// non-nil, else fallback.
func pick(obj map[string]any, keys []string, fallback any) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return fallback
}

// asString renders a scalar DTO value as a string. JSON numbers arrive as
// float64; integral values are printed without an exponent or decimal point.
func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// normalizeID strips a leading '#' and coerces numeric forms to their
// canonical decimal string. Non-numeric ids pass through unchanged, so both
// numeric database ids and opaque string ids survive.
func normalizeID(v any) string {
	s := strings.TrimSpace(asString(v))
	s = strings.TrimPrefix(s, "#")
	if s == "" {
		return ""
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return s
}

// epochMillisBoundary separates epoch-second from epoch-millisecond values:
// anything at or above 1e12 is taken as milliseconds.
const epochMillisBoundary = 1e12

// formatDate renders a backend timestamp for display. It accepts epoch
// seconds, epoch milliseconds, RFC 3339, and plain dates; anything else
// degrades to "Unknown date" instead of failing the whole decode.
func formatDate(v any) string {
	switch t := v.(type) {
	case nil:
		return models.UnknownDate
	case float64:
		return formatEpoch(int64(t))
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return models.UnknownDate
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return formatEpoch(n)
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed.Format("2006-01-02")
			}
		}
		return models.UnknownDate
	default:
		return models.UnknownDate
	}
}

func formatEpoch(n int64) string {
	if n <= 0 {
		return models.UnknownDate
	}
	if n >= epochMillisBoundary {
		return time.UnixMilli(n).UTC().Format("2006-01-02")
	}
	return time.Unix(n, 0).UTC().Format("2006-01-02")
}

func decodeObject(data []byte) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode response object: %w", err)
	}
	return obj, nil
}

func decodeList(data []byte) ([]map[string]any, error) {
	var list []map[string]any
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode response list: %w", err)
	}
	return list, nil
}

func issueFromObject(obj map[string]any) *models.Issue {
	status, _ := models.ParseStatus(asString(pick(obj, []string{"status"}, "")))
	return &models.Issue{
		RawID:       normalizeID(pick(obj, []string{"id", "issueId", "issue_id"}, nil)),
		Title:       asString(pick(obj, []string{"title"}, "")),
		Description: asString(pick(obj, []string{"description"}, "")),
		Status:      status,
		Author:      asString(pick(obj, []string{"author", "authorId", "author_id"}, "")),
		AssignedTo:  asString(pick(obj, []string{"assignedTo", "assigned_to", "assignee"}, "")),
		Tags:        tagsFromValue(pick(obj, []string{"tags"}, nil)),
		CreatedAt:   formatDate(pick(obj, []string{"createdAt", "created_at", "timestamp"}, nil)),
	}
}

func commentFromObject(obj map[string]any) models.Comment {
	return models.Comment{
		ID:     normalizeID(pick(obj, []string{"id", "commentId", "comment_id"}, nil)),
		Author: asString(pick(obj, []string{"author", "authorId", "author_id"}, "")),
		Date:   formatDate(pick(obj, []string{"timestamp", "createdAt", "created_at", "date"}, nil)),
		Text:   asString(pick(obj, []string{"text", "body"}, "")),
	}
}

func tagFromObject(obj map[string]any) models.Tag {
	label := asString(pick(obj, []string{"tag", "label", "name"}, ""))
	if label == "" {
		label = "Tag"
	}
	color := asString(pick(obj, []string{"color"}, ""))
	if color == "" {
		color = models.DefaultTagColor
	}
	return models.Tag{Label: label, Color: color}
}

// tagsFromValue tolerates both tag-object lists and the bare string lists
// some backend versions return.
func tagsFromValue(v any) []models.Tag {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	tags := make([]models.Tag, 0, len(list))
	for _, item := range list {
		switch t := item.(type) {
		case map[string]any:
			tags = append(tags, tagFromObject(t))
		case string:
			if t != "" {
				tags = append(tags, models.Tag{Label: t, Color: models.DefaultTagColor})
			}
		}
	}
	return tags
}

func userFromObject(obj map[string]any) models.User {
	name := asString(pick(obj, []string{"name", "id", "username"}, ""))
	role := asString(pick(obj, []string{"role"}, ""))
	if role == "" {
		role = models.DefaultRoles[0]
	}
	return models.User{Name: name, Role: role}
}

func databaseFromObject(obj map[string]any) models.Database {
	active, _ := pick(obj, []string{"active"}, false).(bool)
	return models.Database{
		Name:   asString(pick(obj, []string{"name"}, "")),
		Active: active,
	}
}

// DecodeIssue translates a single issue DTO.
func DecodeIssue(data []byte) (*models.Issue, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return issueFromObject(obj), nil
}

// DecodeIssues translates an issue DTO list.
func DecodeIssues(data []byte) ([]*models.Issue, error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	issues := make([]*models.Issue, 0, len(list))
	for _, obj := range list {
		issues = append(issues, issueFromObject(obj))
	}
	return issues, nil
}

// DecodeComment translates a single comment DTO.
func DecodeComment(data []byte) (models.Comment, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return models.Comment{}, err
	}
	return commentFromObject(obj), nil
}

// DecodeComments translates a comment DTO list.
func DecodeComments(data []byte) ([]models.Comment, error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	comments := make([]models.Comment, 0, len(list))
	for _, obj := range list {
		comments = append(comments, commentFromObject(obj))
	}
	return comments, nil
}

// DecodeTags translates a tag DTO list.
func DecodeTags(data []byte) ([]models.Tag, error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	tags := make([]models.Tag, 0, len(list))
	for _, obj := range list {
		tags = append(tags, tagFromObject(obj))
	}
	return tags, nil
}

// DecodeUser translates a single user DTO.
func DecodeUser(data []byte) (models.User, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return models.User{}, err
	}
	return userFromObject(obj), nil
}

// DecodeUsers translates a user DTO list.
func DecodeUsers(data []byte) ([]models.User, error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(list))
	for _, obj := range list {
		users = append(users, userFromObject(obj))
	}
	return users, nil
}

// DecodeDatabases translates a database DTO list.
func DecodeDatabases(data []byte) ([]models.Database, error) {
	list, err := decodeList(data)
	if err != nil {
		return nil, err
	}
	dbs := make([]models.Database, 0, len(list))
	for _, obj := range list {
		dbs = append(dbs, databaseFromObject(obj))
	}
	return dbs, nil
}
