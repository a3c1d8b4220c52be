package api

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/trackerlab/itc/internal/models"
)

func TestDecodeIssue_SnakeCaseWire(t *testing.T) {
	data := []byte(`{
		"id": 12,
		"title": "Fix login crash",
		"description": "Stack trace attached",
		"status": "2",
		"author_id": "ana",
		"assigned_to": "bob",
		"created_at": 1757030400000,
		"tags": [{"tag": "bug", "color": "#ff0000"}]
	}`)

	issue, err := DecodeIssue(data)
	require.NoError(t, err)

	assert.Equal(t, "12", issue.RawID)
	assert.Equal(t, "Fix login crash", issue.Title)
	assert.Equal(t, "Stack trace attached", issue.Description)
	assert.Equal(t, models.StatusInProgress, issue.Status)
	assert.Equal(t, "ana", issue.Author)
	assert.Equal(t, "bob", issue.AssignedTo)
	assert.Equal(t, "2025-09-05", issue.CreatedAt)
	require.Len(t, issue.Tags, 1)
	assert.Equal(t, "bug", issue.Tags[0].Label)
	assert.Equal(t, "#ff0000", issue.Tags[0].Color)
}

func TestDecodeIssue_CamelCaseAliases(t *testing.T) {
	data := []byte(`{
		"issueId": "#34",
		"title": "Rename project",
		"authorId": "carol",
		"assignedTo": "dave",
		"createdAt": "2024-03-01T10:30:00Z",
		"status": "wip"
	}`)

	issue, err := DecodeIssue(data)
	require.NoError(t, err)

	assert.Equal(t, "34", issue.RawID)
	assert.Equal(t, "carol", issue.Author)
	assert.Equal(t, "dave", issue.AssignedTo)
	assert.Equal(t, "2024-03-01", issue.CreatedAt)
	assert.Equal(t, models.StatusInProgress, issue.Status)
}

func TestDecodeIssue_MissingFieldsDegrade(t *testing.T) {
	issue, err := DecodeIssue([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "", issue.RawID)
	assert.Equal(t, "", issue.Title)
	assert.Equal(t, models.StatusToBeDone, issue.Status)
	assert.Equal(t, models.UnknownDate, issue.CreatedAt)
	assert.Empty(t, issue.Tags)
}

func TestDecodeIssue_UnknownStatusPassesThrough(t *testing.T) {
	issue, err := DecodeIssue([]byte(`{"id": 1, "status": "Blocked"}`))
	require.NoError(t, err)
	assert.Equal(t, models.Status("Blocked"), issue.Status)
}

// Decoding a payload that already carries normalized values must not change
// them: a second pass through the normalizer is a fixed point for title,
// status, and tags.
func TestDecodeIssue_NormalizedIsStable(t *testing.T) {
	data := []byte(`{
		"id": "12",
		"title": "Fix login crash",
		"status": "In-Progress",
		"tags": [{"tag": "bug", "color": "#ff0000"}]
	}`)

	issue, err := DecodeIssue(data)
	require.NoError(t, err)
	again, err := DecodeIssue(data)
	require.NoError(t, err)

	assert.Equal(t, "Fix login crash", issue.Title)
	assert.Equal(t, models.StatusInProgress, issue.Status)
	assert.Equal(t, issue.Title, again.Title)
	assert.Equal(t, issue.Status, again.Status)
	assert.Equal(t, issue.Tags, again.Tags)

	reparsed, ok := models.ParseStatus(string(issue.Status))
	assert.True(t, ok)
	assert.Equal(t, issue.Status, reparsed)
}

func TestDecodeIssues_BareStringTags(t *testing.T) {
	issues, err := DecodeIssues([]byte(`[{"id": 1, "title": "a", "tags": ["bug", "ui"]}]`))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	require.Len(t, issues[0].Tags, 2)
	assert.Equal(t, "bug", issues[0].Tags[0].Label)
	assert.Equal(t, models.DefaultTagColor, issues[0].Tags[0].Color)
}

func TestNormalizeID(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"42", "42"},
		{"#42", "42"},
		{float64(42), "42"},
		{"007", "7"},
		{"abc-123", "abc-123"},
		{"", ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeID(tt.in), "in=%v", tt.in)
	}
}

// Numeric ids come back as their canonical decimal form whether the backend
// sends them as numbers, strings, or display-prefixed strings.
func TestNormalizeID_NumericForms(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(0, 1<<52).Draw(t, "n")
		want := strconv.FormatInt(n, 10)

		assert.Equal(t, want, normalizeID(want))
		assert.Equal(t, want, normalizeID("#"+want))
		assert.Equal(t, want, normalizeID(float64(n)))
	})
}

func TestFormatDate(t *testing.T) {
	epochSec := time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC).Unix()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"epoch seconds", float64(epochSec), "2023-06-15"},
		{"epoch millis", float64(epochSec * 1000), "2023-06-15"},
		{"epoch seconds as string", strconv.FormatInt(epochSec, 10), "2023-06-15"},
		{"rfc3339", "2023-06-15T12:00:00Z", "2023-06-15"},
		{"datetime", "2023-06-15 12:00:00", "2023-06-15"},
		{"date only", "2023-06-15", "2023-06-15"},
		{"nil", nil, models.UnknownDate},
		{"empty", "", models.UnknownDate},
		{"garbage", "yesterday-ish", models.UnknownDate},
		{"zero", float64(0), models.UnknownDate},
		{"negative", float64(-1), models.UnknownDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatDate(tt.in))
		})
	}
}

// Any decodable payload yields a renderable date: either a concrete day or
// the fallback label, never an error or empty string.
func TestFormatDate_NeverEmpty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var v any
		if rapid.Bool().Draw(t, "numeric") {
			v = rapid.Float64().Draw(t, "f")
		} else {
			v = rapid.String().Draw(t, "s")
		}
		assert.NotEmpty(t, formatDate(v))
	})
}

func TestDecodeComment_TimestampAliases(t *testing.T) {
	comment, err := DecodeComment([]byte(`{"id": 3, "author_id": "ana", "text": "hi", "timestamp": 1757030400000}`))
	require.NoError(t, err)
	assert.Equal(t, "3", comment.ID)
	assert.Equal(t, "ana", comment.Author)
	assert.Equal(t, "hi", comment.Text)
	assert.Equal(t, "2025-09-05", comment.Date)
}

func TestDecodeTags_Fallbacks(t *testing.T) {
	tags, err := DecodeTags([]byte(`[{"tag": "bug"}, {"color": "#123456"}]`))
	require.NoError(t, err)
	require.Len(t, tags, 2)

	assert.Equal(t, "bug", tags[0].Label)
	assert.Equal(t, models.DefaultTagColor, tags[0].Color)

	assert.Equal(t, "Tag", tags[1].Label)
	assert.Equal(t, "#123456", tags[1].Color)
}

func TestDecodeUsers_RoleFallback(t *testing.T) {
	users, err := DecodeUsers([]byte(`[{"name": "ana", "role": "Owner"}, {"name": "bob"}]`))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Owner", users[0].Role)
	assert.Equal(t, models.DefaultRoles[0], users[1].Role)
}

func TestDecodeDatabases(t *testing.T) {
	dbs, err := DecodeDatabases([]byte(`[{"name": "main.db", "active": true}, {"name": "side.db", "active": false}]`))
	require.NoError(t, err)
	require.Len(t, dbs, 2)
	assert.True(t, dbs[0].Active)
	assert.False(t, dbs[1].Active)
}
