package tui

import (
	"testing"

	"github.com/charmbracelet/bubbles/list"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trackerlab/itc/internal/models"
)

func TestIssueItem_Render(t *testing.T) {
	item := issueItem{issue: models.Issue{
		RawID:      "12",
		Title:      "Fix login crash",
		Status:     models.StatusInProgress,
		AssignedTo: "Ana",
		Tags:       []models.Tag{{Label: "bug"}, {Label: "ui"}},
	}}

	assert.Equal(t, "#12 Fix login crash", item.Title())
	assert.Equal(t, "In-Progress · Ana · bug, ui", item.Description())
	assert.Equal(t, "Fix login crash", item.FilterValue())
}

func TestIssuesToItems_NewestFirst(t *testing.T) {
	items := issuesToItems([]*models.Issue{
		{RawID: "1", Title: "oldest"},
		{RawID: "2", Title: "newest"},
	})

	require.Len(t, items, 2)
	assert.Equal(t, "#2 newest", items[0].(issueItem).Title())
	assert.Equal(t, "#1 oldest", items[1].(issueItem).Title())
}

func TestApplyUpdate_PatchesExisting(t *testing.T) {
	items := []list.Item{
		issueItem{issue: models.Issue{RawID: "2", Title: "newest"}},
		issueItem{issue: models.Issue{RawID: "1", Title: "oldest"}},
	}

	items = applyUpdate(items, models.Issue{RawID: "1", Title: "oldest, renamed"})

	require.Len(t, items, 2)
	assert.Equal(t, "#1 oldest, renamed", items[1].(issueItem).Title())
}

func TestApplyUpdate_PrependsCreated(t *testing.T) {
	items := []list.Item{
		issueItem{issue: models.Issue{RawID: "1", Title: "existing"}},
	}

	items = applyUpdate(items, models.Issue{RawID: "7", Title: "fresh"})

	require.Len(t, items, 2)
	assert.Equal(t, "#7 fresh", items[0].(issueItem).Title())
}
