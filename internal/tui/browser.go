package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"

	"github.com/trackerlab/itc/internal/models"
)

// issueItem adapts an issue to the bubbles list.
type issueItem struct {
	issue models.Issue
}

func (i issueItem) Title() string {
	return fmt.Sprintf("%s %s", i.issue.DisplayID(), i.issue.Title)
}

func (i issueItem) Description() string {
	parts := []string{string(i.issue.Status)}
	if i.issue.AssignedTo != "" {
		parts = append(parts, i.issue.AssignedTo)
	}
	if len(i.issue.Tags) > 0 {
		labels := make([]string, len(i.issue.Tags))
		for j, tag := range i.issue.Tags {
			labels[j] = tag.Label
		}
		parts = append(parts, strings.Join(labels, ", "))
	}
	return strings.Join(parts, " · ")
}

func (i issueItem) FilterValue() string {
	return i.issue.Title
}

func newBrowserList(database string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	title := "Issues"
	if database != "" {
		title = "Issues · " + database
	}
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.AdditionalShortHelpKeys = browserHelpKeys
	l.AdditionalFullHelpKeys = browserHelpKeys
	return l
}

func browserHelpKeys() []key.Binding {
	return []key.Binding{
		key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new issue")),
		key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	}
}

// issuesToItems keeps list order newest-first, matching the web front end.
func issuesToItems(issues []*models.Issue) []list.Item {
	items := make([]list.Item, 0, len(issues))
	for i := len(issues) - 1; i >= 0; i-- {
		items = append(items, issueItem{issue: *issues[i].Clone()})
	}
	return items
}

// applyUpdate patches (or prepends) one reconciled issue in the item list.
func applyUpdate(items []list.Item, issue models.Issue) []list.Item {
	for i, item := range items {
		existing, ok := item.(issueItem)
		if !ok {
			continue
		}
		if existing.issue.RawID != "" && existing.issue.RawID == issue.RawID {
			items[i] = issueItem{issue: issue}
			return items
		}
	}
	return append([]list.Item{issueItem{issue: issue}}, items...)
}
