// Package tui is the interactive terminal front end: an issue browser over
// the tracker API with a detail view for editing a single issue.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/trackerlab/itc/internal/api"
	"github.com/trackerlab/itc/internal/models"
	"github.com/trackerlab/itc/internal/session"
)

// Config wires the TUI to a backend.
type Config struct {
	Client *api.Client

	// Database is the active database name, shown in headers and stamped on
	// opened issues.
	Database string

	// Author is the preferred author for created issues and comments.
	Author string
}

// Run starts the interactive browser and blocks until the user quits.
func Run(cfg Config) error {
	p := tea.NewProgram(newModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

type viewState int

const (
	stateBrowse viewState = iota
	stateDetail
)

// updateBuffer collects reconciled issues emitted by the session's update
// callback. It lives behind a pointer so the callback closure survives the
// value copies bubbletea makes of the model.
type updateBuffer struct {
	issues []models.Issue
}

type issuesLoadedMsg struct {
	issues []*models.Issue
}

type sessionOpenedMsg struct {
	sess *session.Session
}

type errMsg struct {
	err error
}

type model struct {
	cfg     Config
	theme   Theme
	state   viewState
	browser list.Model
	loading bool
	detail  detailModel
	updates *updateBuffer

	width  int
	height int

	err error
}

func newModel(cfg Config) model {
	return model{
		cfg:     cfg,
		theme:   DefaultTheme(),
		browser: newBrowserList(cfg.Database),
		loading: true,
		updates: &updateBuffer{},
	}
}

func (m model) Init() tea.Cmd {
	return m.loadIssues()
}

func (m model) loadIssues() tea.Cmd {
	client := m.cfg.Client
	return func() tea.Msg {
		issues, err := client.ListIssues(context.Background())
		if err != nil {
			return errMsg{err: err}
		}
		return issuesLoadedMsg{issues: issues}
	}
}

// openIssue loads comments and tags for the selected issue and builds its
// editing session.
func (m model) openIssue(issue models.Issue) tea.Cmd {
	cfg := m.sessionConfig()
	return func() tea.Msg {
		sess, err := session.Open(context.Background(), cfg, issue.RawID)
		if err != nil {
			return errMsg{err: err}
		}
		return sessionOpenedMsg{sess: sess}
	}
}

func (m model) sessionConfig() session.Config {
	buf := m.updates
	return session.Config{
		Backend:        m.cfg.Client,
		ActiveDatabase: m.cfg.Database,
		DefaultAuthor:  m.cfg.Author,
		OnUpdate: func(issue models.Issue) {
			buf.issues = append(buf.issues, issue)
		},
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.browser.SetSize(msg.Width, msg.Height)
		m.detail = m.detail.setSize(msg.Width, msg.Height)
		return m, nil

	case issuesLoadedMsg:
		m.loading = false
		m.err = nil
		m.browser.SetItems(issuesToItems(msg.issues))
		return m, nil

	case sessionOpenedMsg:
		m.state = stateDetail
		m.detail = newDetailModel(msg.sess, m.theme).setSize(m.width, m.height)
		return m, nil

	case errMsg:
		m.loading = false
		m.err = msg.err
		return m, nil
	}

	if m.state == stateDetail {
		return m.updateDetail(msg)
	}
	return m.updateBrowse(msg)
}

func (m model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && !m.browser.SettingFilter() {
		switch key.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "r":
			m.loading = true
			return m, m.loadIssues()

		case "n":
			sess := session.New(m.sessionConfig())
			m.state = stateDetail
			m.detail = newDetailModel(sess, m.theme).setSize(m.width, m.height)
			return m, nil

		case "enter":
			item, ok := m.browser.SelectedItem().(issueItem)
			if !ok {
				return m, nil
			}
			return m, m.openIssue(item.issue)
		}
	}

	var cmd tea.Cmd
	m.browser, cmd = m.browser.Update(msg)
	return m, cmd
}

func (m model) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	if m.detail.done {
		m.state = stateBrowse
		m.drainUpdates()
	}
	return m, cmd
}

// drainUpdates folds callback-reported issues back into the browser list so
// returning from the detail view shows reconciled state without a refetch.
func (m *model) drainUpdates() {
	if len(m.updates.issues) == 0 {
		return
	}
	items := m.browser.Items()
	for _, issue := range m.updates.issues {
		items = applyUpdate(items, issue)
	}
	m.browser.SetItems(items)
	m.updates.issues = nil
}

func (m model) View() string {
	if m.state == stateDetail {
		return m.detail.View()
	}
	if m.err != nil {
		return m.theme.Error.Render("error: "+m.err.Error()) + "\n" +
			m.theme.Help.Render("r retry · q quit")
	}
	if m.loading {
		return m.theme.Muted.Render("loading issues...")
	}
	return m.browser.View()
}
