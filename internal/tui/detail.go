package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/trackerlab/itc/internal/session"
)

type detailMode int

const (
	modeView detailMode = iota
	modeTitle
	modeDescription
	modeComment
	modeNewComment
	modeAssignee
)

// detailModel is the issue detail view. It owns an editing session and maps
// key presses onto the session's edit machine; all state the view renders is
// read back from the session's working copy.
type detailModel struct {
	sess  *session.Session
	theme Theme

	mode    detailMode
	editRef string

	titleInput    textinput.Model
	assigneeInput textinput.Model
	descArea      textarea.Model
	commentArea   textarea.Model

	cursor int

	notice    string
	noticeErr bool

	width  int
	height int

	done      bool
	discarded bool
}

func newDetailModel(sess *session.Session, theme Theme) detailModel {
	title := textinput.New()
	title.CharLimit = 200

	assignee := textinput.New()
	assignee.Placeholder = "user name (empty to unassign)"
	assignee.CharLimit = 100

	desc := textarea.New()
	desc.SetHeight(6)

	comment := textarea.New()
	comment.Placeholder = "write a comment"
	comment.SetHeight(4)

	return detailModel{
		sess:          sess,
		theme:         theme,
		titleInput:    title,
		assigneeInput: assignee,
		descArea:      desc,
		commentArea:   comment,
	}
}

func (m detailModel) setSize(width, height int) detailModel {
	m.width = width
	m.height = height
	m.titleInput.Width = width - 4
	m.assigneeInput.Width = width - 4
	m.descArea.SetWidth(width - 4)
	m.commentArea.SetWidth(width - 4)
	return m
}

func (m detailModel) say(format string, a ...any) detailModel {
	m.notice = fmt.Sprintf(format, a...)
	m.noticeErr = false
	return m
}

func (m detailModel) fail(err error) detailModel {
	m.notice = err.Error()
	m.noticeErr = true
	return m
}

func (m detailModel) Update(msg tea.Msg) (detailModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case modeView:
		return m.updateView(key)
	case modeTitle:
		return m.updateTitle(key)
	case modeDescription:
		return m.updateDescription(key)
	case modeComment, modeNewComment:
		return m.updateComment(key)
	case modeAssignee:
		return m.updateAssignee(key)
	}
	return m, nil
}

func (m detailModel) updateView(key tea.KeyMsg) (detailModel, tea.Cmd) {
	ctx := context.Background()
	working := m.sess.Working()

	switch key.String() {
	case "t":
		original, err := m.sess.BeginEdit(ctx, session.TitleField)
		if err != nil {
			return m.fail(err), nil
		}
		m.mode = modeTitle
		m.titleInput.SetValue(original)
		m.titleInput.CursorEnd()
		m.titleInput.Focus()
		m.notice = ""

	case "e":
		original, err := m.sess.BeginEdit(ctx, session.DescriptionField)
		if err != nil {
			return m.fail(err), nil
		}
		m.mode = modeDescription
		m.descArea.SetValue(original)
		m.descArea.Focus()
		m.notice = ""

	case "s":
		status, err := m.sess.CycleStatus(ctx)
		if err != nil {
			return m.fail(err), nil
		}
		return m.say("status set to %s", status), nil

	case "a":
		m.mode = modeAssignee
		m.assigneeInput.SetValue(working.AssignedTo)
		m.assigneeInput.CursorEnd()
		m.assigneeInput.Focus()
		m.notice = ""

	case "c":
		m.mode = modeNewComment
		m.commentArea.Reset()
		m.commentArea.Focus()
		m.notice = ""

	case "j", "down":
		if m.cursor < len(working.Comments)-1 {
			m.cursor++
		}

	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}

	case "enter":
		if m.cursor >= len(working.Comments) {
			break
		}
		comment := working.Comments[m.cursor]
		ref := comment.ID
		if ref == "" {
			ref = comment.LocalID
		}
		original, err := m.sess.BeginEdit(ctx, session.CommentField(ref))
		if err != nil {
			return m.fail(err), nil
		}
		m.mode = modeComment
		m.editRef = ref
		m.commentArea.SetValue(original)
		m.commentArea.Focus()
		m.notice = ""

	case "d":
		if m.cursor >= len(working.Comments) {
			break
		}
		if err := m.sess.DeleteCommentAt(ctx, m.cursor); err != nil {
			return m.fail(err), nil
		}
		if m.cursor > 0 && m.cursor >= len(m.sess.Working().Comments) {
			m.cursor--
		}
		return m.say("comment deleted"), nil

	case "q", "esc":
		result, err := m.sess.Close(ctx)
		if err != nil {
			return m.fail(err), nil
		}
		if result != nil && result.Err() != nil {
			return m.fail(result.Err()), nil
		}
		m.done = true

	case "x":
		m.sess.Discard()
		m.done = true
		m.discarded = true
	}
	return m, nil
}

func (m detailModel) updateTitle(key tea.KeyMsg) (detailModel, tea.Cmd) {
	switch key.String() {
	case "enter":
		if _, err := m.sess.CommitEdit(context.Background(), m.titleInput.Value()); err != nil {
			return m.fail(err), nil
		}
		m.mode = modeView
		m.titleInput.Blur()
		return m, nil
	case "esc":
		_, _ = m.sess.CancelEdit()
		m.mode = modeView
		m.titleInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.titleInput, cmd = m.titleInput.Update(key)
	m.sess.SetPending(m.titleInput.Value())
	return m, cmd
}

func (m detailModel) updateDescription(key tea.KeyMsg) (detailModel, tea.Cmd) {
	switch key.String() {
	case "ctrl+s":
		if _, err := m.sess.CommitEdit(context.Background(), m.descArea.Value()); err != nil {
			return m.fail(err), nil
		}
		m.mode = modeView
		m.descArea.Blur()
		return m, nil
	case "esc":
		_, _ = m.sess.CancelEdit()
		m.mode = modeView
		m.descArea.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.descArea, cmd = m.descArea.Update(key)
	m.sess.SetPending(m.descArea.Value())
	return m, cmd
}

func (m detailModel) updateComment(key tea.KeyMsg) (detailModel, tea.Cmd) {
	ctx := context.Background()
	switch key.String() {
	case "ctrl+s":
		if m.mode == modeNewComment {
			if _, err := m.sess.AddComment(ctx, m.commentArea.Value()); err != nil {
				return m.fail(err), nil
			}
			m.cursor = len(m.sess.Working().Comments) - 1
		} else {
			if _, err := m.sess.CommitEdit(ctx, m.commentArea.Value()); err != nil {
				return m.fail(err), nil
			}
		}
		m.mode = modeView
		m.commentArea.Blur()
		return m, nil
	case "esc":
		if m.mode == modeComment {
			_, _ = m.sess.CancelEdit()
		}
		m.mode = modeView
		m.commentArea.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.commentArea, cmd = m.commentArea.Update(key)
	if m.mode == modeComment {
		m.sess.SetPending(m.commentArea.Value())
	}
	return m, cmd
}

func (m detailModel) updateAssignee(key tea.KeyMsg) (detailModel, tea.Cmd) {
	switch key.String() {
	case "enter":
		changed, err := m.sess.CommitAssignee(context.Background(), m.assigneeInput.Value())
		if err != nil {
			return m.fail(err), nil
		}
		m.mode = modeView
		m.assigneeInput.Blur()
		if changed {
			return m.say("assignee updated"), nil
		}
		return m, nil
	case "esc":
		m.mode = modeView
		m.assigneeInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.assigneeInput, cmd = m.assigneeInput.Update(key)
	return m, cmd
}

func (m detailModel) View() string {
	t := m.theme
	working := m.sess.Working()

	var b strings.Builder

	if m.mode == modeTitle {
		b.WriteString(t.Label.Render("Title: ") + m.titleInput.View() + "\n")
	} else {
		title := working.Title
		if title == "" {
			title = "(untitled)"
		}
		b.WriteString(t.Title.Render(fmt.Sprintf("%s %s", working.DisplayID(), title)) + "\n")
	}

	b.WriteString(t.Label.Render("Status: ") + t.Status(working.Status))
	b.WriteString("   " + t.Label.Render("Author: ") + t.Value.Render(displayName(working.Author)))
	if m.mode == modeAssignee {
		b.WriteString("\n" + t.Label.Render("Assignee: ") + m.assigneeInput.View() + "\n")
	} else {
		b.WriteString("   " + t.Label.Render("Assignee: ") + t.Value.Render(displayName(working.AssignedTo)) + "\n")
	}
	b.WriteString(t.Label.Render("Created: ") + t.Muted.Render(working.CreatedAt))
	if working.Database != "" {
		b.WriteString("   " + t.Muted.Render(working.Database))
	}
	b.WriteString("\n")

	if len(working.Tags) > 0 {
		labels := make([]string, len(working.Tags))
		for i, tag := range working.Tags {
			labels[i] = t.Tag.Render(tag.Label)
		}
		b.WriteString(t.Label.Render("Tags: ") + strings.Join(labels, " ") + "\n")
	}

	b.WriteString("\n" + t.Label.Render("Description") + "\n")
	if m.mode == modeDescription {
		b.WriteString(m.descArea.View() + "\n")
	} else if working.Description == "" {
		b.WriteString(t.Muted.Render("(no description)") + "\n")
	} else {
		b.WriteString(t.Value.Render(working.Description) + "\n")
	}

	b.WriteString("\n" + t.Label.Render(fmt.Sprintf("Comments (%d)", len(working.Comments))) + "\n")
	b.WriteString(m.viewComments())

	if m.mode == modeNewComment || m.mode == modeComment {
		b.WriteString(m.commentArea.View() + "\n")
	}

	if m.notice != "" {
		style := t.Notice
		if m.noticeErr {
			style = t.Error
		}
		b.WriteString("\n" + style.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + t.Help.Render(m.helpLine()))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m detailModel) viewComments() string {
	t := m.theme
	working := m.sess.Working()
	if len(working.Comments) == 0 {
		return t.Muted.Render("(none)") + "\n"
	}

	var b strings.Builder
	for i, comment := range working.Comments {
		marker := "  "
		style := t.Value
		if m.mode == modeView && i == m.cursor {
			marker = "> "
			style = t.Selected
		}
		meta := fmt.Sprintf("%s, %s", displayName(comment.Author), comment.Date)
		if !comment.Persisted() {
			meta += " (draft)"
		}
		b.WriteString(marker + t.Muted.Render(meta) + "\n")
		b.WriteString("  " + style.Render(comment.Text) + "\n")
	}
	return b.String()
}

func (m detailModel) helpLine() string {
	switch m.mode {
	case modeTitle, modeAssignee:
		return "enter commit · esc cancel"
	case modeDescription, modeComment, modeNewComment:
		return "ctrl+s commit · esc cancel"
	default:
		return "t title · e description · s status · a assign · c comment · enter edit comment · d delete comment · q save & close · x discard"
	}
}

func displayName(name string) string {
	if name == "" {
		return "Unassigned"
	}
	return name
}
