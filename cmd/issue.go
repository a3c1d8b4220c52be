package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trackerlab/itc/internal/models"
	"github.com/trackerlab/itc/internal/output"
	"github.com/trackerlab/itc/internal/session"
)

var (
	issueListStatus string
	issueListSearch string

	issueCreateDescription string
	issueCreateTags        []string
	issueCreateAssignee    string

	issueUpdateTitle       string
	issueUpdateDescription string
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Manage issues",
	Long:  "List, create, edit, and delete issues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	},
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one issue with comments and tags",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueShowRun(args[0])
	},
}

var issueCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a new issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueCreateRun(args[0])
	},
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an issue's title or description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueUpdateRun(args[0])
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete an issue",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueDeleteRun(args[0])
	},
}

var issueStatusCmd = &cobra.Command{
	Use:   "status <id> [status]",
	Short: "Set or cycle an issue's status",
	Long: `Set an issue's status, or cycle to the next one when no status is given.

Accepts the canonical labels (To-Be-Done, In-Progress, Done) and their
common synonyms (todo, open, wip, closed, resolved, 1/2/3).`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		status := ""
		if len(args) == 2 {
			status = args[1]
		}
		return issueStatusRun(args[0], status)
	},
}

var issueAssignCmd = &cobra.Command{
	Use:   "assign <id> <user>",
	Short: "Assign an issue to a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAssignRun(args[0], args[1])
	},
}

var issueUnassignCmd = &cobra.Command{
	Use:   "unassign <id>",
	Short: "Clear an issue's assignee",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return issueAssignRun(args[0], "")
	},
}

func init() {
	issueListCmd.Flags().StringVar(&issueListStatus, "status", "", "Filter by status")
	issueListCmd.Flags().StringVar(&issueListSearch, "search", "", "Filter by title, description, assignee, or tag substring")

	issueCreateCmd.Flags().StringVarP(&issueCreateDescription, "description", "d", "", "Issue description")
	issueCreateCmd.Flags().StringSliceVarP(&issueCreateTags, "tag", "t", nil, "Tag to attach (repeatable)")
	issueCreateCmd.Flags().StringVarP(&issueCreateAssignee, "assign", "a", "", "Assignee user name")

	issueUpdateCmd.Flags().StringVar(&issueUpdateTitle, "title", "", "New title")
	issueUpdateCmd.Flags().StringVar(&issueUpdateDescription, "description", "", "New description")

	issueCmd.AddCommand(issueListCmd)
	issueCmd.AddCommand(issueShowCmd)
	issueCmd.AddCommand(issueCreateCmd)
	issueCmd.AddCommand(issueUpdateCmd)
	issueCmd.AddCommand(issueDeleteCmd)
	issueCmd.AddCommand(issueStatusCmd)
	issueCmd.AddCommand(issueAssignCmd)
	issueCmd.AddCommand(issueUnassignCmd)
	rootCmd.AddCommand(issueCmd)
}

// newSessionConfig builds the per-session wiring for command-driven edits.
func newSessionConfig(ctx context.Context) session.Config {
	client := getClient()
	database, _ := client.ActiveDatabase(ctx)
	return session.Config{
		Backend:        client,
		ActiveDatabase: database,
		DefaultAuthor:  viper.GetString("author"),
	}
}

func issueListRun() error {
	ctx := context.Background()
	issues, err := getClient().ListIssues(ctx)
	if err != nil {
		return err
	}

	wantStatus, _ := models.ParseStatus(issueListStatus)
	search := strings.ToLower(issueListSearch)

	var filtered []*models.Issue
	counts := map[models.Status]int{}
	for _, issue := range issues {
		counts[issue.Status]++
		if issueListStatus != "" && issue.Status != wantStatus {
			continue
		}
		if search != "" && !issueMatches(issue, search) {
			continue
		}
		filtered = append(filtered, issue)
	}

	if len(filtered) == 0 {
		ui.Info("No issues. Use 'itc issue create <title>' to create one.")
		return nil
	}

	table := ui.Table([]string{"ID", "Title", "Status", "Assignee", "Tags", "Created"})
	for i := len(filtered) - 1; i >= 0; i-- {
		issue := filtered[i]
		_ = table.Append([]string{
			output.Cyan(issue.DisplayID()),
			issue.Title,
			output.StatusColor(issue.Status),
			output.Assignee(issue.AssignedTo),
			output.TagList(issue.Tags),
			issue.CreatedAt,
		})
	}
	_ = table.Render()

	parts := make([]string, 0, len(models.CanonicalStatuses))
	for _, status := range models.CanonicalStatuses {
		parts = append(parts, fmt.Sprintf("%s: %d", status, counts[status]))
	}
	ui.Info("%d issues (%s)", len(filtered), strings.Join(parts, ", "))
	return nil
}

// issueMatches reports whether a lowercased search term appears in the
// issue's title, description, assignee, or any tag label.
func issueMatches(issue *models.Issue, search string) bool {
	if strings.Contains(strings.ToLower(issue.Title), search) ||
		strings.Contains(strings.ToLower(issue.Description), search) ||
		strings.Contains(strings.ToLower(issue.AssignedTo), search) {
		return true
	}
	for _, tag := range issue.Tags {
		if strings.Contains(strings.ToLower(tag.Label), search) {
			return true
		}
	}
	return false
}

func issueShowRun(id string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), id)
	if err != nil {
		return err
	}
	issue := sess.Working()

	fmt.Fprintf(ui.Out, "%s %s\n", output.Cyan(issue.DisplayID()), issue.Title)
	fmt.Fprintf(ui.Out, "Status:   %s\n", output.StatusColor(issue.Status))
	fmt.Fprintf(ui.Out, "Author:   %s\n", output.Assignee(issue.Author))
	fmt.Fprintf(ui.Out, "Assignee: %s\n", output.Assignee(issue.AssignedTo))
	fmt.Fprintf(ui.Out, "Tags:     %s\n", output.TagList(issue.Tags))
	fmt.Fprintf(ui.Out, "Created:  %s\n", issue.CreatedAt)
	if issue.Database != "" {
		fmt.Fprintf(ui.Out, "Database: %s\n", issue.Database)
	}
	if issue.Description != "" {
		fmt.Fprintf(ui.Out, "\n%s\n", issue.Description)
	}

	if len(issue.Comments) > 0 {
		fmt.Fprintf(ui.Out, "\nComments (%d):\n", len(issue.Comments))
		for _, comment := range issue.Comments {
			fmt.Fprintf(ui.Out, "  %s (%s, %s): %s\n",
				output.Cyan("#"+comment.ID), comment.Author, comment.Date, comment.Text)
		}
	}
	return nil
}

func issueCreateRun(title string) error {
	ctx := context.Background()
	sess := session.New(newSessionConfig(ctx))

	if _, err := sess.BeginEdit(ctx, session.TitleField); err != nil {
		return err
	}
	if _, err := sess.CommitEdit(ctx, title); err != nil {
		return err
	}
	if issueCreateDescription != "" {
		if _, err := sess.BeginEdit(ctx, session.DescriptionField); err != nil {
			return err
		}
		if _, err := sess.CommitEdit(ctx, issueCreateDescription); err != nil {
			return err
		}
	}
	for _, label := range issueCreateTags {
		if err := sess.AddTag(ctx, models.Tag{Label: label}); err != nil {
			return err
		}
	}
	if issueCreateAssignee != "" {
		if _, err := sess.CommitAssignee(ctx, issueCreateAssignee); err != nil {
			return err
		}
	}

	result, err := sess.Save(ctx)
	if result != nil {
		reportOutcomes(result)
	}
	if err != nil {
		return err
	}
	ui.Success("Created issue %s: %s", result.Issue.DisplayID(), result.Issue.Title)
	return nil
}

func issueUpdateRun(id string) error {
	if issueUpdateTitle == "" && issueUpdateDescription == "" {
		return fmt.Errorf("nothing to update: pass --title and/or --description")
	}

	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), id)
	if err != nil {
		return err
	}

	if issueUpdateTitle != "" {
		if _, err := sess.BeginEdit(ctx, session.TitleField); err != nil {
			return err
		}
		if _, err := sess.CommitEdit(ctx, issueUpdateTitle); err != nil {
			return err
		}
	}
	if issueUpdateDescription != "" {
		if _, err := sess.BeginEdit(ctx, session.DescriptionField); err != nil {
			return err
		}
		if _, err := sess.CommitEdit(ctx, issueUpdateDescription); err != nil {
			return err
		}
	}

	result, err := sess.Save(ctx)
	if result != nil {
		reportOutcomes(result)
	}
	if err != nil {
		return err
	}
	if len(result.Outcomes) == 0 {
		ui.Info("No changes for issue %s", result.Issue.DisplayID())
		return nil
	}
	ui.Success("Updated issue %s", result.Issue.DisplayID())
	return nil
}

func issueDeleteRun(id string) error {
	ctx := context.Background()
	if err := getClient().DeleteIssue(ctx, strings.TrimPrefix(id, "#")); err != nil {
		return err
	}
	ui.Success("Deleted issue #%s", strings.TrimPrefix(id, "#"))
	return nil
}

func issueStatusRun(id, raw string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), id)
	if err != nil {
		return err
	}

	if raw == "" {
		next, err := sess.CycleStatus(ctx)
		if err != nil {
			return err
		}
		ui.Success("Issue %s is now %s", sess.Working().DisplayID(), output.StatusColor(next))
		return nil
	}

	status, known := models.ParseStatus(raw)
	if !known {
		ui.Warning("Unknown status %q, storing it as-is", raw)
	}
	if err := sess.SetStatus(ctx, status); err != nil {
		return err
	}
	ui.Success("Issue %s is now %s", sess.Working().DisplayID(), output.StatusColor(status))
	return nil
}

func issueAssignRun(id, user string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), id)
	if err != nil {
		return err
	}

	changed, err := sess.CommitAssignee(ctx, user)
	if err != nil {
		return err
	}
	assignee := sess.Working().AssignedTo
	if !changed {
		ui.Info("Issue %s already assigned to %s", sess.Working().DisplayID(), output.Assignee(assignee))
		return nil
	}
	if assignee == "" {
		ui.Success("Issue %s unassigned", sess.Working().DisplayID())
		return nil
	}
	ui.Success("Issue %s assigned to %s", sess.Working().DisplayID(), assignee)
	return nil
}

// reportOutcomes surfaces partial save failures; the non-atomic per-field
// policy means some writes can land while others fail.
func reportOutcomes(result *session.SaveResult) {
	for _, outcome := range result.Outcomes {
		if outcome.Err != nil {
			ui.Warning("Could not save %s: %v", outcome.Field, outcome.Err)
		} else {
			ui.VerboseLog("saved %s", outcome.Field)
		}
	}
}
