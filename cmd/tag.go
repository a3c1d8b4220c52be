package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trackerlab/itc/internal/models"
	"github.com/trackerlab/itc/internal/output"
	"github.com/trackerlab/itc/internal/session"
)

var tagAddColor string

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage issue tags",
	Long:  "List the tag catalog and attach or detach tags on issues.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagListRun()
	},
}

var tagListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagListRun()
	},
}

var tagAddCmd = &cobra.Command{
	Use:   "add <issue-id> <tag>",
	Short: "Attach a tag to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagAddRun(args[0], args[1])
	},
}

var tagRemoveCmd = &cobra.Command{
	Use:     "remove <issue-id> <tag>",
	Aliases: []string{"rm"},
	Short:   "Detach a tag from an issue",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return tagRemoveRun(args[0], args[1])
	},
}

func init() {
	tagAddCmd.Flags().StringVar(&tagAddColor, "color", "", "Tag color as #rrggbb (default palette color)")

	tagCmd.AddCommand(tagListCmd)
	tagCmd.AddCommand(tagAddCmd)
	tagCmd.AddCommand(tagRemoveCmd)
	rootCmd.AddCommand(tagCmd)
}

func tagListRun() error {
	tags, err := getClient().ListTags(context.Background())
	if err != nil {
		return err
	}

	if len(tags) == 0 {
		ui.Info("No tags. Use 'itc tag add <issue-id> <tag>' to create one.")
		return nil
	}

	table := ui.Table([]string{"Tag", "Color"})
	for _, tag := range tags {
		_ = table.Append([]string{output.Cyan(tag.Label), tag.Color})
	}
	_ = table.Render()
	return nil
}

func tagAddRun(issueID, label string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	if err := sess.AddTag(ctx, models.Tag{Label: label, Color: tagAddColor}); err != nil {
		return err
	}
	ui.Success("Tagged issue %s with %s", sess.Working().DisplayID(), label)
	return nil
}

func tagRemoveRun(issueID, label string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	if err := sess.RemoveTag(ctx, label); err != nil {
		return err
	}
	ui.Success("Removed tag %s from issue %s", label, sess.Working().DisplayID())
	return nil
}
