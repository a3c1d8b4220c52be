package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trackerlab/itc/internal/output"
	"github.com/trackerlab/itc/internal/session"
)

var commentCmd = &cobra.Command{
	Use:   "comment",
	Short: "Manage issue comments",
}

var commentListCmd = &cobra.Command{
	Use:     "list <issue-id>",
	Aliases: []string{"ls"},
	Short:   "List an issue's comments",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentListRun(args[0])
	},
}

var commentAddCmd = &cobra.Command{
	Use:   "add <issue-id> <text>",
	Short: "Add a comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentAddRun(args[0], args[1])
	},
}

var commentEditCmd = &cobra.Command{
	Use:   "edit <issue-id> <comment-id> <text>",
	Short: "Edit a comment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentEditRun(args[0], args[1], args[2])
	},
}

var commentDeleteCmd = &cobra.Command{
	Use:     "delete <issue-id> <comment-id>",
	Aliases: []string{"rm"},
	Short:   "Delete a comment",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return commentDeleteRun(args[0], args[1])
	},
}

func init() {
	commentCmd.AddCommand(commentListCmd)
	commentCmd.AddCommand(commentAddCmd)
	commentCmd.AddCommand(commentEditCmd)
	commentCmd.AddCommand(commentDeleteCmd)
	rootCmd.AddCommand(commentCmd)
}

func commentListRun(issueID string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	comments := sess.Working().Comments
	if len(comments) == 0 {
		ui.Info("No comments on issue %s", sess.Working().DisplayID())
		return nil
	}
	for _, comment := range comments {
		fmt.Fprintf(ui.Out, "%s (%s, %s): %s\n",
			output.Cyan("#"+comment.ID), comment.Author, comment.Date, comment.Text)
	}
	return nil
}

func commentAddRun(issueID, text string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	comment, err := sess.AddComment(ctx, text)
	if err != nil {
		return err
	}
	ui.Success("Added comment #%s to issue %s", comment.ID, sess.Working().DisplayID())
	return nil
}

func commentEditRun(issueID, commentID, text string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	if _, err := sess.BeginEdit(ctx, session.CommentField(commentID)); err != nil {
		return err
	}
	changed, err := sess.CommitEdit(ctx, text)
	if err != nil {
		return err
	}
	if !changed {
		ui.Info("Comment #%s unchanged", commentID)
		return nil
	}
	ui.Success("Updated comment #%s", commentID)
	return nil
}

func commentDeleteRun(issueID, commentID string) error {
	ctx := context.Background()
	sess, err := session.Open(ctx, newSessionConfig(ctx), issueID)
	if err != nil {
		return err
	}

	if err := sess.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	ui.Success("Deleted comment #%s", commentID)
	return nil
}
