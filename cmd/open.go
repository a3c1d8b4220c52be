package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trackerlab/itc/internal/tui"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open the interactive issue browser",
	Long: `Open the full-screen issue browser.

Select an issue to edit its title, description, status, assignee, tags,
and comments; changes to title and description are saved when the issue
is closed, everything else saves immediately.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return openRun()
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func openRun() error {
	client := getClient()
	database, _ := client.ActiveDatabase(context.Background())

	return tui.Run(tui.Config{
		Client:   client,
		Database: database,
		Author:   viper.GetString("author"),
	})
}
