package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trackerlab/itc/internal/output"
)

var databaseCmd = &cobra.Command{
	Use:     "database",
	Aliases: []string{"db"},
	Short:   "Manage tracker databases",
	Long: `Manage the tracker's database files.

One database is active at a time; all issue, comment, tag, and user
operations run against it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseListRun()
	},
}

var databaseListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseListRun()
	},
}

var databaseCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new database",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseCreateRun(args[0])
	},
}

var databaseSwitchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Make a database active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseSwitchRun(args[0])
	},
}

var databaseRenameCmd = &cobra.Command{
	Use:   "rename <old> <new>",
	Short: "Rename a database",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseRenameRun(args[0], args[1])
	},
}

var databaseDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a database",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return databaseDeleteRun(args[0])
	},
}

func init() {
	databaseCmd.AddCommand(databaseListCmd)
	databaseCmd.AddCommand(databaseCreateCmd)
	databaseCmd.AddCommand(databaseSwitchCmd)
	databaseCmd.AddCommand(databaseRenameCmd)
	databaseCmd.AddCommand(databaseDeleteCmd)
	rootCmd.AddCommand(databaseCmd)
}

func databaseListRun() error {
	databases, err := getClient().ListDatabases(context.Background())
	if err != nil {
		return err
	}

	if len(databases) == 0 {
		ui.Info("No databases.")
		return nil
	}

	table := ui.Table([]string{"Name", "Active"})
	for _, db := range databases {
		active := ""
		if db.Active {
			active = output.Green("active")
		}
		_ = table.Append([]string{output.Cyan(db.Name), active})
	}
	_ = table.Render()
	return nil
}

func databaseCreateRun(name string) error {
	if err := getClient().CreateDatabase(context.Background(), name); err != nil {
		return err
	}
	ui.Success("Created database %s", name)
	ui.Info("Use 'itc database switch %s' to make it active", name)
	return nil
}

func databaseSwitchRun(name string) error {
	if err := getClient().SwitchDatabase(context.Background(), name); err != nil {
		return err
	}
	ui.Success("Switched to database %s", name)
	return nil
}

func databaseRenameRun(oldName, newName string) error {
	if err := getClient().RenameDatabase(context.Background(), oldName, newName); err != nil {
		return err
	}
	ui.Success("Renamed database %s to %s", oldName, newName)
	return nil
}

func databaseDeleteRun(name string) error {
	if err := getClient().DeleteDatabase(context.Background(), name); err != nil {
		return err
	}
	ui.Success("Deleted database %s", name)
	return nil
}
