package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trackerlab/itc/internal/models"
	"github.com/trackerlab/itc/internal/output"
)

var userCreateRole string

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage tracker users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List users",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userListRun()
	},
}

var userCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userCreateRun(args[0])
	},
}

var userRoleCmd = &cobra.Command{
	Use:   "role <name> <role>",
	Short: "Change a user's role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userRoleRun(args[0], args[1])
	},
}

var userDeleteCmd = &cobra.Command{
	Use:     "delete <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a user",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return userDeleteRun(args[0])
	},
}

var userRolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List available roles",
	RunE: func(cmd *cobra.Command, args []string) error {
		return userRolesRun()
	},
}

func init() {
	userCreateCmd.Flags().StringVarP(&userCreateRole, "role", "r", "", "Role for the new user (default Developer)")

	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userRoleCmd)
	userCmd.AddCommand(userDeleteCmd)
	userCmd.AddCommand(userRolesCmd)
	rootCmd.AddCommand(userCmd)
}

func userListRun() error {
	users, err := getClient().ListUsers(context.Background())
	if err != nil {
		return err
	}

	if len(users) == 0 {
		ui.Info("No users. Use 'itc user create <name>' to create one.")
		return nil
	}

	table := ui.Table([]string{"Name", "Role"})
	for _, user := range users {
		_ = table.Append([]string{output.Cyan(user.Name), user.Role})
	}
	_ = table.Render()
	return nil
}

// availableRoles asks the backend for its role catalog, falling back to the
// fixed default set when the endpoint is unavailable.
func availableRoles(ctx context.Context) []string {
	roles, err := getClient().ListRoles(ctx)
	if err != nil || len(roles) == 0 {
		return models.DefaultRoles
	}
	return roles
}

func userCreateRun(name string) error {
	ctx := context.Background()

	// Duplicate names are rejected client-side so the failure message names
	// the conflict instead of surfacing a constraint error.
	existing, err := getClient().ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, user := range existing {
		if strings.EqualFold(user.Name, name) {
			return fmt.Errorf("user already exists: %s", user.Name)
		}
	}

	role := userCreateRole
	if role != "" {
		roles := availableRoles(ctx)
		valid := false
		for _, r := range roles {
			if strings.EqualFold(r, role) {
				role = r
				valid = true
				break
			}
		}
		if !valid {
			return fmt.Errorf("unknown role %q (available: %s)", role, strings.Join(roles, ", "))
		}
	}

	user, err := getClient().CreateUser(ctx, name, role)
	if err != nil {
		return err
	}
	ui.Success("Created user %s (%s)", user.Name, user.Role)
	return nil
}

func userRoleRun(name, role string) error {
	ctx := context.Background()
	if err := getClient().UpdateUserField(ctx, name, "role", role); err != nil {
		return err
	}
	ui.Success("User %s is now %s", name, role)
	return nil
}

func userDeleteRun(name string) error {
	if err := getClient().DeleteUser(context.Background(), name); err != nil {
		return err
	}
	ui.Success("Deleted user %s", name)
	return nil
}

func userRolesRun() error {
	for _, role := range availableRoles(context.Background()) {
		fmt.Fprintln(ui.Out, role)
	}
	return nil
}
