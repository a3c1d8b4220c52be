package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trackerlab/itc/internal/devserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local development backend",
	Long: `Start a local tracker backend over SQLite database files.

The server implements the same REST contract as the production backend,
so 'itc' commands and the interactive browser work against it unchanged.
Database files live in the data directory; one is active at a time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun()
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default :8600)")
	serveCmd.Flags().String("data-dir", "", "Directory for database files")
	serveCmd.Flags().String("seed", "", "YAML seed file applied to an empty database")
	_ = viper.BindPFlag("serve.addr", serveCmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("serve.data_dir", serveCmd.Flags().Lookup("data-dir"))
	_ = viper.BindPFlag("serve.seed", serveCmd.Flags().Lookup("seed"))

	rootCmd.AddCommand(serveCmd)
}

func serveRun() error {
	addr := viper.GetString("serve.addr")
	dataDir := viper.GetString("serve.data_dir")

	manager, err := devserver.NewManager(dataDir)
	if err != nil {
		return err
	}
	defer func() { _ = manager.Close() }()

	if seedPath := viper.GetString("serve.seed"); seedPath != "" {
		seed, err := devserver.LoadSeedFile(seedPath)
		if err != nil {
			return err
		}
		if err := manager.Seed(context.Background(), seed); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
		ui.VerboseLog("seed applied from %s", seedPath)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	server := devserver.NewServer(manager, logger)

	ui.Info("Serving tracker API at http://localhost%s (database %s)", addr, manager.Active())
	return http.ListenAndServe(addr, server.Router())
}
