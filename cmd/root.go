package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/trackerlab/itc/internal/api"
	"github.com/trackerlab/itc/internal/output"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	apiClient *api.Client

	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "itc",
	Short: "Issue tracker client - browse and edit issues from the terminal",
	Long: `itc is a terminal client for the issue tracker backend.
It lists, creates, and edits issues, comments, tags, and users, manages
tracker databases, and ships an interactive editing view plus a local
development server.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return issueListRun()
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/itc/config.yaml)")
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "itc")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ITC")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "itc")

	viper.SetDefault("api.base_url", api.DefaultBaseURL)
	viper.SetDefault("api.timeout", "10s")
	viper.SetDefault("author", "")
	viper.SetDefault("serve.addr", ":8600")
	viper.SetDefault("serve.data_dir", filepath.Join(defaultConfigDir, "data"))
	viper.SetDefault("serve.seed", "")

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
}

// getClient returns the shared API client, initializing it on first call.
func getClient() *api.Client {
	if apiClient != nil {
		return apiClient
	}

	timeout, err := time.ParseDuration(viper.GetString("api.timeout"))
	if err != nil || timeout <= 0 {
		timeout = 10 * time.Second
	}
	apiClient = api.New(viper.GetString("api.base_url"), timeout)
	return apiClient
}
