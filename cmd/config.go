package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "itc"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage itc configuration.

Running bare 'itc config' is the same as 'itc config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# itc configuration
# See: itc config show (for effective values)

# Tracker API
api:
  # Backend base URL (default: {{ .BaseURL }})
  base_url: "{{ .BaseURL }}"
  # Request timeout (default: {{ .Timeout }})
  timeout: "{{ .Timeout }}"

# Preferred author for created issues and comments.
# Empty means the first user in the directory.
author: "{{ .Author }}"

# Local development server (itc serve)
serve:
  # Listen address (default: {{ .ServeAddr }})
  addr: "{{ .ServeAddr }}"
  # Directory for database files
  data_dir: "{{ .ServeDataDir }}"
  # YAML seed file applied to an empty database (optional)
  seed: "{{ .ServeSeed }}"
`

func configInitRun() error {
	configDir, err := configDirFunc()
	if err != nil {
		return fmt.Errorf("cannot find config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, map[string]string{
		"BaseURL":      viper.GetString("api.base_url"),
		"Timeout":      viper.GetString("api.timeout"),
		"Author":       viper.GetString("author"),
		"ServeAddr":    viper.GetString("serve.addr"),
		"ServeDataDir": viper.GetString("serve.data_dir"),
		"ServeSeed":    viper.GetString("serve.seed"),
	})
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	ui.Success("Created %s", configPath)
	return nil
}

func configShowRun() error {
	for _, key := range []string{
		"api.base_url",
		"api.timeout",
		"author",
		"serve.addr",
		"serve.data_dir",
		"serve.seed",
	} {
		fmt.Fprintf(ui.Out, "%-16s %s\n", key, viper.GetString(key))
	}
	if file := viper.ConfigFileUsed(); file != "" {
		ui.VerboseLog("config file: %s", file)
	}
	return nil
}

func configEditRun() error {
	configDir, err := configDirFunc()
	if err != nil {
		return fmt.Errorf("cannot find config directory: %w", err)
	}
	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err != nil {
		return fmt.Errorf("no config file at %s (run 'itc config init' first)", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi"
	}

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
