// Package cmd contains the CLI commands for rosterctl.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/good-yellow-bee/rostergrid/internal/client"
)

const (
	envServer = "ROSTERCTL_SERVER"
	envToken  = "ROSTERCTL_TOKEN"
)

var (
	// Used for flags
	configPath string
	serverURL  string
	token      string
	output     string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rosterctl",
	Short: "rosterctl - volunteer roster client",
	Long: `rosterctl manages projects and rosters on a rostergrid server
through its JSON API.

Settings are read from ~/.rosterctl.yaml (server, token), then the
ROSTERCTL_SERVER and ROSTERCTL_TOKEN environment variables, then flags.

Examples:
  # List projects
  rosterctl project list

  # Create a project running 10:00 - 14:00
  rosterctl project create --name "Picnic" --start 10 --end 14

  # Show a roster and sign up
  rosterctl roster show <project-id>
  rosterctl roster assign <project-id> 10:00 Setup "Ann"`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath(), "config file path")
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "", "server URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVarP(&token, "token", "t", "", "API bearer token")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format (table, json)")
}

// cliConfig is the optional ~/.rosterctl.yaml file.
type cliConfig struct {
	Server string `yaml:"server"`
	Token  string `yaml:"token"`
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".rosterctl.yaml")
}

// loadCLIConfig reads path. A missing file is not an error.
func loadCLIConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// resolveSettings layers file, environment and flags, later wins.
func resolveSettings() (string, string, error) {
	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		return "", "", err
	}
	server, tok := cfg.Server, cfg.Token
	if v := os.Getenv(envServer); v != "" {
		server = v
	}
	if v := os.Getenv(envToken); v != "" {
		tok = v
	}
	if serverURL != "" {
		server = serverURL
	}
	if token != "" {
		tok = token
	}
	if server == "" {
		server = "http://localhost:8080"
	}
	return server, tok, nil
}

func newClient() (*client.Client, error) {
	server, tok, err := resolveSettings()
	if err != nil {
		return nil, err
	}
	return client.New(server, tok), nil
}

// GetOutput returns the output format.
func GetOutput() string {
	return output
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
