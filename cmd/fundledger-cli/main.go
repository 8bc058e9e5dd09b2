package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/reliefline/fundledger/client"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Stamped by the release build via ldflags.
var (
	version   = "1.1.0"
	commit    = ""
	buildDate = ""
)

const (
	defaultServerURL = "http://localhost:3040"
	envServerURL     = "FUNDLEDGER_URL"
	envAPIKey        = "FUNDLEDGER_API_KEY"
)

var (
	apiClient *client.Client
	flagURL   string
	flagKey   string
	flagFmt   string
)

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("fundledger version %s (commit: %s, built: %s)", version, commit, buildDate)
	}
	return fmt.Sprintf("fundledger version %s-dev", version)
}

// configFile is the on-disk CLI configuration. Profiles are the primary
// format; the flat url/api_key fields stay readable for configs written
// before profiles existed.
type configFile struct {
	URL           string                   `yaml:"url,omitempty"`
	APIKey        string                   `yaml:"api_key,omitempty"`
	Profiles      map[string]configProfile `yaml:"profiles"`
	ActiveProfile string                   `yaml:"active_profile"`
}

type configProfile struct {
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
}

// active returns the settings of the active profile, with the flat fields
// filling anything the profile leaves empty.
func (c *configFile) active() configProfile {
	resolved := configProfile{URL: c.URL, APIKey: c.APIKey}
	if c.Profiles == nil {
		return resolved
	}

	name := c.ActiveProfile
	if name == "" {
		name = "default"
	}
	if p, ok := c.Profiles[name]; ok {
		if p.URL != "" {
			resolved.URL = p.URL
		}
		if p.APIKey != "" {
			resolved.APIKey = p.APIKey
		}
	}
	return resolved
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fundledger", "config.yaml"), nil
}

// loadConfigFile reads ~/.fundledger/config.yaml. The path comes back even
// on error so callers can report where they looked.
func loadConfigFile() (string, *configFile, error) {
	path, err := configPath()
	if err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return path, nil, err
	}

	var cfg configFile
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return path, nil, err
	}
	return path, &cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:     "fundledger",
		Short:   "Budget ledger CLI for grant-funded relief projects",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			resolveConfig()
			var opts []client.Option
			if flagKey != "" {
				opts = append(opts, client.WithAPIKey(flagKey))
			}
			apiClient = client.New(flagURL, opts...)
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagURL, "url", defaultServerURL, "Fundledger server URL (env: FUNDLEDGER_URL)")
	rootCmd.PersistentFlags().StringVar(&flagKey, "api-key", "", "API key (env: FUNDLEDGER_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "json", "Output format (json, table, or quiet)")

	// init and doctor must run before any config or client exists, so they
	// opt out of the root PersistentPreRun.
	for _, setup := range []*cobra.Command{newInitCmd(), newDoctorCmd()} {
		setup.PersistentPreRun = func(cmd *cobra.Command, args []string) {}
		rootCmd.AddCommand(setup)
	}

	rootCmd.AddCommand(newBudgetCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newDisburseCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReconcileCmd())
	rootCmd.AddCommand(newNotificationsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveConfig fills flagURL and flagKey from env and the config file.
// An explicit flag always wins, then env, then the file.
func resolveConfig() {
	if flagURL == defaultServerURL {
		if v := os.Getenv(envServerURL); v != "" {
			flagURL = v
		}
	}
	if flagKey == "" {
		flagKey = os.Getenv(envAPIKey)
	}

	_, cfg, err := loadConfigFile()
	if err != nil {
		return
	}

	p := cfg.active()
	if flagURL == defaultServerURL && p.URL != "" {
		flagURL = p.URL
	}
	if flagKey == "" && p.APIKey != "" {
		flagKey = p.APIKey
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(1)
}
