package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInitCmd() *cobra.Command {
	var (
		initURL    string
		initAPIKey string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up fundledger CLI configuration",
		Long:  "Interactive setup wizard that creates ~/.fundledger/config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			nonInteractive := initURL != "" || initAPIKey != ""
			return runInit(initURL, initAPIKey, nonInteractive)
		},
	}

	cmd.Flags().StringVar(&initURL, "url", "", "Server URL (skips the wizard)")
	cmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key (skips the wizard)")
	return cmd
}

func promptLine(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// promptSetup walks the interactive wizard and returns what the user typed.
// Empty answers mean "use the default".
func promptSetup() (url, apiKey string) {
	fmt.Println("\n  Fundledger Setup")
	fmt.Println("  ────────────────")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	url = promptLine(reader, fmt.Sprintf("  Server URL [%s]: ", defaultServerURL))
	apiKey = promptLine(reader, "  API Key: ")
	return url, apiKey
}

func runInit(url, apiKey string, nonInteractive bool) error {
	if !nonInteractive {
		url, apiKey = promptSetup()
	}
	if url == "" {
		url = defaultServerURL
	}
	if apiKey == "" {
		return errors.New("API key is required")
	}

	if !nonInteractive {
		fmt.Print("\n  Checking server... ")
	}

	ver, err := verifySetup(url, apiKey)
	if err != nil {
		if !nonInteractive {
			fmt.Println("✗")
		}
		return fmt.Errorf("connection failed: %w", err)
	}

	if !nonInteractive {
		fmt.Printf("✓ connected (v%s)\n", ver)
	}

	cfgPath, err := writeConfig(url, apiKey)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if nonInteractive {
		fmt.Printf("Config saved to %s\n", cfgPath)
		return nil
	}

	printNextSteps(cfgPath)
	return nil
}

func printNextSteps(cfgPath string) {
	fmt.Printf("\n  ✓ Config saved to %s\n", cfgPath)
	fmt.Println()
	fmt.Println("  Next steps:")
	fmt.Println("    fundledger doctor      # Full diagnostic check")
	fmt.Println("    fundledger budget list # View your project budgets")
	fmt.Println("    fundledger --help      # See all commands")
	fmt.Println()
}

// verifySetup confirms the server is up and the key is accepted before
// anything gets written to disk.
func verifySetup(url, apiKey string) (string, error) {
	ver, err := probeHealth(url)
	if err != nil {
		return "", err
	}
	if err := probeAuth(url, apiKey); err != nil {
		return "", err
	}
	if ver == "" {
		ver = "unknown"
	}
	return ver, nil
}

func writeConfig(url, apiKey string) (string, error) {
	cfgPath, err := configPath()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(cfgPath), 0o700); err != nil {
		return "", err
	}

	cfg := configFile{
		Profiles: map[string]configProfile{
			"default": {URL: url, APIKey: apiKey},
		},
		ActiveProfile: "default",
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(cfgPath, data, 0o600); err != nil {
		return "", err
	}
	return cfgPath, nil
}
