package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

const probeTimeout = 5 * time.Second

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check local config and server connectivity",
		Long:  "Walk through config file, server, and API key checks and report each one",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

// diagnosis prints check outcomes as they happen and counts failures.
type diagnosis struct {
	failed int
}

func (d *diagnosis) pass(name, detail string) {
	if detail != "" {
		fmt.Printf("✅ %s: %s\n", name, detail)
		return
	}
	fmt.Printf("✅ %s\n", name)
}

func (d *diagnosis) fail(name, detail, hint string) {
	d.failed++
	if detail != "" {
		fmt.Printf("❌ %s: %s\n", name, detail)
	} else {
		fmt.Printf("❌ %s\n", name)
	}
	if hint != "" {
		fmt.Printf("   Hint: %s\n", hint)
	}
}

func runDoctor() error {
	fmt.Println("\nFundledger Doctor")
	fmt.Println("=================")
	fmt.Println()

	var d diagnosis

	cfgPath, cfg, err := loadConfigFile()
	if err != nil {
		d.fail("Config file", cfgPath, "Run: fundledger init")
	} else {
		d.pass("Config file", fmt.Sprintf("found (%s)", cfgPath))
	}

	url, apiKey := doctorSettings(cfg)

	if url == "" {
		d.fail("Server URL", "", "Set --url, FUNDLEDGER_URL, or run fundledger init")
	} else {
		d.pass("Server URL", url)
	}

	if apiKey == "" {
		d.fail("API key", "", "Set --api-key, FUNDLEDGER_API_KEY, or run fundledger init")
	} else {
		d.pass("API key", "configured")
	}

	if url != "" {
		switch ver, err := probeHealth(url); {
		case err != nil:
			d.fail("Server reachable", url,
				fmt.Sprintf("Is the fundledger server running? Try: systemctl status fundledgerd\n   Error: %v", err))
		case ver != "":
			d.pass("Server reachable", "v"+ver)
		default:
			d.pass("Server reachable", url)
		}
	}

	if url != "" && apiKey != "" {
		if err := probeAuth(url, apiKey); err != nil {
			d.fail("Authentication", "", fmt.Sprintf("Check your API key. Error: %v", err))
		} else {
			d.pass("Authentication", "valid")
		}
	}

	fmt.Println()
	if d.failed > 0 {
		fmt.Println("❌ Doctor found problems, see above.")
		return fmt.Errorf("doctor found %d failing check(s)", d.failed)
	}
	fmt.Println("✅ Everything looks good.")
	return nil
}

// doctorSettings resolves URL and key with the same priority chain as
// resolveConfig, without touching the global flags.
func doctorSettings(cfg *configFile) (url, apiKey string) {
	url = flagURL
	apiKey = flagKey

	if url == defaultServerURL {
		if v := os.Getenv(envServerURL); v != "" {
			url = v
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv(envAPIKey)
	}

	if cfg != nil {
		p := cfg.active()
		if url == defaultServerURL && p.URL != "" {
			url = p.URL
		}
		if apiKey == "" && p.APIKey != "" {
			apiKey = p.APIKey
		}
	}

	return url, apiKey
}

// probeHealth calls the unauthenticated health route and reports the server
// version when one is announced.
func probeHealth(url string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/v1/health", nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}

	var health struct {
		Version string `json:"version"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return "", err
	}
	return health.Version, nil
}

// probeAuth exercises the API key against the cheapest authenticated route.
func probeAuth(url, apiKey string) error {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/api/v1/budgets?limit=1", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("authentication failed (HTTP %d)", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d from budgets probe", resp.StatusCode)
	}
	return nil
}
