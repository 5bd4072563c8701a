package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// healthResponse mirrors the body served by GET /health.
type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Services  struct {
		Database struct {
			Status string `json:"status"`
			Error  string `json:"error,omitempty"`
		} `json:"database"`
	} `json:"services"`
}

var (
	healthURL     string
	healthTimeout time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe a running server's /health endpoint",
	Long: `Probe a running server and fail unless both the server and its
database report "ok". Intended for deploy smoke checks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: healthTimeout}

		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, healthURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("error connecting to health endpoint: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("error reading response: %w", err)
		}

		var health healthResponse
		if err := json.Unmarshal(body, &health); err != nil {
			return fmt.Errorf("error parsing health response (HTTP %d): %w", resp.StatusCode, err)
		}
		if err := checkHealth(resp.StatusCode, health); err != nil {
			return err
		}

		if jsonOutput {
			fmt.Println(string(body))
			return nil
		}
		fmt.Printf("Health check passed\n")
		fmt.Printf("   Version: %s\n", health.Version)
		fmt.Printf("   Database: %s\n", health.Services.Database.Status)
		fmt.Printf("   Timestamp: %s\n", health.Timestamp)
		return nil
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthURL, "url", "http://localhost:8080/health", "Health endpoint URL")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.AddCommand(healthCmd)
}

func checkHealth(statusCode int, h healthResponse) error {
	if h.Services.Database.Status != "ok" {
		if h.Services.Database.Error != "" {
			return fmt.Errorf("database status is %q: %s", h.Services.Database.Status, h.Services.Database.Error)
		}
		return fmt.Errorf("database status is %q", h.Services.Database.Status)
	}
	if statusCode != http.StatusOK || h.Status != "ok" {
		return fmt.Errorf("health check failed: HTTP %d, status %q", statusCode, h.Status)
	}
	return nil
}
