package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the backend connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHealth()
	},
}

func runHealth() error {
	cfg := loadSettings()

	client, err := newAPIClient(cfg)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	defer client.Close()

	spin := newSpinner("Checking backend")
	spin.start()

	start := time.Now()
	err = client.Health(context.Background())
	latency := time.Since(start)

	if err != nil {
		spin.stopWithError()
		fmt.Fprintln(os.Stderr, formatErrorMessage(err, "Backend unreachable"))
		return fmt.Errorf("backend unreachable: %w", err)
	}

	spin.stopWithSuccess(fmt.Sprintf("Backend healthy (%s, %s)", cfg.BackendURL, latency.Round(time.Millisecond)))
	return nil
}
