// Package commands provides CLI commands for orion.
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcanete/orion/internal/api"
	"github.com/rcanete/orion/internal/config"
)

var (
	// Global flags
	deepFlag    bool
	backendFlag string
	outputFlag  string
	fileFlag    string
	rawFlag     bool

	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "orion [prompt]",
	Short: "Terminal client for the Orion research assistant",
	Long: `orion is a terminal client for a multi-agent research assistant.
Conversations stay on your machine, answers stream in as they are
produced, and deep research runs can be reviewed before they execute.

Examples:
  orion chat                        Start the interactive chat TUI
  orion config                      Configure settings
  orion "What is Go?"               Send a single question
  orion --deep "History of RISC-V"  Run a deep research query
  orion -f prompt.md                Read the prompt from a file
  cat notes.md | orion              Read the prompt from stdin
  orion "Hello" -o answer.md        Save the answer to a file`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Check for version flag
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("orion %s (built %s)\n", Version, BuildTime)
			return nil
		}

		// Check for stdin input
		stat, _ := os.Stdin.Stat()
		hasStdin := (stat.Mode() & os.ModeCharDevice) == 0

		// Piped output drops the decoration automatically
		raw := rawFlag || !isStdoutTTY()

		// Check for file input
		if fileFlag != "" {
			data, err := os.ReadFile(fileFlag)
			if err != nil {
				return fmt.Errorf("failed to read file: %w", err)
			}
			return runQuery(string(data), raw)
		}

		// Check for stdin
		if hasStdin {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
			return runQuery(string(data), raw)
		}

		// Check for positional argument
		if len(args) > 0 {
			return runQuery(args[0], raw)
		}

		// No input - show help
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVar(&deepFlag, "deep", false, "Use the deep research pipeline")
	rootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Backend URL (overrides config)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save answer to file")
	rootCmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read prompt from file")
	rootCmd.Flags().BoolVar(&rawFlag, "raw", false, "Print the raw answer without decoration")
	rootCmd.Flags().BoolP("version", "v", false, "Show version and exit")

	// Add subcommands
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSettings returns the effective configuration with flag overrides applied
func loadSettings() config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		// LoadConfig already fell back to defaults; the file is just unreadable
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if backendFlag != "" {
		cfg.BackendURL = backendFlag
	}
	if deepFlag {
		cfg.DefaultMode = "deep"
	}

	return cfg
}

// newAPIClient builds the backend client from the effective configuration
func newAPIClient(cfg config.Config) (*api.ResearchClient, error) {
	return api.NewClient(
		api.WithBaseURL(cfg.BackendURL),
		api.WithUserID(cfg.UserID),
		api.WithTimeout(time.Duration(cfg.RequestTimeout)*time.Second),
	)
}
