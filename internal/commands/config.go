package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rcanete/orion/internal/config"
	"github.com/rcanete/orion/internal/render"
)

var configForceFlag bool

// NewConfigCmd creates a new config command
func NewConfigCmd(d *Dependencies) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Open configuration menu",
		Long: `Interactive menu to configure orion settings.

The subcommands read or change individual settings without the menu.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if d != nil && d.TUI != nil {
				return d.TUI.RunConfig()
			}
			return deps.TUI.RunConfig()
		},
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigResetCmd())

	return cmd
}

// Backward compatibility global
var configCmd = NewConfigCmd(nil)

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys:
  backend_url                 Backend base URL
  user_id                     Backend archive user id
  default_mode                Request mode for new chats (standard, deep)
  request_timeout             Streaming request timeout in seconds
  verbose                     Detailed progress output (true/false)
  copy_to_clipboard           Copy one-shot answers to the clipboard (true/false)
  tui_theme                   TUI color theme
  markdown.style              Render style (dark, light, or a JSON theme path)
  markdown.enabled            Render answers as markdown (true/false)
  markdown.preserve_newlines  Preserve original line breaks (true/false)`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all settings to defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigReset(configForceFlag)
		},
	}
	cmd.Flags().BoolVar(&configForceFlag, "force", false, "Skip confirmation")
	return cmd
}

func runConfigShow() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	path, _ := config.GetConfigPath()
	fmt.Printf("Configuration file: %s\n\n", path)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "backend_url\t%s\n", cfg.BackendURL)
	fmt.Fprintf(w, "user_id\t%s\n", cfg.UserID)
	fmt.Fprintf(w, "default_mode\t%s\n", cfg.DefaultMode)
	fmt.Fprintf(w, "request_timeout\t%d\n", cfg.RequestTimeout)
	fmt.Fprintf(w, "verbose\t%t\n", cfg.Verbose)
	fmt.Fprintf(w, "copy_to_clipboard\t%t\n", cfg.CopyToClipboard)
	fmt.Fprintf(w, "tui_theme\t%s\n", cfg.TUITheme)
	fmt.Fprintf(w, "markdown.style\t%s\n", cfg.Markdown.Style)
	fmt.Fprintf(w, "markdown.enabled\t%t\n", cfg.Markdown.Enabled)
	fmt.Fprintf(w, "markdown.preserve_newlines\t%t\n", cfg.Markdown.PreserveNewLines)
	return w.Flush()
}

func runConfigSet(key, value string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		// Do not silently replace a config file that failed to parse
		return err
	}

	switch key {
	case "backend_url":
		if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
			return fmt.Errorf("backend_url must start with http:// or https://")
		}
		cfg.BackendURL = value
	case "user_id":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("user_id cannot be empty")
		}
		cfg.UserID = value
	case "default_mode":
		if !validMode(value) {
			return fmt.Errorf("invalid mode %q (valid: %s)", value, strings.Join(config.AvailableModes(), ", "))
		}
		cfg.DefaultMode = value
	case "request_timeout":
		secs, err := strconv.Atoi(value)
		if err != nil || secs <= 0 {
			return fmt.Errorf("request_timeout must be a positive number of seconds")
		}
		cfg.RequestTimeout = secs
	case "verbose":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("verbose must be true or false")
		}
		cfg.Verbose = b
	case "copy_to_clipboard":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("copy_to_clipboard must be true or false")
		}
		cfg.CopyToClipboard = b
	case "tui_theme":
		if !render.SetTUITheme(value) {
			return fmt.Errorf("unknown theme %q (valid: %s)", value, strings.Join(render.TUIThemeNames(), ", "))
		}
		cfg.TUITheme = value
	case "markdown.style":
		if strings.TrimSpace(value) == "" {
			return fmt.Errorf("markdown.style cannot be empty")
		}
		cfg.Markdown.Style = value
	case "markdown.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("markdown.enabled must be true or false")
		}
		cfg.Markdown.Enabled = b
	case "markdown.preserve_newlines":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("markdown.preserve_newlines must be true or false")
		}
		cfg.Markdown.PreserveNewLines = b
	default:
		return fmt.Errorf("unknown key %q (run 'orion config set --help' for the list)", key)
	}

	if err := config.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Printf("Set %s = %s\n", key, value)
	return nil
}

func runConfigReset(force bool) error {
	if !force {
		fmt.Print("Reset all settings to defaults? (y/N): ")
		var response string
		fmt.Scanln(&response)
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if err := config.SaveConfig(config.DefaultConfig()); err != nil {
		return err
	}

	fmt.Println("Configuration reset to defaults")
	return nil
}

func validMode(name string) bool {
	for _, m := range config.AvailableModes() {
		if name == m {
			return true
		}
	}
	return false
}
