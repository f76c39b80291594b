package main

import (
	"fmt"
	"io"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/newm-panel/tui/internal/config"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	endpointURL string
	logFile     string
)

var rootCmd = &cobra.Command{
	Use:   "panel",
	Short: "Terminal panel widgets for the newm system-control backend",
	Long: `Runs one panel widget against the local backend websocket.

Widgets:
  launcher   - app grid driven by launcher swipes
  lock       - choose user / enter credential screen
  notifiers  - transient backlight, keyboard light, volume and battery popups

Tools:
  tap           - print every backend message as a JSON line
  mock-backend  - development stand-in for the backend`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&endpointURL, "url", "", "Backend websocket URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file (TUI widgets discard logs otherwise)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads --config and applies --url. A missing file is only
// tolerated at the default path.
func loadConfig() (*config.Config, error) {
	load := config.LoadOrDefault
	if rootCmd.PersistentFlags().Changed("config") {
		load = config.Load
	}
	cfg, err := load(configPath)
	if err != nil {
		return nil, err
	}
	if endpointURL != "" {
		cfg.Endpoint = endpointURL
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupLogging routes the standard logger. A TUI owns the terminal, so
// without --log-file its logs are dropped; other commands log to stderr.
func setupLogging(tui bool) (func(), error) {
	if logFile != "" {
		f, err := tea.LogToFile(logFile, "panel")
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		return func() { f.Close() }, nil
	}
	if tui {
		log.SetOutput(io.Discard)
	}
	return func() {}, nil
}
