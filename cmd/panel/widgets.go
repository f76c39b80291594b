package main

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/newm-panel/tui/internal/app"
	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/config"
	"github.com/newm-panel/tui/internal/views/launcher"
	"github.com/newm-panel/tui/internal/views/lock"
	"github.com/newm-panel/tui/internal/views/notifier"
	"github.com/spf13/cobra"
)

var launcherCmd = &cobra.Command{
	Use:   "launcher",
	Short: "Run the app launcher",
	Long: `Shows the configured app grid while the backend reports a launcher swipe.

Keys:
  Arrows/Tab  - Move selection
  Enter       - Launch selected entry
  Typing      - Fuzzy search (digits launch configured shortcuts)
  Ctrl+U      - Clear search`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWidget(func(s *client.Session, cfg *config.Config) app.Widget {
			return launcher.New(s, cfg.Launcher)
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Run the lock screen",
	Long: `Joins the backend auth channel and walks through choosing a user and
entering a credential. The backend decides when the session unlocks.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWidget(func(s *client.Session, cfg *config.Config) app.Widget {
			return lock.New(s, cfg.Lock)
		}, client.AuthRegister{})
	},
}

var notifiersCmd = &cobra.Command{
	Use:   "notifiers",
	Short: "Run the indicator popups",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWidget(func(_ *client.Session, cfg *config.Config) app.Widget {
			return notifier.New(cfg.Notifier)
		})
	},
}

func init() {
	rootCmd.AddCommand(launcherCmd, lockCmd, notifiersCmd)
}

func runWidget(build func(*client.Session, *config.Config) app.Widget, handshake ...client.Envelope) error {
	cleanup, err := setupLogging(true)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sess := client.NewSession(cfg.Endpoint,
		client.WithHandshake(handshake...),
		client.WithBackoff(cfg.Reconnect.BaseDelay, cfg.Reconnect.MaxDelay),
	)
	defer sess.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opts []app.Option
	if reloads, err := config.Watch(ctx, configPath); err != nil {
		log.Printf("config watch disabled: %v", err)
	} else {
		opts = append(opts, app.WithReloads(reloads))
	}

	m := app.New(sess, build(sess, cfg), opts...)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run %s: %w", m.Widget().Name(), err)
	}
	return nil
}
