package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/newm-panel/tui/internal/client"
	"github.com/spf13/cobra"
)

var (
	tapAuth  bool
	tapCount int
)

var tapCmd = &cobra.Command{
	Use:   "tap",
	Short: "Print backend messages as JSON lines",
	Long: `Connects like a widget would and prints every decoded backend message
on stdout, one JSON object per line, until the connection ends or Ctrl+C.
Malformed and unknown frames are logged to stderr and skipped.`,
	RunE: runTap,
}

func init() {
	tapCmd.Flags().BoolVar(&tapAuth, "auth", false, "Also join the auth channel (sends auth_register)")
	tapCmd.Flags().IntVarP(&tapCount, "count", "n", 0, "Exit after this many messages (0 = no limit)")
	rootCmd.AddCommand(tapCmd)
}

func runTap(cmd *cobra.Command, args []string) error {
	cleanup, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var handshake []client.Envelope
	if tapAuth {
		handshake = append(handshake, client.AuthRegister{})
	}
	sess := client.NewSession(cfg.Endpoint, client.WithHandshake(handshake...))
	if err := sess.Open(ctx); err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		sess.Close()
	}()
	defer sess.Close()

	return tap(sess, cmd.OutOrStdout(), tapCount)
}

// tap writes envelopes from sess to w until the sequence ends or limit
// messages were written.
func tap(sess *client.Session, w io.Writer, limit int) error {
	n := 0
	for e := range sess.Envelopes() {
		data, err := client.Encode(e)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(data)); err != nil {
			return err
		}
		n++
		if limit > 0 && n >= limit {
			return nil
		}
	}
	return nil
}
