package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newm-panel/tui/internal/mockbackend"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	mockAddr     string
	mockDemo     bool
	mockInterval time.Duration
	mockUsers    map[string]string
)

var mockBackendCmd = &cobra.Command{
	Use:   "mock-backend",
	Short: "Serve a stand-in backend for development",
	Long: `Serves the panel protocol on --addr. Lock screens are offered the users
from --user and checked against their credentials. Launch requests are
logged, never executed. With --demo a scripted launcher and indicator feed
is pushed to every registered widget.`,
	RunE: runMockBackend,
}

func init() {
	mockBackendCmd.Flags().StringVar(&mockAddr, "addr", "127.0.0.1:8641", "Listen address")
	mockBackendCmd.Flags().BoolVar(&mockDemo, "demo", false, "Push a scripted demo feed")
	mockBackendCmd.Flags().DurationVar(&mockInterval, "demo-interval", 700*time.Millisecond, "Delay between demo pushes")
	mockBackendCmd.Flags().StringToStringVar(&mockUsers, "user", map[string]string{"guest": "guest"}, "Lock screen user=credential (repeatable)")
	rootCmd.AddCommand(mockBackendCmd)
}

func runMockBackend(cmd *cobra.Command, args []string) error {
	cleanup, err := setupLogging(false)
	if err != nil {
		return err
	}
	defer cleanup()

	backend := mockbackend.New(mockbackend.WithCredentials(mockUsers))
	backend.OnAuthenticated = func(user string) {
		log.Printf("mock backend: unlock requested for %s", user)
	}

	srv := &http.Server{
		Addr:              mockAddr,
		Handler:           backend,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("mock backend listening on ws://%s (users %v)", mockAddr, backend.Users())
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		backend.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if mockDemo {
		g.Go(func() error {
			return mockbackend.RunDemo(ctx, backend, mockInterval)
		})
	}

	return g.Wait()
}
