package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/newm-panel/tui/internal/client"
	"github.com/newm-panel/tui/internal/client/clienttest"
	"github.com/newm-panel/tui/internal/config"
)

func TestTapPrintsJSONLines(t *testing.T) {
	pipe := clienttest.NewPipe()
	sess := client.NewSession("ws://test", client.WithDialer(pipe.Dialer()))
	if err := sess.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	pipe.Push(client.ActivateLauncher{Value: 0.5})
	pipe.PushRaw([]byte(`{"kind":"mystery"}`))
	pipe.Push(client.NewSysBackend(client.IndicatorBattery, 0.1))

	var buf bytes.Buffer
	if err := tap(sess, &buf, 2); err != nil {
		t.Fatalf("tap: %v", err)
	}
	want := `{"kind":"activate_launcher","value":0.5}` + "\n" + `{"kind":"sys_backend","battery":0.1}` + "\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestTapEndsWithConnection(t *testing.T) {
	pipe := clienttest.NewPipe()
	sess := client.NewSession("ws://test", client.WithDialer(pipe.Dialer()))
	if err := sess.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	pipe.Push(client.ActivateLauncher{Value: 1})
	pipe.Close()

	var buf bytes.Buffer
	if err := tap(sess, &buf, 0); err != nil {
		t.Fatalf("tap: %v", err)
	}
	want := `{"kind":"activate_launcher","value":1}` + "\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestLoadConfigURLOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("endpoint: ws://127.0.0.1:9000\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	configPath, endpointURL = path, ""
	t.Cleanup(func() { configPath, endpointURL = "", "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != "ws://127.0.0.1:9000" {
		t.Errorf("Endpoint = %q", cfg.Endpoint)
	}

	endpointURL = "ws://10.0.0.2:8641"
	if cfg, err = loadConfig(); err != nil || cfg.Endpoint != endpointURL {
		t.Errorf("override: cfg=%v err=%v", cfg, err)
	}

	endpointURL = "http://nope"
	if _, err := loadConfig(); err == nil {
		t.Error("non-websocket --url should fail validation")
	}
}

func TestLoadConfigExplicitMissing(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	missing := filepath.Join(t.TempDir(), "does-not-exist.yaml")
	if err := flags.Set("config", missing); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		flags.Lookup("config").Changed = false
		configPath = ""
	})

	if cfg, err := loadConfig(); err == nil {
		t.Errorf("loadConfig() = %v, want error for explicit missing --config", cfg)
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	configPath = filepath.Join(t.TempDir(), "config.yaml")
	t.Cleanup(func() { configPath = "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Endpoint != config.Default().Endpoint {
		t.Errorf("Endpoint = %q, want default", cfg.Endpoint)
	}
}

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"launcher", "lock", "notifiers", "tap", "mock-backend"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
