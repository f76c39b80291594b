// Package config loads the panel configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultEndpoint is the panel endpoint of the compositor.
const DefaultEndpoint = "ws://127.0.0.1:8641"

type Config struct {
	Endpoint  string          `yaml:"endpoint"`
	Launcher  LauncherConfig  `yaml:"launcher"`
	Lock      LockConfig      `yaml:"lock"`
	Notifier  NotifierConfig  `yaml:"notifier"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

type LauncherConfig struct {
	RowWidth int     `yaml:"row_width"`
	Entries  []Entry `yaml:"entries"`
	// Shortcuts maps a digit string to an entry name.
	Shortcuts map[string]string `yaml:"shortcuts"`
}

// Entry is one launchable application.
type Entry struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
	Cmd  string `yaml:"cmd"`
}

type LockConfig struct {
	// FocusDelay must exceed Transition or the credential field is focused
	// before the screen finished sliding in.
	FocusDelay time.Duration `yaml:"focus_delay"`
	Transition time.Duration `yaml:"transition"`
}

type NotifierConfig struct {
	Uptime       time.Duration `yaml:"uptime"`
	RecheckSlack time.Duration `yaml:"recheck_slack"`
}

type ReconnectConfig struct {
	BaseDelay time.Duration `yaml:"base_delay"`
	MaxDelay  time.Duration `yaml:"max_delay"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endpoint: DefaultEndpoint,
		Launcher: LauncherConfig{
			RowWidth: 6,
			Entries:  defaultEntries(),
		},
		Lock: LockConfig{
			FocusDelay: 1000 * time.Millisecond,
			Transition: 600 * time.Millisecond,
		},
		Notifier: NotifierConfig{
			Uptime:       2000 * time.Millisecond,
			RecheckSlack: 200 * time.Millisecond,
		},
		Reconnect: ReconnectConfig{
			BaseDelay: time.Second,
			MaxDelay:  30 * time.Second,
		},
	}
}

func defaultEntries() []Entry {
	return []Entry{
		{Name: "Chromium", Icon: "chromium", Cmd: "chromium --enable-features=UseOzonePlatform --ozone-platform=wayland"},
		{Name: "Nautilus", Icon: "file", Cmd: "nautilus"},
		{Name: "Firefox", Icon: "firefox", Cmd: "MOZ_ENABLE_WAYLAND=1 firefox"},
		{Name: "GIMP", Icon: "gimp", Cmd: "gimp-2.99"},
		{Name: "Spotify", Icon: "spotify", Cmd: `DISPLAY=":0" spotify --force-device-scale-factor=2`},
		{Name: "Alacritty", Icon: "terminal", Cmd: "alacritty"},
		{Name: "Termite", Icon: "terminal", Cmd: "termite"},
		{Name: "VSCodium", Icon: "vscodium", Cmd: "codium --enable-features=UseOzonePlatform --ozone-platform=wayland"},
		{Name: "Emacs", Icon: "emacs", Cmd: "emacs"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/newm-panel/config.yaml, falling back
// to ~/.config.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "newm-panel", "config.yaml")
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadOrDefault is Load, except that a missing file yields the defaults.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		errs = append(errs, fmt.Errorf("endpoint %q: must be a ws:// or wss:// URL", c.Endpoint))
	}
	if c.Launcher.RowWidth < 1 {
		errs = append(errs, fmt.Errorf("launcher.row_width %d: must be positive", c.Launcher.RowWidth))
	}
	for i, e := range c.Launcher.Entries {
		if e.Name == "" || e.Cmd == "" {
			errs = append(errs, fmt.Errorf("launcher.entries[%d]: name and cmd are required", i))
		}
	}
	for k, name := range c.Launcher.Shortcuts {
		if _, err := strconv.Atoi(k); err != nil {
			errs = append(errs, fmt.Errorf("launcher.shortcuts %q: key must be numeric", k))
		}
		if _, ok := c.Launcher.Entry(name); !ok {
			errs = append(errs, fmt.Errorf("launcher.shortcuts %q: no entry named %q", k, name))
		}
	}
	if c.Lock.FocusDelay <= c.Lock.Transition {
		errs = append(errs, fmt.Errorf("lock.focus_delay %v: must exceed lock.transition %v", c.Lock.FocusDelay, c.Lock.Transition))
	}
	if c.Notifier.Uptime <= 0 {
		errs = append(errs, fmt.Errorf("notifier.uptime %v: must be positive", c.Notifier.Uptime))
	}
	if c.Notifier.RecheckSlack < 0 {
		errs = append(errs, fmt.Errorf("notifier.recheck_slack %v: must not be negative", c.Notifier.RecheckSlack))
	}
	if c.Reconnect.BaseDelay <= 0 || c.Reconnect.MaxDelay < c.Reconnect.BaseDelay {
		errs = append(errs, fmt.Errorf("reconnect: need 0 < base_delay <= max_delay"))
	}

	return errors.Join(errs...)
}

// Entry looks up a launcher entry by name.
func (l LauncherConfig) Entry(name string) (Entry, bool) {
	for _, e := range l.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// HideAfter is the delay between an indicator update and its hide check.
func (n NotifierConfig) HideAfter() time.Duration {
	return n.Uptime + n.RecheckSlack
}
