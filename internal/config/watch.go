package config

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads path whenever it changes and delivers each valid config on
// the returned channel until ctx ends. The parent directory is watched so
// editors that replace the file on save are picked up. Invalid files are
// logged and skipped.
func Watch(ctx context.Context, path string) (<-chan *Config, error) {
	fsW, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsW.Add(filepath.Dir(path)); err != nil {
		fsW.Close()
		return nil, err
	}

	out := make(chan *Config, 1)
	go watchLoop(ctx, fsW, filepath.Clean(path), out)
	return out, nil
}

func watchLoop(ctx context.Context, fsW *fsnotify.Watcher, path string, out chan<- *Config) {
	defer close(out)
	defer fsW.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-fsW.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: reset timer on each event.
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(reloadDebounce)
			fire = timer.C

		case <-fire:
			fire = nil
			cfg, err := Load(path)
			if err != nil {
				log.Printf("config reload: %v", err)
				continue
			}
			select {
			case out <- cfg:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fsW.Errors:
			if !ok {
				return
			}
			log.Printf("config watch: %v", err)
		}
	}
}

// ReloadedMsg carries a config delivered by Watch into the UI loop.
type ReloadedMsg struct {
	Config *Config
}

// Next blocks for the next reloaded config. It returns nil once ch closes,
// so it can back a tea.Cmd without this package importing bubbletea.
func Next(ch <-chan *Config) any {
	cfg, ok := <-ch
	if !ok {
		return nil
	}
	return ReloadedMsg{Config: cfg}
}
