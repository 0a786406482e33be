// File: control/hotreload.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Watches the configuration file and pushes reloaded values into a ConfigStore.

package control

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a config file on change. The parent directory is watched so
// editors that replace the file by rename are seen too.
type Watcher struct {
	path  string
	store *ConfigStore
	log   *slog.Logger
	fsw   *fsnotify.Watcher
}

// NewWatcher starts watching path. The store receives every successful reload.
func NewWatcher(path string, store *ConfigStore, log *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, errors.New("hot reload: empty config path")
	}
	if log == nil {
		log = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("hot reload: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("hot reload: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("hot reload: watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, store: store, log: log, fsw: fsw}, nil
}

// Run processes file events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.Reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

// Reload re-reads the file with environment overrides and updates the store.
// A file that fails to load keeps the previous configuration.
func (w *Watcher) Reload() {
	cfg, err := Load(w.path, false)
	if err != nil {
		w.log.Warn("config reload failed, keeping previous configuration", "path", w.path, "error", err)
		return
	}
	w.log.Info("configuration reloaded", "path", w.path)
	w.store.Update(cfg)
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
