// Package watcher reloads the configuration file while the service runs.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/versal-platform/botlogic/pkg/config"
	"github.com/versal-platform/botlogic/pkg/logging"
)

// debounceDelay absorbs the bursts of events editors produce on save.
const debounceDelay = 100 * time.Millisecond

// Applier receives a changed configuration. Implementations pick out the
// settings that can change at runtime and apply them.
type Applier interface {
	Apply(cfg *config.Config) error
}

// ApplierFunc adapts a function to the Applier interface.
type ApplierFunc func(cfg *config.Config) error

func (f ApplierFunc) Apply(cfg *config.Config) error { return f(cfg) }

// ConfigWatcher watches one configuration file and pushes every changed,
// valid configuration to an Applier. Invalid files are logged and
// skipped, leaving the previous configuration in effect.
type ConfigWatcher struct {
	loader       config.Loader
	applier      Applier
	configPath   string
	lastHash     string
	logger       logging.Logger
	reloadNotify chan struct{} // signaled after each reload attempt, for tests
}

// WatcherConfig configures New. Initial, if set, seeds change detection
// so an unmodified file does not trigger a spurious apply.
type WatcherConfig struct {
	Loader       config.Loader
	Applier      Applier
	ConfigPath   string
	Initial      *config.Config
	Logger       logging.Logger
	ReloadNotify chan struct{}
}

// New creates a ConfigWatcher.
func New(cfg WatcherConfig) (*ConfigWatcher, error) {
	switch {
	case cfg.Loader == nil:
		return nil, fmt.Errorf("watcher: loader is required")
	case cfg.Applier == nil:
		return nil, fmt.Errorf("watcher: applier is required")
	case cfg.Logger == nil:
		return nil, fmt.Errorf("watcher: logger is required")
	case cfg.ConfigPath == "":
		return nil, fmt.Errorf("watcher: config path is required")
	}

	absPath, err := filepath.Abs(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("watcher: resolve path: %w", err)
	}

	w := &ConfigWatcher{
		loader:       cfg.Loader,
		applier:      cfg.Applier,
		configPath:   absPath,
		logger:       cfg.Logger.WithModule("watcher"),
		reloadNotify: cfg.ReloadNotify,
	}
	if cfg.Initial != nil {
		if w.lastHash, err = configHash(cfg.Initial); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Watch blocks until the context is cancelled, reacting to file events.
// Run it in a goroutine.
func (w *ConfigWatcher) Watch(ctx context.Context) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher", "error", err)
		return
	}
	defer fw.Close()

	if err := fw.Add(w.configPath); err != nil {
		w.logger.Error("Failed to watch config file", "error", err, "path", w.configPath)
		return
	}
	w.logger.Info("Watching configuration file", "path", w.configPath)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Configuration watch stopped")
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
				w.logger.Debug("Config file changed", "event", event.Op.String())
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(debounceDelay, w.checkAndReload)
			}
			if event.Op.Has(fsnotify.Remove) {
				// Editors that replace the file drop the watch with it.
				time.Sleep(50 * time.Millisecond)
				fw.Add(w.configPath)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) checkAndReload() {
	if w.reloadNotify != nil {
		defer func() {
			select {
			case w.reloadNotify <- struct{}{}:
			default:
			}
		}()
	}

	cfg, err := w.loader.Load()
	if err != nil {
		w.logger.Error("Failed to load configuration, keeping previous", "error", err)
		return
	}

	hash, err := configHash(cfg)
	if err != nil {
		w.logger.Error("Failed to hash configuration", "error", err)
		return
	}
	if hash == w.lastHash {
		w.logger.Debug("Configuration unchanged")
		return
	}

	if err := w.applier.Apply(cfg); err != nil {
		w.logger.Error("Failed to apply configuration", "error", err)
		return
	}
	w.lastHash = hash
	w.logger.Info("Configuration reloaded")
}

// configHash fingerprints a configuration via its canonical JSON form.
func configHash(cfg *config.Config) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("watcher: marshal config: %w", err)
	}
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%x", sum), nil
}
