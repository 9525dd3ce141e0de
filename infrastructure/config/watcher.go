package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ConfigWatcher watches the dynamic tuning file and reloads it on
// change. Invalid or unparseable edits are rejected and the previous
// tuning stays in effect.
type ConfigWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  *DynamicConfig
	mu       sync.RWMutex
	onChange []func(*DynamicConfig)
	logger   *zap.Logger
	stopCh   chan struct{}
}

// NewConfigWatcher creates a watcher with the file's current contents
// loaded
func NewConfigWatcher(configPath string, logger *zap.Logger) (*ConfigWatcher, error) {
	config, err := LoadDynamicConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory rather than the file so atomic saves
	// (write temp, rename over) are seen
	dir := filepath.Dir(configPath)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &ConfigWatcher{
		path:    configPath,
		watcher: watcher,
		current: config,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins watching for configuration changes
func (w *ConfigWatcher) Start() {
	go w.watchLoop()
	w.logger.Info("configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *ConfigWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.logger.Info("configuration watcher stopped")
}

func (w *ConfigWatcher) watchLoop() {
	// Debounce so editors that fire several write events per save
	// trigger one reload
	var debounceTimer *time.Timer
	debounceDuration := 100 * time.Millisecond

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				if debounceTimer != nil {
					debounceTimer.Stop()
				}
				debounceTimer = time.AfterFunc(debounceDuration, func() {
					w.handleConfigChange()
				})
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("file watcher error", zap.Error(err))
		}
	}
}

func (w *ConfigWatcher) handleConfigChange() {
	w.logger.Info("configuration file changed, reloading", zap.String("path", w.path))

	newConfig, err := LoadDynamicConfig(w.path)
	if err != nil {
		w.logger.Error("failed to reload configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	w.current = newConfig
	handlers := make([]func(*DynamicConfig), len(w.onChange))
	copy(handlers, w.onChange)
	w.mu.Unlock()

	for _, handler := range handlers {
		go handler(newConfig)
	}

	w.logger.Info("configuration reloaded",
		zap.String("version", newConfig.Metadata.Version),
		zap.Int("sweepIntervalSeconds", newConfig.Maintenance.SweepIntervalSeconds),
		zap.Float64("pruneThreshold", newConfig.Maintenance.PruneThreshold),
	)
}

// OnChange registers a callback for configuration changes
func (w *ConfigWatcher) OnChange(handler func(*DynamicConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// GetCurrent returns the current configuration
func (w *ConfigWatcher) GetCurrent() *DynamicConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}
