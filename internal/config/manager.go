package config

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Manager holds the active configuration and reloads it when the file
// changes on disk. Long-lived live sessions use it so logging level and
// output options can be adjusted without restarting.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
	onReload func(*Config)
}

// NewManager loads the initial configuration. onReload (optional) fires
// after every successful reload with the new config.
func NewManager(onReload func(*Config)) (*Manager, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Manager{config: config, onReload: onReload}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	configCopy := *m.config
	return &configCopy
}

// StartWatching begins reloading on file changes until ctx is cancelled
// or Stop is called.
func (m *Manager) StartWatching(ctx context.Context) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	// watch the directory: editors replace the file rather than writing
	// in place, which would drop a watch on the file itself
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, configPath)

	log.Debug().Str("path", configPath).Msg("config: watching for changes")
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, configPath string) {
	defer m.wg.Done()
	configFileName := filepath.Base(configPath)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				m.reload()
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Warn().Err(err).Msg("config: watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reload() {
	newConfig, err := Load()
	if err != nil {
		log.Warn().Err(err).Msg("config: reload failed, keeping previous configuration")
		return
	}
	if err := newConfig.Validate(); err != nil {
		log.Warn().Err(err).Msg("config: reloaded file is invalid, keeping previous configuration")
		return
	}

	m.mu.Lock()
	m.config = newConfig
	m.mu.Unlock()

	log.Info().Msg("config: configuration reloaded")
	if m.onReload != nil {
		m.onReload(newConfig)
	}
}
