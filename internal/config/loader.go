package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/af-corp/textguard/internal/moderation"
)

var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:default} patterns in a string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if len(submatch) < 2 {
			return match
		}
		if val, ok := os.LookupEnv(submatch[1]); ok {
			return val
		}
		if len(submatch) >= 3 {
			return submatch[2]
		}
		return ""
	})
}

// LoadFile reads a YAML file, expands env vars, and unmarshals into dest.
func LoadFile(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), dest); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

// LoadRules reads moderation extensions from path. A missing file yields
// empty extensions.
func LoadRules(path string) (moderation.Extensions, error) {
	var ext moderation.Extensions
	if err := LoadFile(path, &ext); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return moderation.Extensions{}, nil
		}
		return moderation.Extensions{}, err
	}
	return ext, nil
}

// Loader manages configuration loading and hot-reload via fsnotify.
type Loader struct {
	configDir string
	mu        sync.RWMutex
	cfg       *Config
	rules     moderation.Extensions
	watchers  []func()
	logger    *slog.Logger
}

func NewLoader(configDir string, logger *slog.Logger) *Loader {
	return &Loader{
		configDir: configDir,
		logger:    logger,
	}
}

// Load reads gateway.yaml and the optional rules file next to it.
func (l *Loader) Load() error {
	cfg := DefaultConfig()
	if err := LoadFile(filepath.Join(l.configDir, "gateway.yaml"), cfg); err != nil {
		return fmt.Errorf("load gateway config: %w", err)
	}

	rules, err := LoadRules(l.rulesPath(cfg))
	if err != nil {
		return fmt.Errorf("load moderation rules: %w", err)
	}

	l.mu.Lock()
	l.cfg = cfg
	l.rules = rules
	l.mu.Unlock()

	l.logger.Info("configuration loaded", "dir", l.configDir,
		"whitelist_extra", len(rules.Whitelist),
		"lexical_extra", len(rules.LexicalTerms),
	)
	return nil
}

func (l *Loader) rulesPath(cfg *Config) string {
	if filepath.IsAbs(cfg.Moderation.RulesFile) {
		return cfg.Moderation.RulesFile
	}
	return filepath.Join(l.configDir, cfg.Moderation.RulesFile)
}

func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Rules returns the moderation extensions from the rules file.
func (l *Loader) Rules() moderation.Extensions {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rules
}

// OnReload registers a callback that fires after config is reloaded.
func (l *Loader) OnReload(fn func()) {
	l.mu.Lock()
	l.watchers = append(l.watchers, fn)
	l.mu.Unlock()
}

func (l *Loader) notify() {
	l.mu.RLock()
	fns := append([]func(){}, l.watchers...)
	l.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// Watch starts watching the config directory for changes and reloads on modification.
func (l *Loader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(l.configDir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch config dir %s: %w", l.configDir, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					l.logger.Info("config file changed, reloading", "file", event.Name)
					if err := l.Load(); err != nil {
						l.logger.Error("failed to reload config", "error", err)
						continue
					}
					l.notify()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Error("fsnotify error", "error", err)
			}
		}
	}()

	return nil
}
