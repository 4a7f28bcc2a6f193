package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// LocalFileName is the per-project config file looked up in the working
	// directory.
	LocalFileName = ".mdtoc.yaml"

	// HomeDirName is the user-level config directory under $HOME.
	HomeDirName = ".mdtoc"

	homeFileName = "config.yaml"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v *viper.Viper

	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
// An empty cfgFile loads defaults and environment overrides only.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	cm.v.SetDefault("log_level", defaults.LogLevel)
	cm.v.SetDefault("toc.permalink_symbol", defaults.TOC.PermalinkSymbol)
	cm.v.SetDefault("format.extensions", defaults.Format.Extensions)
	cm.v.SetDefault("format.exclude", defaults.Format.Exclude)
	cm.v.SetDefault("server.host", defaults.Server.Host)
	cm.v.SetDefault("server.port", defaults.Server.Port)
	cm.v.SetDefault("server.rate_limit", defaults.Server.RateLimit)

	// Environment variables with MDTOC_ prefix, e.g. MDTOC_SERVER_PORT
	cm.v.SetEnvPrefix("MDTOC")
	cm.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cm.v.AutomaticEnv()

	if cfgFile == "" {
		return nil
	}
	cm.v.SetConfigFile(cfgFile)

	if err := cm.v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// load parses the current viper state into a validated Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFileUsed returns the path of the loaded config file, if any.
func (cm *Manager) ConfigFileUsed() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration. Edits that fail to
// load or validate are ignored and the previous config stays active.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

// HomePath returns the config file inside home, or inside ~/.mdtoc when home
// is empty.
func HomePath(home string) (string, error) {
	if home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		home = filepath.Join(dir, HomeDirName)
	}
	return filepath.Join(home, homeFileName), nil
}

// Search returns the local config file if it exists, then the home config
// file, or "" when there is neither.
func Search(home string) (string, error) {
	homePath, err := HomePath(home)
	if err != nil {
		return "", err
	}
	return Find(LocalFileName, homePath), nil
}

// Find returns the first of paths that exists, or "".
func Find(paths ...string) string {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# mdtoc configuration
# Every key can be overridden from the environment with the MDTOC_ prefix,
# e.g. MDTOC_SERVER_PORT=9000 or MDTOC_TOC_PERMALINK_SYMBOL=¶

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
