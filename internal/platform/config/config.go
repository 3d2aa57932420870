// Package config loads studytrack settings.
//
// Precedence, highest first:
//  1. STUDYTRACK_* environment variables (STUDYTRACK_STORAGE_BACKEND -> storage.backend)
//  2. YAML file (<data>/config.yaml, or the path given with --config)
//  3. Defaults
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"studytrack/internal/platform/logging"
)

const (
	envPrefix         = "STUDYTRACK_"
	maxConfigFileSize = 1 << 20

	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	DataDir string         `koanf:"-"`
	DBPath  string         `koanf:"-"`
	Storage StorageConfig  `koanf:"storage"`
	Log     logging.Config `koanf:"log"`
	Notify  NotifyConfig   `koanf:"notify"`
}

type StorageConfig struct {
	Backend string `koanf:"backend"`
	Key     string `koanf:"key"`
}

type NotifyConfig struct {
	Desktop bool `koanf:"desktop"`
}

// DefaultDataDir is ~/.local/share/studytrack, or ./.studytrack when no home is available.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".studytrack"
	}
	return filepath.Join(home, ".local", "share", "studytrack")
}

func New(dataDir string) (Config, error) {
	return Load(dataDir, "")
}

// Load reads the optional config file then environment overrides. A missing
// file at the default location is not an error; a missing explicit file is.
func Load(dataDir, configPath string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	k := koanf.New(".")

	explicit := configPath != ""
	if !explicit {
		configPath = filepath.Join(dataDir, "config.yaml")
	}
	content, err := readConfigFile(configPath)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, err
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.DataDir = dataDir
	cfg.DBPath = filepath.Join(dataDir, "studytrack.db")
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// envKey maps STUDYTRACK_STORAGE_BACKEND to storage.backend. Only the first
// underscore after the prefix separates the section from the field.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes", info.Size())
	}
	return io.ReadAll(f)
}

func applyDefaults(cfg *Config) {
	defaults := logging.DefaultConfig()
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendFile
	}
	if cfg.Storage.Key == "" {
		cfg.Storage.Key = "subjects"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = defaults.Format
	}
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend %q", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		return fmt.Errorf("storage key is required")
	}
	return c.Log.Validate()
}

// TUILogFile is where the terminal UI logs when no file is configured,
// since stderr would corrupt the alt screen.
func (c Config) TUILogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(c.DataDir, "studytrack.log")
}
