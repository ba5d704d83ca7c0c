// Package config loads the formtree.yaml file used by the CLI.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/formtree/internal/logging"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "formtree.yaml"

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the CLI configuration.
type Config struct {
	// CatalogDir holds control definitions as documents. Empty uses the built-in palette.
	CatalogDir string `yaml:"catalog"`
	LogLevel   string `yaml:"logLevel"`
	// LogFormat is text or json.
	LogFormat  string `yaml:"logFormat"`

	Store Store `yaml:"store"`
	HTTP  HTTP  `yaml:"http"`
}

// Store selects where forms are persisted.
type Store struct {
	Driver     string     `yaml:"driver"`
	// Path is the directory of the file driver.
	Path       string     `yaml:"path"`
	Redis      Redis      `yaml:"redis"`
	Encryption Encryption `yaml:"encryption"`
}

// Encryption seals stored forms with AES-256-GCM when Key is set.
// Keys are base64 encoded 32 byte values; FORMTREE_ENCRYPTION_KEY overrides Key.
type Encryption struct {
	Key          string   `yaml:"key"`
	FallbackKeys []string `yaml:"fallbackKeys"`
}

// EncryptionKeyEnv names the environment variable holding the active key.
const EncryptionKeyEnv = "FORMTREE_ENCRYPTION_KEY"

// Keys decodes the configured keys. The active key is nil when encryption is off.
func (e Encryption) Keys() (active []byte, fallback [][]byte, err error) {
	key := e.Key
	if env := os.Getenv(EncryptionKeyEnv); env != "" {
		key = env
	}
	if key == "" {
		return nil, nil, nil
	}
	if active, err = base64.StdEncoding.DecodeString(key); err != nil {
		return nil, nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	for i, k := range e.FallbackKeys {
		b, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid fallback key %d: %w", i, err)
		}
		fallback = append(fallback, b)
	}
	return active, fallback, nil
}

// Redis configures the redis driver and the distributed form lock.
type Redis struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
	Lock     bool          `yaml:"lock"`
}

// HTTP configures the serve command.
type HTTP struct {
	Address string `yaml:"address"`
	Metrics bool   `yaml:"metrics"`
	Events  bool   `yaml:"events"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		Store: Store{
			Driver: DriverMemory,
			Path:   "forms",
			Redis: Redis{
				Address: "localhost:6379",
				Prefix:  "formtree",
			},
		},
		HTTP: HTTP{
			Address: ":8080",
			Metrics: true,
			Events:  true,
		},
	}
}

// Load reads the file at path over the defaults.
// A missing file is not an error when path is DefaultFile.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && path == DefaultFile {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports unusable settings.
func (c Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case DriverMemory:
	case DriverFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file driver"))
		}
	case DriverRedis:
		if c.Store.Redis.Address == "" {
			errs = append(errs, errors.New("store.redis.address is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	if c.Store.Redis.Lock && c.Store.Driver != DriverRedis {
		errs = append(errs, errors.New("store.redis.lock requires the redis driver"))
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatText, logging.FormatJSON, "":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if _, _, err := c.Store.Encryption.Keys(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, falling back to info.
func (c Config) Level() slog.Level {
	lvl, err := logging.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}
