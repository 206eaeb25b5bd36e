package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAPIURL         = "http://localhost:8000/api/v1"
	defaultLogLevel       = "info"
	defaultRequestTimeout = "10s"
	defaultPerPage        = 20
	defaultStorageDriver  = "bolt"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	APIURL         string `yaml:"apiURL"`
	LogLevel       string `yaml:"logLevel"`
	RequestTimeout string `yaml:"requestTimeout"`
	PerPage        int    `yaml:"perPage"`
	StorageDriver  string `yaml:"storageDriver"`
	StoragePath    string `yaml:"storagePath"`
	StorageSecret  string `yaml:"storageSecret"`
	RedisAddr      string `yaml:"redisAddr"`
	RedisPassword  string `yaml:"redisPassword"`
	TokenLeeway    string `yaml:"tokenLeeway"`
}

// Load reads config from path (defaults to config.yaml). A missing file is
// not an error: defaults and environment overrides still apply.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("SEMICOLON_API_URL"); v != "" {
		cfg.APIURL = strings.TrimSpace(v)
	}
	if v := os.Getenv("SEMICOLON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.TrimSpace(v)
	}
	if v := os.Getenv("SEMICOLON_REQUEST_TIMEOUT"); v != "" {
		cfg.RequestTimeout = strings.TrimSpace(v)
	}
	if v := os.Getenv("SEMICOLON_PER_PAGE"); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.PerPage = n
		}
	}
	if v := os.Getenv("SEMICOLON_STORAGE_DRIVER"); v != "" {
		cfg.StorageDriver = v
	}
	if v := os.Getenv("SEMICOLON_STORAGE_PATH"); v != "" {
		cfg.StoragePath = strings.TrimSpace(v)
	}
	if v := os.Getenv("SEMICOLON_STORAGE_SECRET"); v != "" {
		cfg.StorageSecret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("SEMICOLON_TOKEN_LEEWAY"); v != "" {
		cfg.TokenLeeway = strings.TrimSpace(v)
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaultLogLevel
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.PerPage == 0 {
		cfg.PerPage = defaultPerPage
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	if cfg.StorageDriver == "" {
		cfg.StorageDriver = defaultStorageDriver
	}
	if cfg.StorageDriver == "bolt" && cfg.StoragePath == "" {
		cfg.StoragePath = defaultStoragePath()
	}
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "semicolon", "session.db")
}

func validateConfig(cfg FileConfig) error {
	u, err := url.Parse(cfg.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: apiURL %q must be an absolute URL (set in config.yaml or SEMICOLON_API_URL)", cfg.APIURL)
	}
	if cfg.PerPage < 1 || cfg.PerPage > 100 {
		return errors.New("config: perPage must be between 1 and 100")
	}
	if _, err := ParseRequestTimeout(cfg.RequestTimeout); err != nil {
		return err
	}
	if _, err := ParseTokenLeeway(cfg.TokenLeeway); err != nil {
		return err
	}
	switch cfg.StorageDriver {
	case "none", "memory":
	case "bolt":
		if strings.TrimSpace(cfg.StoragePath) == "" {
			return errors.New("config: storagePath is required for the bolt driver")
		}
	case "redis":
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return errors.New("config: redisAddr is required for the redis driver (set in config.yaml or REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("config: unknown storageDriver %q (none, memory, bolt, redis)", cfg.StorageDriver)
	}
	return nil
}

// ParseRequestTimeout parses the per-request timeout.
func ParseRequestTimeout(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid requestTimeout duration: %w", err)
	}
	if dur <= 0 {
		return 0, errors.New("config: requestTimeout must be > 0")
	}
	return dur, nil
}

// ParseTokenLeeway parses optional token leeway duration string.
func ParseTokenLeeway(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid tokenLeeway duration: %w", err)
	}
	if dur < 0 {
		return 0, errors.New("config: tokenLeeway must be >= 0")
	}
	return dur, nil
}
