package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName        = "pomodoro_tui"
	configFileName = "config.yaml"
)

// Environment variables that override the config file.
const (
	EnvDatabase    = "POMODORO_DB"
	EnvLogFile     = "POMODORO_LOG_FILE"
	EnvLogLevel    = "POMODORO_LOG_LEVEL"
	EnvMetricsAddr = "POMODORO_METRICS_ADDR"
	EnvBell        = "POMODORO_BELL"
)

// Config holds the runtime settings.
type Config struct {
	DatabasePath string
	LogFile      string
	LogLevel     string
	Bell         bool
	MetricsAddr  string
}

type yamlConfig struct {
	Database    string `yaml:"database"`
	LogFile     string `yaml:"log_file"`
	LogLevel    string `yaml:"log_level"`
	Bell        *bool  `yaml:"bell"`
	MetricsAddr string `yaml:"metrics_addr"`
}

// Default returns settings that keep all files in dir.
func Default(dir string) Config {
	return Config{
		DatabasePath: filepath.Join(dir, "pomodoro.db"),
		LogFile:      filepath.Join(dir, "pomodoro.log"),
		LogLevel:     "info",
		Bell:         true,
	}
}

// DefaultPath is the config file location under the user config dir.
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, AppName, configFileName), nil
}

// Load reads the YAML file at path and applies environment overrides.
// A missing file yields defaults rooted next to path.
func Load(path string) (Config, error) {
	cfg := Default(filepath.Dir(path))

	rawData, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config file: %w", err)
	default:
		var fileData yamlConfig
		if err := yaml.Unmarshal(rawData, &fileData); err != nil {
			return cfg, fmt.Errorf("parse config yaml: %w", err)
		}
		applyYaml(&cfg, fileData)
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env style files into the process environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Save writes cfg as YAML, creating the parent directory.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	bell := cfg.Bell
	serialized, err := yaml.Marshal(yamlConfig{
		Database:    cfg.DatabasePath,
		LogFile:     cfg.LogFile,
		LogLevel:    cfg.LogLevel,
		Bell:        &bell,
		MetricsAddr: cfg.MetricsAddr,
	})
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Level maps the configured level name to a slog level. Unknown names are info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func applyYaml(cfg *Config, fileData yamlConfig) {
	if fileData.Database != "" {
		cfg.DatabasePath = fileData.Database
	}
	if fileData.LogFile != "" {
		cfg.LogFile = fileData.LogFile
	}
	if fileData.LogLevel != "" {
		cfg.LogLevel = fileData.LogLevel
	}
	if fileData.Bell != nil {
		cfg.Bell = *fileData.Bell
	}
	cfg.MetricsAddr = fileData.MetricsAddr
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvDatabase); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv(EnvBell); v != "" {
		bell, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvBell, err)
		}
		cfg.Bell = bell
	}
	return nil
}
