package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileEnv names the environment variable holding an optional YAML
// config file. Values from the file are applied before environment overrides.
const ConfigFileEnv = "BLOSSOM_CONFIG"

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL    string
	CatalogPath string // Catalog file to play; empty means the embedded story
	CatalogDir  string // Directory listed by the catalog endpoints
	DBPath      string // SQLite file for console saves and settings
	SessionTTL  time.Duration

	SceneDelay time.Duration // Loading pause before a scene's first step
	TextSpeed  time.Duration // Default typewriter tick

	SSHAddr    string
	SSHHostKey string
}

// fileConfig mirrors Config in the YAML file. Durations are Go duration strings.
type fileConfig struct {
	Port        string `yaml:"port"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
	RedisURL    string `yaml:"redis_url"`
	CatalogPath string `yaml:"catalog_path"`
	CatalogDir  string `yaml:"catalog_dir"`
	DBPath      string `yaml:"db_path"`
	SessionTTL  string `yaml:"session_ttl"`
	SceneDelay  string `yaml:"scene_delay"`
	TextSpeed   string `yaml:"text_speed"`
	SSHAddr     string `yaml:"ssh_addr"`
	SSHHostKey  string `yaml:"ssh_host_key"`
}

func defaults() fileConfig {
	return fileConfig{
		Port:        "8080",
		Environment: "development",
		LogLevel:    "info",
		RedisURL:    "redis://localhost:6379",
		DBPath:      "~/.blossom/saves.db",
		SessionTTL:  "24h",
		SceneDelay:  "1s",
		TextSpeed:   "50ms",
		SSHAddr:     ":2222",
		SSHHostKey:  "~/.blossom/ssh_host_ed25519",
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by BLOSSOM_CONFIG, and environment variables, in that order.
func Load() (*Config, error) {
	fc := defaults()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := overlayFile(&fc, path); err != nil {
			return nil, err
		}
	}

	fc.Port = getEnv("PORT", fc.Port)
	fc.Environment = getEnv("ENVIRONMENT", fc.Environment)
	fc.LogLevel = getEnv("LOG_LEVEL", fc.LogLevel)
	fc.RedisURL = getEnv("REDIS_URL", fc.RedisURL)
	fc.CatalogPath = getEnv("CATALOG_PATH", fc.CatalogPath)
	fc.CatalogDir = getEnv("CATALOG_DIR", fc.CatalogDir)
	fc.DBPath = getEnv("DB_PATH", fc.DBPath)
	fc.SessionTTL = getEnv("SESSION_TTL", fc.SessionTTL)
	fc.SceneDelay = getEnv("SCENE_DELAY", fc.SceneDelay)
	fc.TextSpeed = getEnv("TEXT_SPEED", fc.TextSpeed)
	fc.SSHAddr = getEnv("SSH_ADDR", fc.SSHAddr)
	fc.SSHHostKey = getEnv("SSH_HOST_KEY", fc.SSHHostKey)

	return fc.resolve()
}

func overlayFile(fc *fileConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&fc.Port, file.Port)
	set(&fc.Environment, file.Environment)
	set(&fc.LogLevel, file.LogLevel)
	set(&fc.RedisURL, file.RedisURL)
	set(&fc.CatalogPath, file.CatalogPath)
	set(&fc.CatalogDir, file.CatalogDir)
	set(&fc.DBPath, file.DBPath)
	set(&fc.SessionTTL, file.SessionTTL)
	set(&fc.SceneDelay, file.SceneDelay)
	set(&fc.TextSpeed, file.TextSpeed)
	set(&fc.SSHAddr, file.SSHAddr)
	set(&fc.SSHHostKey, file.SSHHostKey)
	return nil
}

func (fc fileConfig) resolve() (*Config, error) {
	cfg := &Config{
		Port:        fc.Port,
		Environment: fc.Environment,
		LogLevel:    parseLogLevel(fc.LogLevel),
		RedisURL:    fc.RedisURL,
		CatalogPath: fc.CatalogPath,
		CatalogDir:  fc.CatalogDir,
		DBPath:      fc.DBPath,
		SSHAddr:     fc.SSHAddr,
		SSHHostKey:  fc.SSHHostKey,
	}

	var err error
	if cfg.SessionTTL, err = parseDuration("session_ttl", fc.SessionTTL); err != nil {
		return nil, err
	}
	if cfg.SceneDelay, err = parseDuration("scene_delay", fc.SceneDelay); err != nil {
		return nil, err
	}
	if cfg.TextSpeed, err = parseDuration("text_speed", fc.TextSpeed); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func parseDuration(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, value)
	}
	return d, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
