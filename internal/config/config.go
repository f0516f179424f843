package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/patternbot/internal/version"
)

// Cache drivers.
const (
	CacheDriverNone   = "none"
	CacheDriverRedis  = "redis"
	CacheDriverValkey = "valkey"
)

// maxCacheTTLSec bounds how long a cached pattern document may be served.
const maxCacheTTLSec = 3600

// Config holds the patternbot configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Discord  DiscordConfig  `yaml:"discord"`
	Patterns PatternsConfig `yaml:"patterns"`
	Cache    CacheConfig    `yaml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DiscordConfig holds platform credentials.
type DiscordConfig struct {
	PublicKey  string `yaml:"public_key"` // hex Ed25519 key used to verify interactions
	BotToken   string `yaml:"bot_token"`
	AppID      string `yaml:"app_id"`
	APIBaseURL string `yaml:"api_base_url"`
	UserAgent  string `yaml:"user_agent"`
}

// PatternsConfig holds upstream pattern source settings.
type PatternsConfig struct {
	SourceURL       string `yaml:"source_url"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_sec"` // 0 = transport default
	CacheTTLSec     int    `yaml:"cache_ttl_sec"`     // 0 = refetch on every query
}

// CacheConfig holds the optional cache store connection settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, redis, valkey (default: none)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a cache store is configured.
func (c CacheConfig) Enabled() bool {
	return c.Driver != CacheDriverNone
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded into the
// process environment first; variables already set are not overridden.
func Load(env string) (Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}

	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Discord.APIBaseURL == "" {
		c.Discord.APIBaseURL = "https://discord.com/api/v10"
	}
	if c.Discord.UserAgent == "" {
		c.Discord.UserAgent = version.UserAgent()
	}
	if c.Patterns.SourceURL == "" {
		c.Patterns.SourceURL = "https://raw.githubusercontent.com/hannibal002/SkyHanni-REPO/main/constants/regexes.json"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheDriverNone
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
}

// Validate checks settings shared by every binary.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Patterns.FetchTimeoutSec < 0 {
		return fmt.Errorf("patterns.fetch_timeout_sec must not be negative, got %d", c.Patterns.FetchTimeoutSec)
	}
	if c.Patterns.CacheTTLSec < 0 || c.Patterns.CacheTTLSec > maxCacheTTLSec {
		return fmt.Errorf("patterns.cache_ttl_sec must be between 0 and %d, got %d",
			maxCacheTTLSec, c.Patterns.CacheTTLSec)
	}
	switch c.Cache.Driver {
	case CacheDriverNone:
		if c.Patterns.CacheTTLSec > 0 {
			return fmt.Errorf("patterns.cache_ttl_sec requires cache.driver to be %q or %q",
				CacheDriverRedis, CacheDriverValkey)
		}
	case CacheDriverRedis, CacheDriverValkey:
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for driver %q", c.Cache.Driver)
		}
		if c.Patterns.CacheTTLSec == 0 {
			return fmt.Errorf("cache.driver %q requires patterns.cache_ttl_sec > 0", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("cache.driver must be %q, %q or %q, got %q",
			CacheDriverNone, CacheDriverRedis, CacheDriverValkey, c.Cache.Driver)
	}
	return nil
}

// ValidateServer checks settings required to serve interactions.
func (c *Config) ValidateServer() error {
	if c.Discord.PublicKey == "" {
		return fmt.Errorf("discord.public_key is required")
	}
	key, err := hex.DecodeString(c.Discord.PublicKey)
	if err != nil || len(key) != 32 {
		return fmt.Errorf("discord.public_key must be 64 hex characters")
	}
	return nil
}

// ValidateRegistrar checks settings required to register commands.
func (c *Config) ValidateRegistrar() error {
	if c.Discord.BotToken == "" {
		return fmt.Errorf("discord.bot_token is required")
	}
	if c.Discord.AppID == "" {
		return fmt.Errorf("discord.app_id is required")
	}
	return nil
}

// loadDotEnv loads path into the process environment. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
