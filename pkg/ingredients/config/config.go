package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/ingredients/internal/logging"
	"github.com/cognicore/ingredients/pkg/ingredients/internalerr"
)

// Tagger kinds.
const (
	TaggerCRF   = "crf"
	TaggerHTTP  = "http"
	TaggerRules = "rules"
)

// MemoryCache selects the in-memory result cache.
const MemoryCache = ":memory:"

// Config is the full parser configuration, usually read from a YAML file
// and then overridden from the environment.
type Config struct {
	Tagger TaggerConfig `yaml:"tagger"`
	Parser ParserConfig `yaml:"parser"`
	Cache  CacheConfig  `yaml:"cache"`
	Units  UnitsConfig  `yaml:"units"`
	Log    LogConfig    `yaml:"log"`
	Server ServerConfig `yaml:"server"`
}

type TaggerConfig struct {
	Kind    string `yaml:"kind"`
	Binary  string `yaml:"binary"`
	Model   string `yaml:"model"`
	URL     string `yaml:"url"`
	Timeout string `yaml:"timeout"`
}

type ParserConfig struct {
	Workers int `yaml:"workers"`
}

// CacheConfig selects the result cache: empty disables it, MemoryCache
// keeps it in process, anything else is a SQLite file path.
type CacheConfig struct {
	Path string `yaml:"path"`
}

// UnitsConfig points at an optional YAML unit lexicon.
type UnitsConfig struct {
	Lexicon string `yaml:"lexicon"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Tagger: TaggerConfig{
			Kind:    TaggerCRF,
			Binary:  "crf_test",
			Timeout: "30s",
		},
		Parser: ParserConfig{Workers: min(runtime.NumCPU(), 8)},
		Log:    LogConfig{Level: "info", Format: "text"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from INGREDIENTS_* variables. A .env file in the
// working directory is loaded first; it never replaces variables that are
// already set.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Tagger.Kind = getEnv("INGREDIENTS_TAGGER", c.Tagger.Kind)
	c.Tagger.Model = getEnv("INGREDIENTS_MODEL", c.Tagger.Model)
	c.Tagger.Binary = getEnv("INGREDIENTS_CRF_BINARY", c.Tagger.Binary)
	c.Tagger.URL = getEnv("INGREDIENTS_TAGGER_URL", c.Tagger.URL)
	c.Tagger.Timeout = getEnv("INGREDIENTS_TIMEOUT", c.Tagger.Timeout)
	c.Parser.Workers = getEnvInt("INGREDIENTS_WORKERS", c.Parser.Workers)
	c.Cache.Path = getEnv("INGREDIENTS_CACHE", c.Cache.Path)
	c.Units.Lexicon = getEnv("INGREDIENTS_UNITS", c.Units.Lexicon)
	c.Log.Level = getEnv("INGREDIENTS_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("INGREDIENTS_LOG_FORMAT", c.Log.Format)
	c.Server.Addr = getEnv("INGREDIENTS_ADDR", c.Server.Addr)
}

// Validate checks that the configuration describes a usable parser.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Tagger.Kind) {
	case TaggerCRF:
		if c.Tagger.Model == "" {
			return fmt.Errorf("%w: tagger.model is required for the crf tagger", internalerr.ErrInvalidConfig)
		}
	case TaggerHTTP:
		if c.Tagger.URL == "" {
			return fmt.Errorf("%w: tagger.url is required for the http tagger", internalerr.ErrInvalidConfig)
		}
	case TaggerRules:
	default:
		return fmt.Errorf("%w: unknown tagger kind %q", internalerr.ErrInvalidConfig, c.Tagger.Kind)
	}

	if _, err := c.TaggerTimeout(); err != nil {
		return err
	}
	if c.Parser.Workers < 1 {
		return fmt.Errorf("%w: parser.workers must be positive, got %d", internalerr.ErrInvalidConfig, c.Parser.Workers)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return nil
}

// TaggerTimeout parses tagger.timeout. Empty means no timeout.
func (c *Config) TaggerTimeout() (time.Duration, error) {
	if c.Tagger.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Tagger.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: bad tagger.timeout %q", internalerr.ErrInvalidConfig, c.Tagger.Timeout)
	}
	return d, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
