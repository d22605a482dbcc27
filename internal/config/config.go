// Package config loads server configuration from an optional YAML file,
// an optional .env file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const minSecretLen = 32

// Config is the full server configuration
type Config struct {
	HTTPAddr string      `yaml:"http_addr"`
	Mongo    MongoConfig `yaml:"mongo"`
	Redis    RedisConfig `yaml:"redis"`
	JWT      JWTConfig   `yaml:"jwt"`
	CORS     CORSConfig  `yaml:"cors"`
	Cache    CacheConfig `yaml:"cache"`
	Log      LogConfig   `yaml:"log"`
	Live     LiveConfig  `yaml:"live"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	URI string `yaml:"uri"`
}

type JWTConfig struct {
	Secret    string        `yaml:"secret"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

// CORSConfig applies to REST responses and WebSocket origin checks
type CORSConfig struct {
	Origin string `yaml:"origin"`
}

type CacheConfig struct {
	TokenTTL   time.Duration `yaml:"token_ttl"`
	TokenSweep time.Duration `yaml:"token_sweep"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Env     string `yaml:"env"`
	Backend string `yaml:"backend"`
	Debug   bool   `yaml:"debug"`
}

// LiveConfig holds the real-time timing windows
type LiveConfig struct {
	Countdown    time.Duration `yaml:"countdown"`
	StoreTimeout time.Duration `yaml:"store_timeout"`
}

// Load reads .env, then CONFIG_PATH (if set), then environment overrides.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := &Config{}
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Mongo.URI = getEnv("MONGO_URI", cfg.Mongo.URI)
	cfg.Mongo.Database = getEnv("MONGO_DB", cfg.Mongo.Database)
	cfg.Redis.URI = getEnv("REDIS_URI", cfg.Redis.URI)
	cfg.JWT.Secret = getEnv("JWT_SECRET", cfg.JWT.Secret)
	cfg.JWT.ExpiresIn = getDuration("JWT_EXPIRES_IN", cfg.JWT.ExpiresIn)
	cfg.CORS.Origin = getEnv("CORS_ORIGIN", cfg.CORS.Origin)
	cfg.Cache.TokenTTL = getDuration("TOKEN_CACHE_TTL", cfg.Cache.TokenTTL)
	cfg.Cache.TokenSweep = getDuration("TOKEN_CACHE_SWEEP", cfg.Cache.TokenSweep)
	cfg.Cache.SessionTTL = getDuration("SESSION_CACHE_TTL", cfg.Cache.SessionTTL)
	cfg.Log.Env = getEnv("LOG_ENV", cfg.Log.Env)
	cfg.Log.Backend = getEnv("LOG_BACKEND", cfg.Log.Backend)
	cfg.Log.Debug = getBool("LOG_DEBUG", cfg.Log.Debug)
	cfg.Live.Countdown = getDuration("LIVE_COUNTDOWN", cfg.Live.Countdown)
}

func applyDefaults(cfg *Config) {
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.Mongo.URI == "" {
		cfg.Mongo.URI = "mongodb://localhost:27017"
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "livepoll"
	}
	if cfg.Redis.URI == "" {
		cfg.Redis.URI = "redis://localhost:6379/0"
	}
	if cfg.JWT.ExpiresIn == 0 {
		cfg.JWT.ExpiresIn = 24 * time.Hour
	}
	if cfg.CORS.Origin == "" {
		cfg.CORS.Origin = "*"
	}
	if cfg.Cache.TokenTTL == 0 {
		cfg.Cache.TokenTTL = 30 * time.Second
	}
	if cfg.Cache.TokenSweep == 0 {
		cfg.Cache.TokenSweep = 60 * time.Second
	}
	if cfg.Cache.SessionTTL == 0 {
		cfg.Cache.SessionTTL = 10 * time.Minute
	}
	if cfg.Live.Countdown == 0 {
		cfg.Live.Countdown = 5 * time.Second
	}
	if cfg.Live.StoreTimeout == 0 {
		cfg.Live.StoreTimeout = 10 * time.Second
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []string

	if len(c.JWT.Secret) < minSecretLen {
		errs = append(errs, fmt.Sprintf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.JWT.ExpiresIn < 0 {
		errs = append(errs, "JWT_EXPIRES_IN must be positive")
	}
	if c.Cache.TokenTTL < 0 || c.Cache.TokenSweep < 0 {
		errs = append(errs, "token cache intervals must be positive")
	}

	if len(errs) > 0 {
		return errors.New("config validation errors: " + strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return defaultVal
}
