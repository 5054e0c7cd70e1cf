package config

import (
	"os"
	"strconv"
	"time"

	pkgerrors "ocontest/pkg/errors"
	"ocontest/pkg/utils/logger"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL        = "https://api.ocontest.ir/v1"
	DefaultTimeout        = 10 * time.Second
	DefaultTokenStatePath = "configs/cli_state.json"
	DefaultHistoryFile    = "configs/cli_history"
	DefaultWatchInterval  = 2 * time.Second
	DefaultWatchTimeout   = 2 * time.Minute
	DefaultCacheTTL       = 30 * time.Minute
	DefaultCacheLocalSize = 256
)

// Environment overrides, applied after the YAML file.
const (
	EnvBaseURL   = "OCONTEST_BASE_URL"
	EnvToken     = "OCONTEST_TOKEN"
	EnvLogLevel  = "OCONTEST_LOG_LEVEL"
	EnvRedisAddr = "OCONTEST_REDIS_ADDR"
)

// CacheConfig selects where received results are kept. An empty RedisAddr keeps them in memory.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	RedisDB       int           `yaml:"redisDB"`
	TTL           time.Duration `yaml:"ttl"`
	LocalSize     int           `yaml:"localSize"`
}

// Config holds CLI configuration.
type Config struct {
	BaseURL        string        `yaml:"baseURL"`
	Timeout        time.Duration `yaml:"timeout"`
	TokenStatePath string        `yaml:"tokenStatePath"`
	PrettyJSON     *bool         `yaml:"prettyJSON"`
	AuthScheme     string        `yaml:"authScheme"`
	HistoryFile    string        `yaml:"historyFile"`
	// Debug makes out-of-range verdict codes fail decoding instead of reading as Unknown.
	Debug         bool          `yaml:"debug"`
	WatchInterval time.Duration `yaml:"watchInterval"`
	WatchTimeout  time.Duration `yaml:"watchTimeout"`
	Log           logger.Config `yaml:"log"`
	Cache         CacheConfig   `yaml:"cache"`

	// Token is only ever set from the environment or flags.
	Token string `yaml:"-"`
}

// Load reads the YAML file at path, then .env and OCONTEST_* overrides. A missing file
// leaves the defaults in place.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, pkgerrors.Wrapf(err, pkgerrors.ConfigInvalid, "parse config file failed: %v", err)
		}
	case os.IsNotExist(err):
	default:
		return cfg, pkgerrors.Wrapf(err, pkgerrors.ConfigInvalid, "read config file failed: %v", err)
	}

	// .env is optional; a missing file is not an error.
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvRedisAddr); v != "" {
		cfg.Cache.RedisAddr = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.TokenStatePath == "" {
		cfg.TokenStatePath = DefaultTokenStatePath
	}
	if cfg.PrettyJSON == nil {
		value := true
		cfg.PrettyJSON = &value
	}
	if cfg.HistoryFile == "" {
		cfg.HistoryFile = DefaultHistoryFile
	}
	if cfg.WatchInterval == 0 {
		cfg.WatchInterval = DefaultWatchInterval
	}
	if cfg.WatchTimeout == 0 {
		cfg.WatchTimeout = DefaultWatchTimeout
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "warn"
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.LocalSize == 0 {
		cfg.Cache.LocalSize = DefaultCacheLocalSize
	}
}

// Pretty reports whether raw JSON responses are indented.
func (c Config) Pretty() bool {
	return c.PrettyJSON != nil && *c.PrettyJSON
}

func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.Timeout, validation.Min(time.Millisecond)),
		validation.Field(&c.TokenStatePath, validation.Required),
		validation.Field(&c.WatchInterval, validation.Min(100*time.Millisecond)),
		validation.Field(&c.WatchTimeout, validation.Min(c.WatchInterval)),
		validation.Field(&c.Log, validation.By(func(interface{}) error {
			return validation.Validate(c.Log.Level, validation.In("debug", "info", "warn", "error"))
		})),
		validation.Field(&c.Cache, validation.By(func(interface{}) error {
			return validation.ValidateStruct(&c.Cache,
				validation.Field(&c.Cache.RedisDB, validation.Min(0)),
				validation.Field(&c.Cache.LocalSize, validation.Min(1)),
				validation.Field(&c.Cache.TTL, validation.Min(time.Second)),
			)
		})),
	)
	if err != nil {
		return pkgerrors.Wrapf(err, pkgerrors.ConfigInvalid, "invalid config: %v", err)
	}
	return nil
}

// String summarises the effective configuration for "show config".
func (c Config) String() string {
	cache := "memory(" + strconv.Itoa(c.Cache.LocalSize) + ")"
	if c.Cache.RedisAddr != "" {
		cache = "redis(" + c.Cache.RedisAddr + "/" + strconv.Itoa(c.Cache.RedisDB) + ")"
	}
	scheme := c.AuthScheme
	if scheme == "" {
		scheme = "<raw token>"
	}
	return "baseURL: " + c.BaseURL +
		"\ntimeout: " + c.Timeout.String() +
		"\ntokenStatePath: " + c.TokenStatePath +
		"\nauthScheme: " + scheme +
		"\nwatch: every " + c.WatchInterval.String() + " for up to " + c.WatchTimeout.String() +
		"\ncache: " + cache + " ttl " + c.Cache.TTL.String() +
		"\ndebug: " + strconv.FormatBool(c.Debug)
}
