package config

import (
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/buildinfo"
)

const EnvProduction = "production"

// RetryConfig controls the retry interceptor: MaxAttempts counts the first
// try, delays grow as BaseDelay, 2*BaseDelay, 4*BaseDelay...
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// CacheConfig holds the validity window of each caching repository.
type CacheConfig struct {
	Vehicles    time.Duration
	Drivers     time.Duration
	Assignments time.Duration
	Broadcasts  time.Duration
}

// Config holds runtime settings for the captain client.
//
// BaseURL, Environment and CertificatePinning come from the build (see
// buildinfo); the remaining fields can be tuned through .env, JSON or flags.
type Config struct {
	BaseURL            string
	Environment        string
	CertificatePinning bool
	PinnedKeys         []string

	DatabasePath string
	// DeviceSecret, when set, keys the token encryption. Otherwise a random
	// secret is kept in DeviceSecretFile (default: DatabasePath + ".key").
	DeviceSecret     string
	DeviceSecretFile string

	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration

	LogLevel  string
	LogFormat string

	Retry                  RetryConfig
	HTTPCacheMaxAge        time.Duration
	Cache                  CacheConfig
	LocationUpdateInterval time.Duration
}

// LoadDefaults populates c with build-time values and sensible defaults.
func (c *Config) LoadDefaults() {
	c.BaseURL = buildinfo.BaseURL
	c.Environment = buildinfo.Environment
	c.CertificatePinning = buildinfo.PinningEnabled()
	c.PinnedKeys = nil

	c.DatabasePath = "captain.db"
	c.DeviceSecret = ""
	c.DeviceSecretFile = ""

	c.OnlineCheckInterval = 3 * time.Second
	c.RequestTimeout = 30 * time.Second

	c.LogLevel = "info"
	c.LogFormat = "text"

	c.Retry = RetryConfig{MaxAttempts: 3, BaseDelay: time.Second}
	c.HTTPCacheMaxAge = 5 * time.Minute
	c.Cache = CacheConfig{
		Vehicles:    2 * time.Minute,
		Drivers:     2 * time.Minute,
		Assignments: time.Minute,
		Broadcasts:  30 * time.Second,
	}
	c.LocationUpdateInterval = 5 * time.Second
}

// IsProduction reports whether this is a production build.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// a dotenv file, JSON (if present) and command-line flags. Later sources take
// precedence over earlier ones. Production builds keep the build-time base URL.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, args)
	parseJson(cfg, args)
	parseFlags(cfg, args)

	if cfg.IsProduction() {
		cfg.BaseURL = buildinfo.BaseURL
	}
	return cfg
}

// SecretFile is where the generated device secret lives. It is empty for
// in-memory databases, whose tokens do not outlive the process.
func (c *Config) SecretFile() string {
	if c.DeviceSecretFile != "" {
		return c.DeviceSecretFile
	}
	if c.DatabasePath == "" || c.DatabasePath == ":memory:" || strings.HasPrefix(c.DatabasePath, "file:") {
		return ""
	}
	return c.DatabasePath + ".key"
}
