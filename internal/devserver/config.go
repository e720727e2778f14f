package devserver

import (
	"encoding/json"
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/flagx"
	"github.com/dmitrijs2005/weelo-captain/internal/timex"
)

// Config holds the settings of the development backend.
//
// The defaults are insecure and meant for local use only.
type Config struct {
	Addr                         string
	Prefix                       string
	SecretKey                    string
	OTP                          string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	Seed                         bool
}

func (c *Config) LoadDefaults() {
	c.Addr = ":8080"
	c.Prefix = "/api/v1"
	c.SecretKey = "dev-secret"
	c.OTP = "123456"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.Seed = true
}

// LoadConfig applies defaults, then an optional JSON file (-c), then flags.
func LoadConfig(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}

type jsonConfig struct {
	Addr                         string         `json:"addr"`
	Prefix                       string         `json:"prefix"`
	SecretKey                    string         `json:"secret_key"`
	OTP                          string         `json:"otp"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	c := &jsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.Addr != "" {
		cfg.Addr = c.Addr
	}
	if c.Prefix != "" {
		cfg.Prefix = c.Prefix
	}
	if c.SecretKey != "" {
		cfg.SecretKey = c.SecretKey
	}
	if c.OTP != "" {
		cfg.OTP = c.OTP
	}
	if c.AccessTokenValidityDuration.Duration > 0 {
		cfg.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		cfg.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
}

// parseFlags reads
//
//	-a string   listen address
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
func parseFlags(cfg *Config, args []string) {
	filtered := flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-r"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "address and port to listen on")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	access := fs.Int("t", int(cfg.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refresh := fs.Int("r", int(cfg.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")

	if err := fs.Parse(filtered); err != nil {
		panic(err)
	}

	cfg.AccessTokenValidityDuration = time.Duration(*access) * time.Minute
	cfg.RefreshTokenValidityDuration = time.Duration(*refresh) * time.Minute
}
