package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/weelo-captain/internal/flagx"
	"github.com/dmitrijs2005/weelo-captain/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// leave the corresponding Config field untouched.
type JsonConfig struct {
	BaseURL             string         `json:"base_url"`
	DatabasePath        string         `json:"database_path"`
	DeviceSecretFile    string         `json:"device_secret_file"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
	PinnedKeys          []string       `json:"pinned_keys"`

	RetryMaxAttempts int            `json:"retry_max_attempts"`
	RetryBaseDelay   timex.Duration `json:"retry_base_delay"`

	VehicleCacheTTL    timex.Duration `json:"vehicle_cache_ttl"`
	DriverCacheTTL     timex.Duration `json:"driver_cache_ttl"`
	AssignmentCacheTTL timex.Duration `json:"assignment_cache_ttl"`
	BroadcastCacheTTL  timex.Duration `json:"broadcast_cache_ttl"`
}

// parseJson overlays Config with values loaded from the JSON file passed via
// -c / -config. Panics on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigFile(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.BaseURL, jc.BaseURL)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DeviceSecretFile, jc.DeviceSecretFile)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	if len(jc.PinnedKeys) > 0 {
		cfg.PinnedKeys = jc.PinnedKeys
	}

	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.Retry.BaseDelay, jc.RetryBaseDelay)
	if jc.RetryMaxAttempts > 0 {
		cfg.Retry.MaxAttempts = jc.RetryMaxAttempts
	}

	setDuration(&cfg.Cache.Vehicles, jc.VehicleCacheTTL)
	setDuration(&cfg.Cache.Drivers, jc.DriverCacheTTL)
	setDuration(&cfg.Cache.Assignments, jc.AssignmentCacheTTL)
	setDuration(&cfg.Cache.Broadcasts, jc.BroadcastCacheTTL)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
