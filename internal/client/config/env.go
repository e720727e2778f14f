package config

import (
	"os"
	"strings"

	"github.com/dmitrijs2005/weelo-captain/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv loads a dotenv file (explicit -e path, or ./.env if it exists)
// into the process environment and overlays CAPTAIN_* variables. Variables
// already present in the environment win over the file.
func parseEnv(cfg *Config, args []string) {
	if path := flagx.EnvFile(args); path != "" {
		if err := godotenv.Load(path); err != nil {
			panic(err)
		}
	} else if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	if v := os.Getenv("CAPTAIN_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("CAPTAIN_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("CAPTAIN_DEVICE_SECRET"); v != "" {
		cfg.DeviceSecret = v
	}
	if v := os.Getenv("CAPTAIN_DEVICE_SECRET_FILE"); v != "" {
		cfg.DeviceSecretFile = v
	}
	if v := os.Getenv("CAPTAIN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CAPTAIN_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("CAPTAIN_PINNED_KEYS"); v != "" {
		cfg.PinnedKeys = splitList(v)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
