// Package config loads runtime configuration for the captain client.
//
// Sources & precedence
//
//  1. Build-time values and defaults (see (*Config).LoadDefaults and package buildinfo).
//  2. Optional dotenv file (-e / -env, or ./.env when present) with CAPTAIN_* variables.
//  3. Optional JSON file selected via -c / -config.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   backend base URL (ignored in production builds)
//	-i int      online status check interval (seconds)
//	-d string   path of the local SQLite database
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
// Durations accept strings like "30s" or integer nanoseconds:
//
//	{
//	  "base_url": "http://127.0.0.1:8080/api/v1",
//	  "database_path": "captain.db",
//	  "online_check_interval": "3s",
//	  "request_timeout": "30s",
//	  "log_level": "debug",
//	  "log_format": "json",
//	  "pinned_keys": ["base64-sha256-of-spki"],
//	  "retry_max_attempts": 3,
//	  "retry_base_delay": "1s",
//	  "vehicle_cache_ttl": "2m",
//	  "driver_cache_ttl": "2m",
//	  "assignment_cache_ttl": "1m",
//	  "broadcast_cache_ttl": "30s"
//	}
package config
