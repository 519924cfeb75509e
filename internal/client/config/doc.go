// Package config loads runtime configuration for the Recreo CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c or -config, or the
//     RECREO_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the loyalty API
//	-t int      request timeout (seconds)
//	-b string   secure store backend: sqlite, redis, memory
//	-d string   SQLite session database
//	-r string   Redis address
//	-k string   device key file (empty disables encryption at rest)
//	-s string   stale credential policy: keep, purge
//	-l string   log level
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "15s" or integer
// nanoseconds. Only the keys present override earlier values:
//
//	{
//	  "api_base_url": "https://backend.ccelrecreo.com/server.php/api",
//	  "request_timeout": "15s",
//	  "store_backend": "redis",
//	  "redis_addr": "10.0.0.5:6379",
//	  "device_key_file": "",
//	  "stale_credential_policy": "purge",
//	  "log_level": "debug"
//	}
package config
