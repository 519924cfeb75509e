package config

import "time"

// DefaultAPIBaseURL is the production loyalty API.
const DefaultAPIBaseURL = "https://backend.ccelrecreo.com/server.php/api"

// Config holds runtime settings for the Recreo CLI.
//
// Fields:
//   - APIBaseURL: base URL of the loyalty API, without a trailing slash.
//   - RequestTimeout: per-request HTTP timeout.
//   - StoreBackend: secure store backend, one of sqlite, redis, memory.
//   - StoreDSN: SQLite file (sqlite backend only).
//   - RedisAddr: host:port of the Redis server (redis backend only).
//   - DeviceKeyFile: file holding the at-rest encryption key. Empty disables
//     encryption.
//   - StaleCredentialPolicy: keep or purge a saved credential the API rejects.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	APIBaseURL            string
	RequestTimeout        time.Duration
	StoreBackend          string
	StoreDSN              string
	RedisAddr             string
	DeviceKeyFile         string
	StaleCredentialPolicy string
	LogLevel              string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = DefaultAPIBaseURL
	c.RequestTimeout = 15 * time.Second
	c.StoreBackend = "sqlite"
	c.StoreDSN = "session.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.DeviceKeyFile = "device.key"
	c.StaleCredentialPolicy = "keep"
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
