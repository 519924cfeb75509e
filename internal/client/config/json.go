package config

import (
	"encoding/json"
	"os"

	"github.com/ccelrecreo/recreo/internal/flagx"
	"github.com/ccelrecreo/recreo/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// Pointers tell fields that are absent from fields set to their zero
// value, so "device_key_file": "" can switch encryption off.
type JsonConfig struct {
	APIBaseURL            *string         `json:"api_base_url"`
	RequestTimeout        *timex.Duration `json:"request_timeout"`
	StoreBackend          *string         `json:"store_backend"`
	StoreDSN              *string         `json:"store_dsn"`
	RedisAddr             *string         `json:"redis_addr"`
	DeviceKeyFile         *string         `json:"device_key_file"`
	StaleCredentialPolicy *string         `json:"stale_credential_policy"`
	LogLevel              *string         `json:"log_level"`
}

// parseJson overlays Config with the fields present in the JSON file named
// by -c/-config (or RECREO_CONFIG). Without a path nothing changes.
//
// Panics on read or unmarshal errors (caller should recover if desired).
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
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

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.StoreBackend, jc.StoreBackend)
	setString(&cfg.StoreDSN, jc.StoreDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.DeviceKeyFile, jc.DeviceKeyFile)
	setString(&cfg.StaleCredentialPolicy, jc.StaleCredentialPolicy)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
