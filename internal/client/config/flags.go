package config

import (
	"flag"
	"os"
	"time"

	"github.com/ccelrecreo/recreo/internal/flagx"
)

var knownFlags = []string{"-a", "-t", "-b", "-d", "-r", "-k", "-s", "-l"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   base URL of the loyalty API
//	-t int      request timeout in seconds
//	-b string   secure store backend (sqlite, redis, memory)
//	-d string   SQLite file
//	-r string   Redis address
//	-k string   device key file (empty disables encryption)
//	-s string   stale credential policy (keep, purge)
//	-l string   log level
//
// The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the loyalty API")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.StoreBackend, "b", cfg.StoreBackend, "secure store backend: sqlite, redis or memory")
	fs.StringVar(&cfg.StoreDSN, "d", cfg.StoreDSN, "SQLite session database")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "Redis address")
	fs.StringVar(&cfg.DeviceKeyFile, "k", cfg.DeviceKeyFile, "device key file, empty disables encryption")
	fs.StringVar(&cfg.StaleCredentialPolicy, "s", cfg.StaleCredentialPolicy, "stale credential policy: keep or purge")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}
