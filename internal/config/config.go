// Package config reads settings from flags, falling back to environment
// variables (optionally from a .env file) and then to defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the storefront server configuration.
type Config struct {
	DBPath     string
	Addr       string
	LogPath    string
	Debug      bool
	AdminName  string
	AdminEmail string

	// APIURL is the base URL of the product, cart and checkout API.
	APIURL       string
	APITimeout   time.Duration
	PollInterval time.Duration

	SecureCookies bool
}

const usage = `Usage: trgovina [flags]

Flags:
  -d, -db <path>            SQLite database path (env TRGOVINA_DB, default: trgovina.sqlite3)
  -a, -addr <host:port>     listen address (env TRGOVINA_ADDR, default: :8080)
  -api <url>                storefront API base URL (env TRGOVINA_API_URL, default: http://localhost:9090)
  -api-timeout <duration>   API request timeout (env TRGOVINA_API_TIMEOUT, default: 15s)
  -poll <duration>          catalog refresh interval, 0 disables (env TRGOVINA_POLL, default: 30s)
  -u, -user <name>          admin name on first run (env TRGOVINA_ADMIN_NAME, default: Admin)
  -e, -email <address>      admin email on first run (env TRGOVINA_ADMIN_EMAIL, default: admin@localhost)
  -l, -log <path>           log file path (env TRGOVINA_LOG, default: stdout/stderr only)
  -debug                    log API requests (env TRGOVINA_DEBUG)
  -secure-cookies           mark session cookies Secure (env TRGOVINA_SECURE_COOKIES)
  -h, -help                 show this help and exit
`

// LoadEnv loads variables from the given .env files (default ".env") without
// overriding ones already set. Missing files are not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}
	return nil
}

// Parse reads the storefront configuration from args. It returns
// flag.ErrHelp after printing usage to out when help was requested.
func Parse(args []string, out io.Writer) (*Config, error) {
	flags := flag.NewFlagSet("trgovina", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, usage) }

	c := &Config{}
	stringVar(flags, &c.DBPath, GetEnv("TRGOVINA_DB", "trgovina.sqlite3"), "db", "d")
	stringVar(flags, &c.Addr, GetEnv("TRGOVINA_ADDR", ":8080"), "addr", "a")
	stringVar(flags, &c.APIURL, GetEnv("TRGOVINA_API_URL", "http://localhost:9090"), "api")
	stringVar(flags, &c.AdminName, GetEnv("TRGOVINA_ADMIN_NAME", "Admin"), "user", "u")
	stringVar(flags, &c.AdminEmail, GetEnv("TRGOVINA_ADMIN_EMAIL", "admin@localhost"), "email", "e")
	stringVar(flags, &c.LogPath, GetEnv("TRGOVINA_LOG", ""), "log", "l")
	flags.DurationVar(&c.APITimeout, "api-timeout", GetEnvDuration("TRGOVINA_API_TIMEOUT", 15*time.Second), "")
	flags.DurationVar(&c.PollInterval, "poll", GetEnvDuration("TRGOVINA_POLL", 30*time.Second), "")
	flags.BoolVar(&c.Debug, "debug", GetEnvBool("TRGOVINA_DEBUG", false), "")
	flags.BoolVar(&c.SecureCookies, "secure-cookies", GetEnvBool("TRGOVINA_SECURE_COOKIES", false), "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}
	if c.APITimeout <= 0 {
		return nil, fmt.Errorf("api-timeout must be positive")
	}
	if c.PollInterval < 0 {
		return nil, fmt.Errorf("poll must not be negative")
	}
	return c, nil
}

// stringVar binds every name in names to p.
func stringVar(flags *flag.FlagSet, p *string, value string, names ...string) {
	for _, name := range names {
		flags.StringVar(p, name, value, "")
	}
}

// GetEnv returns the variable key or fallback when unset.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvBool parses key as a bool, falling back when unset or malformed.
func GetEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

// GetEnvDuration parses key as a time.Duration, falling back when unset or
// malformed.
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
