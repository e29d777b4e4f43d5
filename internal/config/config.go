// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file,
// a .env file and environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

// Duration is a time.Duration that reads "24h"-style strings from JSON.
type Duration struct {
	time.Duration
}

// UnmarshalJSON accepts either a duration string or a number of seconds.
func (d *Duration) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if n, ok := raw.(float64); ok {
		d.Duration = time.Duration(n * float64(time.Second))
		return nil
	}
	v, err := cast.ToDurationE(raw)
	if err != nil {
		return fmt.Errorf("parse duration %s: %w", b, err)
	}
	d.Duration = v
	return nil
}

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN holds the PostgreSQL connection string. When empty the
	// in-memory product store is used.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// EnvFile is the path to an optional .env file.
	EnvFile string `json:"-"`

	// SecretKey signs session tokens.
	SecretKey string `json:"secret_key"`

	// TokenTTL is the lifetime of an issued session token.
	TokenTTL Duration `json:"token_ttl"`

	// UploadDir is the directory holding uploaded product images.
	UploadDir string `json:"upload_dir"`

	// PublicPrefix is the URL path under which uploads are served.
	PublicPrefix string `json:"public_prefix"`

	// AllowedExtensions lists the accepted upload extensions, dot included.
	AllowedExtensions []string `json:"allowed_extensions"`

	// MaxUploadBytes caps the size of a multipart request body.
	MaxUploadBytes int64 `json:"max_upload_bytes"`

	// DefaultLimit and MaxLimit bound the page size of product listings.
	DefaultLimit int `json:"default_limit"`
	MaxLimit     int `json:"max_limit"`

	// ReclaimAt is the daily time of day (HH:MM) of the orphan sweep.
	ReclaimAt string `json:"reclaim_at"`

	// ReclaimGrace protects files younger than this from the sweep.
	ReclaimGrace Duration `json:"reclaim_grace"`

	// Location is the time zone the reclaim schedule is anchored in.
	Location string `json:"location"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// AdminUsername and AdminPassword are used by the seeder.
	AdminUsername string `json:"admin_username"`
	AdminPassword string `json:"admin_password"`
}

// envOverrides mirrors Options for environment variables. Empty values are ignored.
type envOverrides struct {
	Port              string `env:"SERVER_ADDRESS"`
	DatabaseDSN       string `env:"DATABASE_DSN"`
	SecretKey         string `env:"SECRET_KEY"`
	TokenTTL          string `env:"TOKEN_TTL"`
	UploadDir         string `env:"UPLOAD_DIR"`
	PublicPrefix      string `env:"PUBLIC_PREFIX"`
	AllowedExtensions string `env:"ALLOWED_EXTENSIONS"`
	MaxUploadBytes    string `env:"MAX_UPLOAD_BYTES"`
	DefaultLimit      string `env:"DEFAULT_LIMIT"`
	MaxLimit          string `env:"MAX_LIMIT"`
	ReclaimAt         string `env:"RECLAIM_AT"`
	ReclaimGrace      string `env:"RECLAIM_GRACE"`
	Location          string `env:"TZ_LOCATION"`
	LogLevel          string `env:"LOG_LEVEL"`
	AdminUsername     string `env:"ADMIN_USERNAME"`
	AdminPassword     string `env:"ADMIN_PASSWORD"`
}

// options holds the current configuration values.
var options = Default()

var extensions string

// init initializes command-line flags and sets default values.
func init() {
	flag.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	flag.StringVar(&options.DatabaseDSN, "d", "", "db address (empty: in-memory store)")
	flag.StringVar(&options.Config, "config", "config.json", "path to config file")
	flag.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	flag.StringVar(&options.EnvFile, "env", ".env", "path to .env file")
	flag.StringVar(&options.UploadDir, "uploads", options.UploadDir, "upload directory")
	flag.DurationVar(&options.TokenTTL.Duration, "ttl", options.TokenTTL.Duration, "session token lifetime")
	flag.StringVar(&options.ReclaimAt, "reclaim-at", options.ReclaimAt, "daily orphan sweep time (HH:MM)")
	flag.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	flag.StringVar(&extensions, "ext", "", "comma separated allowed upload extensions")
}

// Default returns the built-in configuration.
func Default() *Options {
	return &Options{
		Port:              "localhost:8080",
		Config:            "config.json",
		EnvFile:           ".env",
		TokenTTL:          Duration{24 * time.Hour},
		UploadDir:         "uploads",
		PublicPrefix:      "/uploads",
		AllowedExtensions: []string{".jpg", ".jpeg", ".png"},
		MaxUploadBytes:    10 << 20,
		DefaultLimit:      10,
		MaxLimit:          100,
		ReclaimAt:         "03:00",
		ReclaimGrace:      Duration{time.Minute},
		Location:          "Local",
		LogLevel:          "info",
		AdminUsername:     "admin",
	}
}

// Parse parses the command-line flags and environment variables to set
// configuration values. It returns a pointer to the Options struct containing
// the parsed configuration values.
func Parse() *Options {
	flag.Parse()

	if extensions != "" {
		options.AllowedExtensions = splitList(extensions)
	}

	// Override flags with environment variables if set
	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				log.Fatalf("error while reading config file: %v", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				log.Fatalf("error while parsing config file: %v", err)
			}
		}
	}

	if options.EnvFile != "" {
		if _, err := os.Stat(options.EnvFile); err == nil {
			if err := godotenv.Load(options.EnvFile); err != nil {
				log.Fatalf("error while reading env file: %v", err)
			}
		}
	}

	if err := ApplyEnv(options); err != nil {
		log.Fatalf("error while reading environment: %v", err)
	}

	return options
}

// ApplyEnv overrides o with the non-empty environment variables listed in envOverrides.
func ApplyEnv(o *Options) error {
	var e envOverrides
	if _, err := env.UnmarshalFromEnviron(&e); err != nil {
		return err
	}

	setString(&o.Port, e.Port)
	setString(&o.DatabaseDSN, e.DatabaseDSN)
	setString(&o.SecretKey, e.SecretKey)
	setString(&o.UploadDir, e.UploadDir)
	setString(&o.PublicPrefix, e.PublicPrefix)
	setString(&o.ReclaimAt, e.ReclaimAt)
	setString(&o.Location, e.Location)
	setString(&o.LogLevel, e.LogLevel)
	setString(&o.AdminUsername, e.AdminUsername)
	setString(&o.AdminPassword, e.AdminPassword)

	if e.AllowedExtensions != "" {
		o.AllowedExtensions = splitList(e.AllowedExtensions)
	}

	var err error
	if e.TokenTTL != "" {
		if o.TokenTTL.Duration, err = cast.ToDurationE(e.TokenTTL); err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
	}
	if e.ReclaimGrace != "" {
		if o.ReclaimGrace.Duration, err = cast.ToDurationE(e.ReclaimGrace); err != nil {
			return fmt.Errorf("RECLAIM_GRACE: %w", err)
		}
	}
	if e.MaxUploadBytes != "" {
		if o.MaxUploadBytes, err = cast.ToInt64E(e.MaxUploadBytes); err != nil {
			return fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
		}
	}
	if e.DefaultLimit != "" {
		if o.DefaultLimit, err = cast.ToIntE(e.DefaultLimit); err != nil {
			return fmt.Errorf("DEFAULT_LIMIT: %w", err)
		}
	}
	if e.MaxLimit != "" {
		if o.MaxLimit, err = cast.ToIntE(e.MaxLimit); err != nil {
			return fmt.Errorf("MAX_LIMIT: %w", err)
		}
	}
	return nil
}

// ReclaimSpec converts ReclaimAt into a daily cron expression ("MM HH * * *").
func (o *Options) ReclaimSpec() (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(o.ReclaimAt))
	if err != nil {
		return "", fmt.Errorf("reclaim time %q: %w", o.ReclaimAt, err)
	}
	return fmt.Sprintf("%d %d * * *", t.Minute(), t.Hour()), nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
