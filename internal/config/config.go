// internal/config/config.go
//
// Runtime configuration for the quiz server and the dbtool CLI.
// Responsibilities:
//   - Loading .env (if present) so local development matches deployment.
//   - Layering sources with koanf: defaults < YAML file < environment < flags.
//   - Validating the merged result before anything opens a socket or a database.
//   - Configuring the zerolog global logger from the loaded settings.
//
// Environment names keep the short upper-case form used in deployment
// (PORT, LOG_LEVEL, JWT_SECRET, ...). Flags use the dashed form of the
// same key (--db-driver, --log-level, ...).

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

// Config is the merged server configuration.
type Config struct {
	Port           int    `koanf:"port" validate:"min=1,max=65535"`
	LogLevel       string `koanf:"log_level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Production     bool   `koanf:"production"`
	DBDriver       string `koanf:"db_driver" validate:"oneof=sqlite3 postgres mysql"`
	DBPath         string `koanf:"db_path" validate:"required_if=DBDriver sqlite3"`
	DBURL          string `koanf:"db_url" validate:"required_unless=DBDriver sqlite3"`
	JWTSecret      string `koanf:"jwt_secret" validate:"required"`
	JWTExpiresDays int    `koanf:"jwt_expires_days" validate:"min=1,max=365"`
	CookieName     string `koanf:"cookie_name" validate:"required"`
	AnonCookieName string `koanf:"anon_cookie_name" validate:"required"`
	ClientOrigin   string `koanf:"client_origin"`
	DailySalt      string `koanf:"daily_salt" validate:"required"`
	DailyQuestions int    `koanf:"daily_questions" validate:"min=1,max=100"`
	SeedFile       string `koanf:"seed_file" validate:"omitempty,file"`

	// Minutes a recorded session stays readable before it is evicted.
	SessionRetentionMinutes int `koanf:"session_retention_minutes" validate:"min=1,max=1440"`
}

// SessionRetention is how long recorded sessions are kept in memory.
func (c *Config) SessionRetention() time.Duration {
	return time.Duration(c.SessionRetentionMinutes) * time.Minute
}

// JWTTTL is the lifetime of issued auth tokens.
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

var defaults = map[string]any{
	"port":             5175,
	"log_level":        "info",
	"production":       false,
	"db_driver":        "sqlite3",
	"db_path":          "./data/synquiz.db",
	"jwt_secret":       "dev-secret-change-me",
	"jwt_expires_days": 14,
	"cookie_name":      "synquiz_token",
	"anon_cookie_name": "synquiz_anon",
	"client_origin":    "http://localhost:5173",
	"daily_salt":       "synquiz-daily",
	"daily_questions":  10,

	"session_retention_minutes": 15,
}

// envKeys maps accepted environment variables onto config keys.
// Anything not listed is ignored so unrelated variables cannot leak in.
var envKeys = map[string]string{
	"PORT":             "port",
	"LOG_LEVEL":        "log_level",
	"DB_DRIVER":        "db_driver",
	"DB_PATH":          "db_path",
	"DB_URL":           "db_url",
	"DATABASE_URL":     "db_url",
	"JWT_SECRET":       "jwt_secret",
	"JWT_EXPIRES_DAYS": "jwt_expires_days",
	"COOKIE_NAME":      "cookie_name",
	"ANON_COOKIE_NAME": "anon_cookie_name",
	"CLIENT_ORIGIN":    "client_origin",
	"DAILY_SALT":       "daily_salt",
	"DAILY_QUESTIONS":  "daily_questions",
	"SEED_FILE":        "seed_file",

	"SESSION_RETENTION_MINUTES": "session_retention_minutes",
	"SYNQUIZ_CONFIG":   "config",
}

// FlagSet returns the flags shared by every binary. name is used in usage output.
func FlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML config file")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("log-level", "", "zerolog level (debug, info, warn, ...)")
	fs.Bool("production", false, "production mode (JSON logs, secure cookies)")
	fs.String("db-driver", "", "database driver: sqlite3, postgres or mysql")
	fs.String("db-path", "", "SQLite database file")
	fs.String("db-url", "", "PostgreSQL/MySQL connection URL")
	fs.String("seed-file", "", "word list used to seed an empty word bank")
	return fs
}

// Load merges defaults, the optional YAML file, the environment and the
// parsed flags, in that order, and validates the result. fs must already
// have been parsed; only flags the user actually set override other sources.
func Load(fs *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	for key, v := range defaults {
		k.Set(key, v)
	}
	if os.Getenv("NODE_ENV") == "production" || os.Getenv("APP_ENV") == "production" {
		k.Set("production", true)
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	path := k.String("config")
	if fs != nil {
		if p, _ := fs.GetString("config"); p != "" {
			path = p
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		// environment still wins over the file
		if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
			return nil, fmt.Errorf("load env: %w", err)
		}
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, flagKey(fs)), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and returns a readable error listing
// every failing key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, ", "))
}

func envKey(s string) string {
	return envKeys[s]
}

// flagKey turns --db-driver into db_driver and skips flags left at their default.
func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
	}
}

// SetupLogging configures the zerolog global logger. Outside production the
// output is the human-readable console writer.
func SetupLogging(c *Config) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339
	if !c.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
