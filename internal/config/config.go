// Package config loads service settings: defaults, then an optional config
// file, then environment, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "JOBSAPI"

// keys
const (
	KeyPort           = "port"
	KeyDBURL          = "db_url"
	KeyDBSchema       = "db_schema"
	KeyAutoMigrate    = "auto_migrate"
	KeyEnumsDir       = "enums_dir"
	KeyLogLevel       = "log_level"
	KeyLogFormat      = "log_format"
	KeyCORSOrigins    = "cors_origins"
	KeyRateLimitRPS   = "rate_limit_rps"
	KeyRateLimitBurst = "rate_limit_burst"
	KeyMetrics        = "metrics_enabled"
)

type Config struct {
	Port        string
	DBURL       string // пусто = in-memory
	DBSchema    string
	AutoMigrate bool
	EnumsDir    string

	LogLevel  string
	LogFormat string // "text" | "json"

	CORSOrigins    []string
	RateLimitRPS   float64 // 0 = без ограничения
	RateLimitBurst int
	MetricsEnabled bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, "3000")
	v.SetDefault(KeyDBURL, "")
	v.SetDefault(KeyDBSchema, "public")
	v.SetDefault(KeyAutoMigrate, true)
	v.SetDefault(KeyEnumsDir, "reference/enums")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyCORSOrigins, []string{"*"})
	v.SetDefault(KeyRateLimitRPS, 0.0)
	v.SetDefault(KeyRateLimitBurst, 20)
	v.SetDefault(KeyMetrics, true)
}

// short environment names kept for hosting platforms that inject them
var legacyEnv = map[string]string{
	KeyPort:     "PORT",
	KeyDBURL:    "DATABASE_URL",
	KeyDBSchema: "DATABASE_SCHEMA",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to config file (yaml/json)")
	fs.String("port", "", "HTTP port")
	fs.String("db", "", "Postgres URL (empty = in-memory)")
	fs.String("db-schema", "", "Postgres schema")
	fs.Bool("auto-migrate", true, "Create tables on first connect")
	fs.String("enums", "", "Path to enums directory")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (text, json)")
}

var flagKeys = map[string]string{
	"port":         KeyPort,
	"db":           KeyDBURL,
	"db-schema":    KeyDBSchema,
	"auto-migrate": KeyAutoMigrate,
	"enums":        KeyEnumsDir,
	"log-level":    KeyLogLevel,
	"log-format":   KeyLogFormat,
}

// Load builds the config. fs may be nil; only flags the user actually set
// override the other layers.
func Load(fs *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	path := ""
	if fs != nil {
		if f := fs.Lookup("config"); f != nil {
			path = strings.TrimSpace(f.Value.String())
		}
	}
	if err := readFile(v, path); err != nil {
		return Config{}, err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		if err := v.BindEnv(key, envPrefix+"_"+strings.ToUpper(key), name); err != nil {
			return Config{}, err
		}
	}

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, err
			}
		}
	}

	cfg := Config{
		Port:           strings.TrimSpace(v.GetString(KeyPort)),
		DBURL:          strings.TrimSpace(v.GetString(KeyDBURL)),
		DBSchema:       strings.TrimSpace(v.GetString(KeyDBSchema)),
		AutoMigrate:    v.GetBool(KeyAutoMigrate),
		EnumsDir:       strings.TrimSpace(v.GetString(KeyEnumsDir)),
		LogLevel:       strings.ToLower(strings.TrimSpace(v.GetString(KeyLogLevel))),
		LogFormat:      strings.ToLower(strings.TrimSpace(v.GetString(KeyLogFormat))),
		CORSOrigins:    splitList(v.GetStringSlice(KeyCORSOrigins)),
		RateLimitRPS:   v.GetFloat64(KeyRateLimitRPS),
		RateLimitBurst: v.GetInt(KeyRateLimitBurst),
		MetricsEnabled: v.GetBool(KeyMetrics),
	}
	return cfg, cfg.validate()
}

func readFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
		return nil
	}
	v.SetConfigName("jobsapi")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// env "a,b" приходит одной строкой
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func (c Config) validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is empty"))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format %q: want text or json", c.LogFormat))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_rps %v: must not be negative", c.RateLimitRPS))
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit_burst %d: must be positive", c.RateLimitBurst))
	}
	return errors.Join(errs...)
}

// Addr is the listen address.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// InMemory reports whether no database is configured.
func (c Config) InMemory() bool { return c.DBURL == "" }

// Getenv is os.Getenv with a fallback, used before the config is loaded.
func Getenv(k, fallback string) string {
	if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
		return v
	}
	return fallback
}
