package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Port     int
	Env      string
	LogLevel string

	Database Database

	JWTSecret string
	TokenTTL  time.Duration

	CacheTTL           time.Duration
	CacheFlushSchedule string

	CORSOrigins []string

	Twilio Twilio
}

type Database struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type Twilio struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

// Enabled reports whether SMS receipts can be sent.
func (t Twilio) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.FromNumber != ""
}

// DSN builds the postgres connection string the way the driver expects it.
func (d Database) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads settings.toml (optional) and the environment. A .env file in
// the working directory is loaded first.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_driver", DriverPostgres)
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "polls")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "polls")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("sqlite_path", "polls.db")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("token_ttl", "72h")
	v.SetDefault("cache_ttl", "10m")
	v.SetDefault("cache_flush_schedule", "@every 30m")
	v.SetDefault("cors_origins", "*")
	v.SetDefault("twilio_account_sid", "")
	v.SetDefault("twilio_auth_token", "")
	v.SetDefault("twilio_from_number", "")
}

func fromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Port:     v.GetInt("port"),
		Env:      v.GetString("app_env"),
		LogLevel: v.GetString("log_level"),
		Database: Database{
			Driver:     strings.ToLower(v.GetString("db_driver")),
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			SSLMode:    v.GetString("db_sslmode"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		JWTSecret:          v.GetString("jwt_secret"),
		TokenTTL:           v.GetDuration("token_ttl"),
		CacheTTL:           v.GetDuration("cache_ttl"),
		CacheFlushSchedule: v.GetString("cache_flush_schedule"),
		CORSOrigins:        splitList(v.GetString("cors_origins")),
		Twilio: Twilio{
			AccountSID: v.GetString("twilio_account_sid"),
			AuthToken:  v.GetString("twilio_auth_token"),
			FromNumber: v.GetString("twilio_from_number"),
		},
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET required")
	}
	if cfg.Database.Driver != DriverPostgres && cfg.Database.Driver != DriverSQLite {
		return Config{}, fmt.Errorf("unsupported DB_DRIVER %q (use postgres or sqlite)", cfg.Database.Driver)
	}
	if cfg.Port <= 0 {
		return Config{}, errors.New("invalid PORT")
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("TOKEN_TTL must be positive")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
