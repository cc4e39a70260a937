package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the main struct that holds all configuration for the application.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Transport TransportConfig `mapstructure:",squash"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
}

// LoggerConfig holds logging-specific settings.
type LoggerConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig holds HTTP server-specific settings.
type HTTPConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// TemplatesConfig controls where templates are read from and how compiled templates are kept.
type TemplatesConfig struct {
	Root  string `mapstructure:"root"`
	Ext   string `mapstructure:"ext"`
	Cache bool   `mapstructure:"cache"`
	// Watch reloads changed templates without a restart. Requires Cache.
	Watch bool `mapstructure:"watch"`
}

// TransportConfig holds everything the transport selector needs.
type TransportConfig struct {
	// Environment picks the transport: test-like values capture messages,
	// anything else delivers them through SMTP.
	Environment string     `mapstructure:"environment"`
	SMTP        SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig holds SMTP relay settings for the network transport.
// User and Pass are optional; without User the relay is used unauthenticated.
type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	From string `mapstructure:"from"`
}

// PostgresConfig holds all settings for the PostgreSQL receipt journal.
// An empty DSN keeps the journal in memory.
type PostgresConfig struct {
	DSN     string     `mapstructure:"dsn"`
	Migrate bool       `mapstructure:"migrate"`
	Pool    PoolConfig `mapstructure:"pool"`
}

// PoolConfig defines the connection pool settings for the database.
type PoolConfig struct {
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MaxIdleConns    int32         `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig holds all settings for the Redis receipt cache.
// An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// NewConfig reads configs/config.yaml (if present) and environment variables.
func NewConfig() (*Config, error) {
	return Load("configs")
}

// Load parses config.yaml from dir and overlays environment variables,
// e.g. SMTP_HOST overrides smtp.host. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent from the file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("logger.level", "info")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("http.gin_mode", "release")

	v.SetDefault("templates.root", "templates/emails")
	v.SetDefault("templates.ext", ".hbs")
	v.SetDefault("templates.cache", true)
	v.SetDefault("templates.watch", false)

	v.SetDefault("smtp.host", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.user", "")
	v.SetDefault("smtp.pass", "")
	v.SetDefault("smtp.from", "no-reply@localhost")

	v.SetDefault("postgres.dsn", "")
	v.SetDefault("postgres.migrate", true)
	v.SetDefault("postgres.pool.max_open_conns", 10)
	v.SetDefault("postgres.pool.max_idle_conns", 2)
	v.SetDefault("postgres.pool.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)
}
