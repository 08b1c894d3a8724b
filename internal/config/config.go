package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App           AppConfig          `mapstructure:"app"`
	JWT           JWTConfig          `mapstructure:"jwt"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Redis         RedisConfig        `mapstructure:"redis"`
	NATS          NATSConfig         `mapstructure:"nats"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // gin mode: debug | release | test
}

type JWTConfig struct {
	Secret        string        `mapstructure:"secret"`
	AccessExpire  time.Duration `mapstructure:"access_expire"`
	RefreshExpire time.Duration `mapstructure:"refresh_expire"`
}

type DatabaseConfig struct {
	// URL is a postgres:// DSN, or a sqlite file path (":memory:", "dev.db")
	// for local development.
	URL string `mapstructure:"url"`
}

type RedisConfig struct {
	// Addr empty means "no redis": refresh sessions are kept in process memory.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type NATSConfig struct {
	// URL empty means "no nats": change events fan out in process.
	URL string `mapstructure:"url"`
}

type NotificationConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// Load reads configs/config.yaml (or the file at path, when given) and applies
// environment variable overrides on top. A missing config file is not an
// error; everything has a default or an env var.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("configs")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("app.name", "bookswap")
	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.mode", "debug")
	viper.SetDefault("jwt.access_expire", 24*time.Hour)
	viper.SetDefault("jwt.refresh_expire", 30*24*time.Hour)
	viper.SetDefault("database.url", "bookswap.db")
	viper.SetDefault("notifications.retention_days", 90)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.App.Port = getenv("PORT", c.App.Port)
	c.App.Mode = getenv("GIN_MODE", c.App.Mode)

	c.JWT.Secret = getenv("JWT_SECRET", c.JWT.Secret)
	c.JWT.AccessExpire = getenvDuration("JWT_ACCESS_EXPIRE", c.JWT.AccessExpire)
	c.JWT.RefreshExpire = getenvDuration("JWT_REFRESH_EXPIRE", c.JWT.RefreshExpire)

	c.Database.URL = getenv("DATABASE_URL", c.Database.URL)

	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("REDIS_DB", c.Redis.DB)

	c.NATS.URL = getenv("NATS_URL", c.NATS.URL)

	c.Notifications.RetentionDays = getenvInt("NOTIFICATION_RETENTION_DAYS", c.Notifications.RetentionDays)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
