package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port              string `mapstructure:"port"`
	DBDriver          string `mapstructure:"db_driver"`
	MongoURI          string `mapstructure:"mongodb_uri"`
	MongoDatabase     string `mapstructure:"mongodb_database"`
	DatabaseURL       string `mapstructure:"db_dsn"`
	DBConnectAttempts int    `mapstructure:"db_connect_attempts"`

	LowStockThreshold       int    `mapstructure:"low_stock_threshold"`
	DefaultLang             string `mapstructure:"default_lang"`
	ShopName                string `mapstructure:"shop_name"`
	ShopTimezone            string `mapstructure:"shop_timezone"`
	DashboardRefreshSeconds int    `mapstructure:"dashboard_refresh_seconds"`

	RateLimitPerMinute int `mapstructure:"rate_limit_per_min"`
	RateLimitBurst     int `mapstructure:"rate_limit_burst"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	OTLPEndpoint     string  `mapstructure:"otel_exporter_otlp_endpoint"`
	OTLPInsecure     bool    `mapstructure:"otel_exporter_otlp_insecure"`
	TraceSampleRatio float64 `mapstructure:"otel_traces_sampler_arg"`
}

var defaults = map[string]any{
	"port":                      "8080",
	"db_driver":                 DriverMongo,
	"mongodb_uri":               "mongodb://localhost:27017",
	"mongodb_database":          "rayan",
	"db_dsn":                    "",
	"db_connect_attempts":       5,
	"low_stock_threshold":       5,
	"default_lang":              "ar",
	"shop_name":                 "مركز الرايان لخدمات السيارات",
	"shop_timezone":             "",
	"dashboard_refresh_seconds": 7,
	"rate_limit_per_min":        120,
	"rate_limit_burst":          30,
	"log_level":                 "info",
	"log_format":                "json",

	"otel_exporter_otlp_endpoint": "",
	"otel_exporter_otlp_insecure": false,
	"otel_traces_sampler_arg":     1.0,
}

// New returns a viper instance with every key defaulted and bound to its
// upper-case environment variable.
func New() (*viper.Viper, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return v, nil
}

func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.DBDriver == DriverPostgres && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DB_DSN is required for the postgres driver")
	}
	if cfg.DBConnectAttempts <= 0 {
		cfg.DBConnectAttempts = 1
	}
	if cfg.DashboardRefreshSeconds <= 0 {
		cfg.DashboardRefreshSeconds = 7
	}
	cfg.OTLPEndpoint = strings.TrimSpace(cfg.OTLPEndpoint)
	if cfg.TraceSampleRatio < 0 || cfg.TraceSampleRatio > 1 {
		cfg.TraceSampleRatio = 1
	}
	if _, err := cfg.Location(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location is the zone day and week reports are cut in.
func (c Config) Location() (*time.Location, error) {
	if c.ShopTimezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		return nil, fmt.Errorf("load SHOP_TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c Config) DashboardRefresh() time.Duration {
	return time.Duration(c.DashboardRefreshSeconds) * time.Second
}
