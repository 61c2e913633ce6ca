package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// WebServer Configuration
	WebServerPort   int    `mapstructure:"WEBSERVER_PORT" validate:"min=1,max=65535"`
	MaxSnapshotSize string `mapstructure:"MAX_SNAPSHOT_SIZE" validate:"required"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"LOG_FORMAT" validate:"oneof=text json"`

	// Access Code Configuration
	AccessCodeTTL     time.Duration `mapstructure:"ACCESS_CODE_TTL" validate:"gt=0"`
	RequireStreamCode bool          `mapstructure:"REQUIRE_STREAM_CODE"`
	VerifyRateLimit   float64       `mapstructure:"VERIFY_RATE_LIMIT" validate:"gte=0"`
	VerifyRateBurst   int           `mapstructure:"VERIFY_RATE_BURST" validate:"gte=0"`

	// TrustProxyHeaders reads the client IP from X-Forwarded-For set by a
	// reverse proxy on a private network.
	TrustProxyHeaders bool `mapstructure:"TRUST_PROXY_HEADERS"`

	// Viewer Configuration
	KeepaliveInterval time.Duration `mapstructure:"KEEPALIVE_INTERVAL" validate:"gt=0"`
	ViewerQueueSize   int           `mapstructure:"VIEWER_QUEUE_SIZE" validate:"min=2"`
	MaxViewers        int           `mapstructure:"MAX_VIEWERS" validate:"gte=0"`

	// Presenter Configuration
	SessionSecret         string `mapstructure:"SESSION_SECRET"`
	PresenterPasswordHash string `mapstructure:"PRESENTER_PASSWORD_HASH" validate:"omitempty,startswith=$argon2id$"`
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		fieldVal := val.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag != "" {
			viper.BindEnv(tag)
		}

		// Handle nested structs
		if field.Type.Kind() == reflect.Struct && tag == "" {
			nestedTyp := fieldVal.Type()
			for j := 0; j < fieldVal.NumField(); j++ {
				nestedField := nestedTyp.Field(j)
				nestedTag := nestedField.Tag.Get("mapstructure")
				if nestedTag != "" {
					viper.BindEnv(nestedTag)
				}
			}
		}
	}
	slog.Debug("Environment variables bound")
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("WEBSERVER_PORT", 8080)
	viper.SetDefault("MAX_SNAPSHOT_SIZE", "8M")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("ACCESS_CODE_TTL", "24h")
	viper.SetDefault("REQUIRE_STREAM_CODE", true)
	viper.SetDefault("VERIFY_RATE_LIMIT", 1.0)
	viper.SetDefault("VERIFY_RATE_BURST", 5)
	viper.SetDefault("TRUST_PROXY_HEADERS", false)
	viper.SetDefault("KEEPALIVE_INTERVAL", "30s")
	viper.SetDefault("VIEWER_QUEUE_SIZE", 16)
	viper.SetDefault("MAX_VIEWERS", 0)

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Secrets are left out of the log line.
	slog.Info("Loaded configuration",
		"port", cfg.WebServerPort,
		"log_level", cfg.LogLevel,
		"access_code_ttl", cfg.AccessCodeTTL,
		"keepalive_interval", cfg.KeepaliveInterval,
		"max_viewers", cfg.MaxViewers,
		"require_stream_code", cfg.RequireStreamCode,
		"trust_proxy_headers", cfg.TrustProxyHeaders,
		"presenter_auth", cfg.PresenterPasswordHash != "",
	)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// PresenterAuthEnabled reports whether presenter routes require a login.
func (c *Config) PresenterAuthEnabled() bool {
	return c.PresenterPasswordHash != ""
}
