package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const appName = "compass-backend"

// devJWTSecret is only used when neither --jwt-secret nor JWT_SECRET is set.
const devJWTSecret = "your_secret_key_please_change_in_production"

// Config is the fully resolved runtime configuration.
type Config struct {
	Addr           string        `mapstructure:"addr"`
	Env            string        `mapstructure:"env"`
	DatabaseURL    string        `mapstructure:"database-url"`
	CatalogFile    string        `mapstructure:"catalog-file"`
	JWTSecret      string        `mapstructure:"jwt-secret"`
	TokenTTL       time.Duration `mapstructure:"token-ttl"`
	SessionTTL     time.Duration `mapstructure:"session-ttl"`
	MaxSessions    int           `mapstructure:"max-sessions"`
	ChatRate       float64       `mapstructure:"chat-rate"`
	ChatBurst      int           `mapstructure:"chat-burst"`
	AllowedOrigins []string      `mapstructure:"allowed-origins"`
	Debug          bool          `mapstructure:"debug"`
	JSON           bool          `mapstructure:"json"`
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.PersistentFlags()
	f.String("addr", ":8080", "listen address")
	f.String("env", "development", "environment name (development|production)")
	f.String("database-url", "", "Postgres DSN to read the catalog from [env: DATABASE_URL]")
	f.String("catalog-file", "", "YAML catalog file used when no database is configured")
	f.String("jwt-secret", "", "HMAC secret for session tokens [env: JWT_SECRET]")
	f.Duration("token-ttl", 24*time.Hour, "lifetime of an issued session token")
	f.Duration("session-ttl", 30*time.Minute, "idle time after which a session is dropped")
	f.Int("max-sessions", 1000, "maximum number of live sessions")
	f.Float64("chat-rate", 2, "chat messages per second allowed per session")
	f.Int("chat-burst", 5, "chat burst size per session")
	f.StringSlice("allowed-origins", []string{
		"http://localhost:5173", "http://127.0.0.1:5173",
		"http://localhost:3001", "http://127.0.0.1:3001",
	}, "origins allowed by CORS")
	f.BoolP("debug", "d", false, "verbose/debug output")
	f.BoolP("json", "j", false, "json format for logging")

	if err := v.BindPFlags(f); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("COMPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, env := range map[string]string{
		"database-url": "DATABASE_URL",
		"jwt-secret":   "JWT_SECRET",
		"env":          "GO_ENV",
	} {
		if err := v.BindEnv(key, "COMPASS_"+strings.ToUpper(strings.ReplaceAll(key, "-", "_")), env); err != nil {
			return fmt.Errorf("binding %s environment variable: %w", env, err)
		}
	}
	return nil
}

// readConfigFile loads an explicit config file, or compass.yaml from the
// working directory when present. A missing default file is not an error.
func readConfigFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return v.ReadInConfig()
	}
	v.AddConfigPath(".")
	v.SetConfigName("compass")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func loadConfig(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.JWTSecret == "" {
		if cfg.Env == "production" {
			return nil, errors.New("jwt-secret is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}
	if cfg.MaxSessions <= 0 {
		return nil, fmt.Errorf("max-sessions must be positive, got %d", cfg.MaxSessions)
	}
	if cfg.ChatRate <= 0 || cfg.ChatBurst <= 0 {
		return nil, errors.New("chat-rate and chat-burst must be positive")
	}
	return &cfg, nil
}
