package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GOLOJAN"

// LoaderConfig holds optional file overrides for Load
type LoaderConfig struct {
	EnvFile    string
	ConfigFile string
}

// LoaderOption is a functional option for Load
type LoaderOption func(*LoaderConfig)

// WithEnvFile sets an explicit .env file path. A missing explicit file is an error.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithConfigFile sets a YAML/JSON/TOML config file read underneath the environment
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// Load builds a Config from defaults, an optional config file, an optional
// .env file and GOLOJAN_* environment variables, in increasing precedence.
func Load(opts ...LoaderOption) (Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	if err := loadEnvFile(lc.EnvFile); err != nil {
		return Config{}, err
	}

	v := viper.New()
	d := Default()
	v.SetDefault("auth_url", d.AuthURL)
	v.SetDefault("token_url", d.TokenURL)
	v.SetDefault("userinfo_url", d.UserinfoURL)
	v.SetDefault("api_url", d.APIURL)
	v.SetDefault("default_scope", d.DefaultScope)
	v.SetDefault("default_response_type", d.DefaultResponseType)
	v.SetDefault("code_challenge_method", d.CodeChallengeMethod)
	v.SetDefault("http_timeout", d.HTTPTimeout)

	if lc.ConfigFile != "" {
		v.SetConfigFile(lc.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", lc.ConfigFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// loadEnvFile loads the given .env file, or ./.env when present
func loadEnvFile(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}

	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat .env: %w", err)
	}
	if err := godotenv.Load(); err != nil {
		return fmt.Errorf("failed to load the env vars: %w", err)
	}
	return nil
}
