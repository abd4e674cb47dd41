package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/go-playground/validator/v10"
)

// Golojan endpoints and protocol defaults
const (
	DefaultAuthURL      = "https://accounts.golojan.com/oauth2/authorize"
	DefaultTokenURL     = "https://accounts.golojan.com/oauth2/token"
	DefaultUserinfoURL  = "https://accounts.golojan.com/oauth2/userinfo"
	DefaultAPIURL       = "https://api.golojan.com/v1/auth"
	DefaultResponseType = "code"
	CodeChallengeMethod = "S256"
	DefaultHTTPTimeout  = 10 * time.Second
)

// DefaultScope is the scope requested when the caller supplies none.
var DefaultScope = strings.Join([]string{oidc.ScopeOpenID, "profile", "email"}, " ")

// Config holds the provider endpoints and protocol defaults. It is built once
// and passed by value into every component.
type Config struct {
	AuthURL             string        `mapstructure:"auth_url" yaml:"auth_url" validate:"required,url"`
	TokenURL            string        `mapstructure:"token_url" yaml:"token_url" validate:"required,url"`
	UserinfoURL         string        `mapstructure:"userinfo_url" yaml:"userinfo_url" validate:"required,url"`
	APIURL              string        `mapstructure:"api_url" yaml:"api_url" validate:"required,url"`
	DefaultScope        string        `mapstructure:"default_scope" yaml:"default_scope" validate:"required"`
	DefaultResponseType string        `mapstructure:"default_response_type" yaml:"default_response_type" validate:"required"`
	CodeChallengeMethod string        `mapstructure:"code_challenge_method" yaml:"code_challenge_method" validate:"required,oneof=S256"`
	HTTPTimeout         time.Duration `mapstructure:"http_timeout" yaml:"http_timeout" validate:"gt=0"`
}

// Default returns the built-in Golojan configuration
func Default() Config {
	return Config{
		AuthURL:             DefaultAuthURL,
		TokenURL:            DefaultTokenURL,
		UserinfoURL:         DefaultUserinfoURL,
		APIURL:              DefaultAPIURL,
		DefaultScope:        DefaultScope,
		DefaultResponseType: DefaultResponseType,
		CodeChallengeMethod: CodeChallengeMethod,
		HTTPTimeout:         DefaultHTTPTimeout,
	}
}

// ApplyDefaults fills zero-valued fields from Default
func (c *Config) ApplyDefaults() {
	d := Default()
	if c.AuthURL == "" {
		c.AuthURL = d.AuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = d.TokenURL
	}
	if c.UserinfoURL == "" {
		c.UserinfoURL = d.UserinfoURL
	}
	if c.APIURL == "" {
		c.APIURL = d.APIURL
	}
	if c.DefaultScope == "" {
		c.DefaultScope = d.DefaultScope
	}
	if c.DefaultResponseType == "" {
		c.DefaultResponseType = d.DefaultResponseType
	}
	if c.CodeChallengeMethod == "" {
		c.CodeChallengeMethod = d.CodeChallengeMethod
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = d.HTTPTimeout
	}
}

// Validate checks that every endpoint is an absolute URL and the timeout is positive
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
