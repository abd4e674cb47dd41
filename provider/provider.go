// Package provider describes Golojan as an OAuth 2.0 or OpenID Connect
// provider in the shape auth frameworks consume.
package provider

import (
	"maps"
	"slices"

	"github.com/golojan/golojan-auth/config"
)

const (
	ID   = "golojan"
	Name = "Golojan"

	// AuthMethodClientSecretPost sends client credentials in the token request body
	AuthMethodClientSecretPost = "client_secret_post"
	// AuthMethodClientSecretBasic sends client credentials with HTTP Basic auth
	AuthMethodClientSecretBasic = "client_secret_basic"
)

// Variant selects the protocol a descriptor declares
type Variant string

const (
	VariantOAuth Variant = "oauth"
	VariantOIDC  Variant = "oidc"
)

// Check is a verification the framework performs on the callback
type Check string

const (
	CheckPKCE  Check = "pkce"
	CheckState Check = "state"
	CheckNone  Check = "none"
)

// Endpoint is a provider URL with optional default query parameters
type Endpoint struct {
	URL    string            `json:"url" yaml:"url"`
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// ClientOptions holds client registration metadata
type ClientOptions struct {
	TokenEndpointAuthMethod  string `json:"token_endpoint_auth_method" yaml:"token_endpoint_auth_method"`
	IDTokenSignedResponseAlg string `json:"id_token_signed_response_alg,omitempty" yaml:"id_token_signed_response_alg,omitempty"`
}

// ProfileFunc maps a decoded userinfo payload to a framework user
type ProfileFunc func(Profile) (User, error)

// UserConfig is the caller's partial provider configuration. Nil and empty
// fields take Golojan defaults.
type UserConfig struct {
	ClientID      string
	ClientSecret  string
	Authorization *Endpoint
	Token         *Endpoint
	Userinfo      *Endpoint
	Profile       ProfileFunc
	// Checks are added after the mandatory pkce and state checks; unknown values are dropped
	Checks []string
	Client *ClientOptions
	// Extra carries any further framework fields unchanged
	Extra map[string]any
}

// Descriptor is a fully populated provider configuration
type Descriptor struct {
	ID            string         `json:"id" yaml:"id"`
	Name          string         `json:"name" yaml:"name"`
	Type          Variant        `json:"type" yaml:"type"`
	ClientID      string         `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	ClientSecret  string         `json:"-" yaml:"-"`
	Authorization Endpoint       `json:"authorization" yaml:"authorization"`
	Token         Endpoint       `json:"token" yaml:"token"`
	Userinfo      Endpoint       `json:"userinfo" yaml:"userinfo"`
	Profile       ProfileFunc    `json:"-" yaml:"-"`
	Checks        []Check        `json:"checks" yaml:"checks"`
	Client        ClientOptions  `json:"client" yaml:"client"`
	Extra         map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// New returns a descriptor for the default Golojan endpoints
func New(variant Variant, user UserConfig) Descriptor {
	return NewWithConfig(config.Default(), variant, user)
}

// OAuth returns an OAuth 2.0 descriptor for the default Golojan endpoints
func OAuth(user UserConfig) Descriptor {
	return New(VariantOAuth, user)
}

// OIDC returns an OpenID Connect descriptor for the default Golojan endpoints
func OIDC(user UserConfig) Descriptor {
	return New(VariantOIDC, user)
}

// NewWithConfig layers the caller configuration over the endpoints and
// defaults in cfg.
func NewWithConfig(cfg config.Config, variant Variant, user UserConfig) Descriptor {
	if variant != VariantOIDC {
		variant = VariantOAuth
	}

	profile := user.Profile
	if profile == nil {
		profile = MapProfile
	}

	return Descriptor{
		ID:            ID,
		Name:          Name,
		Type:          variant,
		ClientID:      user.ClientID,
		ClientSecret:  user.ClientSecret,
		Authorization: authorization(cfg, user.Authorization),
		Token:         endpoint(cfg.TokenURL, user.Token),
		Userinfo:      endpoint(cfg.UserinfoURL, user.Userinfo),
		Profile:       profile,
		Checks:        mergeChecks(user.Checks),
		Client:        client(user.Client),
		Extra:         maps.Clone(user.Extra),
	}
}

func authorization(cfg config.Config, user *Endpoint) Endpoint {
	ep := Endpoint{
		URL:    cfg.AuthURL,
		Params: map[string]string{"scope": cfg.DefaultScope},
	}
	if user == nil {
		return ep
	}
	if user.URL != "" {
		ep.URL = user.URL
	}
	maps.Copy(ep.Params, user.Params)
	return ep
}

func endpoint(def string, user *Endpoint) Endpoint {
	if user == nil {
		return Endpoint{URL: def}
	}
	ep := Endpoint{URL: user.URL, Params: maps.Clone(user.Params)}
	if ep.URL == "" {
		ep.URL = def
	}
	return ep
}

// mergeChecks always includes pkce and state, even when the caller passes none
func mergeChecks(user []string) []Check {
	checks := []Check{CheckPKCE, CheckState}
	for _, raw := range user {
		c := Check(raw)
		switch c {
		case CheckPKCE, CheckState, CheckNone:
		default:
			continue
		}
		if !slices.Contains(checks, c) {
			checks = append(checks, c)
		}
	}
	return checks
}

func client(user *ClientOptions) ClientOptions {
	c := ClientOptions{TokenEndpointAuthMethod: AuthMethodClientSecretPost}
	if user == nil {
		return c
	}
	if user.TokenEndpointAuthMethod != "" {
		c.TokenEndpointAuthMethod = user.TokenEndpointAuthMethod
	}
	c.IDTokenSignedResponseAlg = user.IDTokenSignedResponseAlg
	return c
}

// HasCheck reports whether the descriptor requests check c
func (d Descriptor) HasCheck(c Check) bool {
	return slices.Contains(d.Checks, c)
}

// UserFromPayload decodes a raw userinfo payload and maps it with the descriptor's profile function
func (d Descriptor) UserFromPayload(data []byte) (User, error) {
	p, err := DecodeProfile(data)
	if err != nil {
		return User{}, err
	}
	profile := d.Profile
	if profile == nil {
		profile = MapProfile
	}
	return profile(p)
}
