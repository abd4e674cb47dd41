package authenticator

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/golojan/golojan-auth/config"
	"github.com/golojan/golojan-auth/pkce"
)

// StateSize is the number of random bytes in a generated state token
const StateSize = 24

const issuedAtLayout = "2006-01-02T15:04:05.000Z"

// Builder constructs PKCE-protected authorization URLs. It holds no per-call
// state and is safe for concurrent use.
type Builder struct {
	cfg config.Config
	gen pkce.Generator
	now func() time.Time
	log zerolog.Logger
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithRandom sets the random source used for PKCE salts and state tokens
func WithRandom(r io.Reader) BuilderOption {
	return func(b *Builder) { b.gen = pkce.Generator{Rand: r} }
}

// WithClock sets the clock used for IssuedAt
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) { b.now = now }
}

// WithLogger sets the builder logger
func WithLogger(l zerolog.Logger) BuilderOption {
	return func(b *Builder) { b.log = l }
}

// NewBuilder creates a Builder for the given configuration
func NewBuilder(cfg config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg: cfg,
		now: time.Now,
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Authorize builds an authorization request against the default Golojan configuration
func Authorize(creds Credentials, opts *Options) (*Response, error) {
	return NewBuilder(config.Default()).Build(creds, opts)
}

// Build validates the credentials, resolves the options, derives a PKCE pair
// and returns the authorization URL with every parameter it encodes.
func (b *Builder) Build(creds Credentials, opts *Options) (*Response, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	resolved, err := Normalize(b.cfg, opts, nil)
	if err != nil {
		return nil, err
	}

	pair := b.gen.Derive(creds.ClientSecret)

	state := resolved.State
	if state == "" {
		state = b.gen.Token(StateSize)
	}

	params := map[string]string{
		"client_id":             creds.ClientID,
		"redirect_uri":          resolved.RedirectURI,
		"response_type":         resolved.ResponseType,
		"scope":                 ScopeString(resolved.Scope, b.cfg.DefaultScope),
		"state":                 state,
		"code_challenge":        pair.CodeChallenge,
		"code_challenge_method": b.cfg.CodeChallengeMethod,
	}
	for k, v := range resolved.ExtraParams {
		if v.IsNull() {
			continue
		}
		params[k] = v.String()
	}

	uri, err := buildAuthorizeURL(resolved.AuthURL, params)
	if err != nil {
		return nil, err
	}

	b.log.Debug().
		Str("client_id", creds.ClientID).
		Str("endpoint", resolved.AuthURL).
		Int("params", len(params)).
		Msg("built authorization request")

	return &Response{
		URI:           uri,
		Success:       true,
		State:         state,
		IssuedAt:      b.now().UTC().Format(issuedAtLayout),
		CodeVerifier:  pair.CodeVerifier,
		CodeChallenge: pair.CodeChallenge,
		Params:        params,
	}, nil
}

// buildAuthorizeURL replaces any query string on base with params
func buildAuthorizeURL(base string, params map[string]string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return "", &ValidationError{
			Field:   "options.authUrl",
			Message: fmt.Sprintf("invalid authorization endpoint: %s", base),
		}
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()
	u.ForceQuery = false

	return u.String(), nil
}
