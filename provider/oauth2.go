package provider

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// OAuth2Config returns the descriptor as an oauth2.Config. The redirect URL
// is left for the caller to set.
func (d Descriptor) OAuth2Config() oauth2.Config {
	return oauth2.Config{
		ClientID:     d.ClientID,
		ClientSecret: d.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   d.Authorization.URL,
			TokenURL:  d.Token.URL,
			AuthStyle: authStyle(d.Client.TokenEndpointAuthMethod),
		},
		Scopes: strings.Fields(d.Authorization.Params["scope"]),
	}
}

// AuthCodeURL returns the authorization URL a framework would redirect to,
// with the descriptor's default parameters and an S256 challenge when the
// pkce check is enabled.
func (d Descriptor) AuthCodeURL(redirectURI, state, verifier string) string {
	cfg := d.OAuth2Config()
	cfg.RedirectURL = redirectURI

	keys := slices.Sorted(maps.Keys(d.Authorization.Params))
	opts := make([]oauth2.AuthCodeOption, 0, len(keys)+2)
	for _, k := range keys {
		if k == "scope" {
			continue
		}
		opts = append(opts, oauth2.SetAuthURLParam(k, d.Authorization.Params[k]))
	}
	if d.HasCheck(CheckPKCE) && verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	if d.Type == VariantOIDC && !slices.Contains(cfg.Scopes, oidc.ScopeOpenID) {
		cfg.Scopes = append([]string{oidc.ScopeOpenID}, cfg.Scopes...)
	}
	return cfg.AuthCodeURL(state, opts...)
}

// OIDCProvider builds an oidc.Provider from the descriptor's static
// endpoints, without a discovery request. The issuer is the authorization
// endpoint's origin.
func (d Descriptor) OIDCProvider(ctx context.Context) (*oidc.Provider, error) {
	if d.Type != VariantOIDC {
		return nil, fmt.Errorf("provider %s is declared as %s, not %s", d.ID, d.Type, VariantOIDC)
	}

	u, err := url.Parse(d.Authorization.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid authorization endpoint: %s", d.Authorization.URL)
	}

	pc := oidc.ProviderConfig{
		IssuerURL:   u.Scheme + "://" + u.Host,
		AuthURL:     d.Authorization.URL,
		TokenURL:    d.Token.URL,
		UserInfoURL: d.Userinfo.URL,
	}
	return pc.NewProvider(ctx), nil
}

func authStyle(method string) oauth2.AuthStyle {
	switch method {
	case AuthMethodClientSecretPost:
		return oauth2.AuthStyleInParams
	case AuthMethodClientSecretBasic:
		return oauth2.AuthStyleInHeader
	default:
		return oauth2.AuthStyleAutoDetect
	}
}
