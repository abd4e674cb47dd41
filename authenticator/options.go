package authenticator

import (
	"maps"
	"slices"
	"strings"

	"github.com/golojan/golojan-auth/config"
)

// ScopeString joins scopes with single spaces, falling back to def when
// the joined value is blank.
func ScopeString(scopes []string, def string) string {
	joined := strings.Join(scopes, " ")
	if strings.TrimSpace(joined) == "" {
		return def
	}
	return joined
}

// Normalize merges base and override into fully resolved options. Override
// fields replace base fields they set, except ExtraParams, which are merged
// key by key; a null override value removes the key.
func Normalize(cfg config.Config, base, override *Options) (Options, error) {
	var merged Options
	if base != nil {
		merged = base.clone()
	}
	if override != nil {
		merged.overlay(override)
	}

	merged.RedirectURI = strings.TrimSpace(merged.RedirectURI)
	if merged.RedirectURI == "" {
		return Options{}, requiredError("options.redirectUri")
	}

	if ScopeString(merged.Scope, "") == "" {
		merged.Scope = []string{cfg.DefaultScope}
	}
	if merged.ResponseType == "" {
		merged.ResponseType = cfg.DefaultResponseType
	}
	if merged.AuthURL == "" {
		merged.AuthURL = cfg.AuthURL
	}

	maps.DeleteFunc(merged.ExtraParams, func(_ string, v Value) bool { return v.IsNull() })
	if len(merged.ExtraParams) == 0 {
		merged.ExtraParams = nil
	}

	return merged, nil
}

func (o *Options) clone() Options {
	c := *o
	c.Scope = slices.Clone(o.Scope)
	c.ExtraParams = maps.Clone(o.ExtraParams)
	if o.UserID != nil {
		id := *o.UserID
		c.UserID = &id
	}
	return c
}

func (o *Options) overlay(override *Options) {
	if override.RedirectURI != "" {
		o.RedirectURI = override.RedirectURI
	}
	if len(override.Scope) > 0 {
		o.Scope = slices.Clone(override.Scope)
	}
	if override.ResponseType != "" {
		o.ResponseType = override.ResponseType
	}
	if override.State != "" {
		o.State = override.State
	}
	if override.Nonce != "" {
		o.Nonce = override.Nonce
	}
	if override.UserID != nil {
		id := *override.UserID
		o.UserID = &id
	}
	if override.AuthURL != "" {
		o.AuthURL = override.AuthURL
	}
	for k, v := range override.ExtraParams {
		if v.IsNull() {
			delete(o.ExtraParams, k)
			continue
		}
		if o.ExtraParams == nil {
			o.ExtraParams = make(map[string]Value)
		}
		o.ExtraParams[k] = v
	}
}
