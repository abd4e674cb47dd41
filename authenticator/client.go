package authenticator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/golojan/golojan-auth/config"
)

// AuthorizeEndpoint is the authorization API path relative to config.Config.APIURL
const AuthorizeEndpoint = "/authorize"

// maxResponseBody caps how much of an API response is read. Larger error
// bodies are truncated; larger success bodies are rejected.
const maxResponseBody = 1 << 20

// Client posts authorization payloads to the Golojan auth API. It is
// immutable after construction and safe for concurrent use.
type Client struct {
	cfg      config.Config
	creds    Credentials
	base     *Options
	endpoint string
	http     *http.Client
	log      zerolog.Logger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client, including its timeout
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithClientLogger sets the client logger
func WithClientLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// NewClient validates the credentials and returns a Client for cfg.APIURL
func NewClient(cfg config.Config, creds Credentials, base *Options, opts ...ClientOption) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:      cfg,
		creds:    creds,
		endpoint: strings.TrimRight(cfg.APIURL, "/") + AuthorizeEndpoint,
		http:     &http.Client{Timeout: cfg.HTTPTimeout},
		log:      zerolog.Nop(),
	}
	if base != nil {
		cloned := base.clone()
		c.base = &cloned
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Authorise is an alias of Authorize
func (c *Client) Authorise(ctx context.Context, overrides *Options) (*TokenRequest, error) {
	return c.Authorize(ctx, overrides)
}

// Authorize merges overrides over the base options and posts the resulting
// payload. Transport and HTTP status failures are returned as *RequestError.
func (c *Client) Authorize(ctx context.Context, overrides *Options) (*TokenRequest, error) {
	resolved, err := Normalize(c.cfg, c.base, overrides)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(c.payload(resolved))
	if err != nil {
		return nil, fmt.Errorf("failed to encode authorization payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	log := c.log.With().Str("request_id", requestID).Str("endpoint", c.endpoint).Logger()
	log.Debug().Str("client_id", c.creds.ClientID).Msg("sending authorization request")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn().Err(err).Msg("authorization request failed")
		return nil, &RequestError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, &RequestError{StatusCode: resp.StatusCode, Message: err.Error(), Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		reqErr := &RequestError{
			StatusCode: resp.StatusCode,
			Message:    extractMessage(resp.StatusCode, data[:min(len(data), maxResponseBody)]),
		}
		log.Warn().Int("status", resp.StatusCode).Str("error", reqErr.Message).Msg("authorization request rejected")
		return nil, reqErr
	}

	if len(data) > maxResponseBody {
		log.Warn().Int("status", resp.StatusCode).Msg("authorization response too large")
		return nil, &RequestError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("response body exceeds %d bytes", maxResponseBody),
		}
	}

	var out TokenRequest
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode authorization response: %w", err)
	}

	log.Debug().Str("grant_type", string(out.GrantType)).Msg("authorization request accepted")
	return &out, nil
}

// payload builds the JSON body; the secret is sent but never logged
func (c *Client) payload(o Options) map[string]any {
	p := map[string]any{
		"clientId":     c.creds.ClientID,
		"clientSecret": c.creds.ClientSecret,
		"redirectUri":  o.RedirectURI,
		"scope":        ScopeString(o.Scope, c.cfg.DefaultScope),
	}
	if o.State != "" {
		p["state"] = o.State
	}
	if o.Nonce != "" {
		p["nonce"] = o.Nonce
	}
	if o.UserID != nil {
		p["userId"] = *o.UserID
	}
	for k, v := range o.ExtraParams {
		if v.IsNull() {
			continue
		}
		p[k] = v
	}
	return p
}

// extractMessage picks the most specific message from an error response:
// a JSON string body, a "message" field, an "error" field, or the raw text.
func extractMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Sprintf("request failed with status code %d", status)
	}

	var decoded any
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return string(trimmed)
	}

	switch v := decoded.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		if msg, ok := v["error"].(string); ok {
			return msg
		}
	}
	return ""
}
