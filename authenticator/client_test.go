package authenticator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/golojan/golojan-auth/config"
)

// ClientTestSuite is a test suite for the authorization API client
type ClientTestSuite struct {
	suite.Suite
	mu       sync.Mutex
	server   *httptest.Server
	cfg      config.Config
	creds    Credentials
	handler  http.HandlerFunc
	received map[string]any
	headers  http.Header
}

// SetupTest starts a fake Golojan auth API before each test
func (suite *ClientTestSuite) SetupTest() {
	suite.received = nil
	suite.headers = nil
	suite.handler = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"grantType":"authorization_code","code":"abc123","clientId":"golojan-client","redirectUri":"https://app/cb"}`))
	}

	r := chi.NewRouter()
	r.Post("/v1/auth/authorize", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)

		suite.mu.Lock()
		suite.headers = r.Header.Clone()
		suite.received = body
		handler := suite.handler
		suite.mu.Unlock()

		handler(w, r)
	})
	suite.server = httptest.NewServer(r)

	suite.cfg = config.Default()
	suite.cfg.APIURL = suite.server.URL + "/v1/auth/"
	suite.creds = Credentials{ClientID: "golojan-client", ClientSecret: "golojan-secret"}
}

// TearDownTest stops the fake API
func (suite *ClientTestSuite) TearDownTest() {
	suite.server.Close()
}

func (suite *ClientTestSuite) newClient(base *Options, opts ...ClientOption) *Client {
	c, err := NewClient(suite.cfg, suite.creds, base, opts...)
	require.NoError(suite.T(), err)
	return c
}

func (suite *ClientTestSuite) setHandler(h http.HandlerFunc) {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	suite.handler = h
}

func (suite *ClientTestSuite) request() (map[string]any, http.Header) {
	suite.mu.Lock()
	defer suite.mu.Unlock()
	return suite.received, suite.headers
}

func (suite *ClientTestSuite) respond(status int, contentType, body string) {
	suite.setHandler(func(w http.ResponseWriter, r *http.Request) {
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

// TestAuthorize_Success tests the payload and decoded token request
func (suite *ClientTestSuite) TestAuthorize_Success() {
	c := suite.newClient(&Options{
		RedirectURI: "https://app/cb",
		State:       "base-state",
		ExtraParams: map[string]Value{"tenant": StringValue("acme"), "drop": NullValue()},
	})

	// Act
	out, err := c.Authorize(context.Background(), &Options{
		Scope:       []string{"openid", "email"},
		Nonce:       "n-1",
		UserID:      int64Ptr(7),
		ExtraParams: map[string]Value{"attempt": IntValue(2)},
	})

	// Assert
	require.NoError(suite.T(), err)
	received, headers := suite.request()
	assert.Equal(suite.T(), &TokenRequest{
		GrantType:   GrantAuthorizationCode,
		Code:        "abc123",
		ClientID:    "golojan-client",
		RedirectURI: "https://app/cb",
	}, out)

	assert.Equal(suite.T(), map[string]any{
		"clientId":     "golojan-client",
		"clientSecret": "golojan-secret",
		"redirectUri":  "https://app/cb",
		"scope":        "openid email",
		"state":        "base-state",
		"nonce":        "n-1",
		"userId":       float64(7),
		"tenant":       "acme",
		"attempt":      float64(2),
	}, received)
	assert.Equal(suite.T(), "application/json", headers.Get("Content-Type"))
	assert.NotEmpty(suite.T(), headers.Get("X-Request-ID"))
}

// TestAuthorize_DefaultScope tests that scope is always sent
func (suite *ClientTestSuite) TestAuthorize_DefaultScope() {
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"})

	_, err := c.Authorise(context.Background(), nil)

	require.NoError(suite.T(), err)
	received, _ := suite.request()
	assert.Equal(suite.T(), "openid profile email", received["scope"])
	assert.NotContains(suite.T(), received, "state")
	assert.NotContains(suite.T(), received, "userId")
}

// TestAuthorize_MissingRedirect tests validation before any request is sent
func (suite *ClientTestSuite) TestAuthorize_MissingRedirect() {
	c := suite.newClient(nil)

	_, err := c.Authorize(context.Background(), &Options{State: "s"})

	var verr *ValidationError
	require.ErrorAs(suite.T(), err, &verr)
	assert.Equal(suite.T(), "options.redirectUri", verr.Field)
	received, _ := suite.request()
	assert.Nil(suite.T(), received)
}

// TestAuthorize_ErrorMessages tests message extraction from failed responses
func (suite *ClientTestSuite) TestAuthorize_ErrorMessages() {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		message     string
	}{
		{name: "json string", status: 400, contentType: "application/json", body: `"client disabled"`, message: "client disabled"},
		{name: "message field", status: 401, contentType: "application/json", body: `{"message":"invalid client secret","error":"unauthorized"}`, message: "invalid client secret"},
		{name: "error field", status: 403, contentType: "application/json", body: `{"error":"access_denied"}`, message: "access_denied"},
		{name: "plain text", status: 502, contentType: "text/plain", body: "bad gateway", message: "bad gateway"},
		{name: "empty body", status: 500, body: "", message: "request failed with status code 500"},
		{name: "unrecognized object", status: 422, contentType: "application/json", body: `{"detail":"x"}`, message: ""},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			suite.respond(tt.status, tt.contentType, tt.body)
			c := suite.newClient(&Options{RedirectURI: "https://app/cb"})

			_, err := c.Authorize(context.Background(), nil)

			var reqErr *RequestError
			require.ErrorAs(suite.T(), err, &reqErr)
			assert.Equal(suite.T(), tt.status, reqErr.StatusCode)
			assert.Equal(suite.T(), tt.message, reqErr.Message)
			assert.Contains(suite.T(), err.Error(), "authorization request failed with status")
		})
	}
}

// TestAuthorize_Timeout tests that a slow API surfaces as a transport error
func (suite *ClientTestSuite) TestAuthorize_Timeout() {
	release := make(chan struct{})
	defer close(release)
	suite.setHandler(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"},
		WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	_, err := c.Authorize(context.Background(), nil)

	var reqErr *RequestError
	require.ErrorAs(suite.T(), err, &reqErr)
	assert.Zero(suite.T(), reqErr.StatusCode)
	assert.NotEmpty(suite.T(), reqErr.Message)
	assert.NotNil(suite.T(), reqErr.Unwrap())
}

// TestAuthorize_Canceled tests context cancellation
func (suite *ClientTestSuite) TestAuthorize_Canceled() {
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Authorize(ctx, nil)

	var reqErr *RequestError
	require.ErrorAs(suite.T(), err, &reqErr)
	assert.True(suite.T(), errors.Is(err, context.Canceled))
}

// TestAuthorize_UndecodableResponse tests that decode errors pass through unwrapped by RequestError
func (suite *ClientTestSuite) TestAuthorize_UndecodableResponse() {
	suite.respond(200, "application/json", "{not json")
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"})

	_, err := c.Authorize(context.Background(), nil)

	require.Error(suite.T(), err)
	var reqErr *RequestError
	assert.False(suite.T(), errors.As(err, &reqErr))
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(suite.T(), err, &syntaxErr)
}

// TestAuthorize_LargeResponse tests that a success body up to the limit decodes in full
func (suite *ClientTestSuite) TestAuthorize_LargeResponse() {
	body := `{"grantType":"refresh_token","refreshToken":"rt-1"}`
	body += strings.Repeat(" ", maxResponseBody-len(body))
	suite.respond(200, "application/json", body)
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"})

	got, err := c.Authorize(context.Background(), nil)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "rt-1", got.RefreshToken)
}

// TestAuthorize_OversizedResponse tests that a body over the limit is rejected instead of truncated
func (suite *ClientTestSuite) TestAuthorize_OversizedResponse() {
	body := `{"grantType":"refresh_token","refreshToken":"rt-1"}`
	body += strings.Repeat(" ", maxResponseBody+1-len(body))
	suite.respond(200, "application/json", body)
	c := suite.newClient(&Options{RedirectURI: "https://app/cb"})

	_, err := c.Authorize(context.Background(), nil)

	var reqErr *RequestError
	require.ErrorAs(suite.T(), err, &reqErr)
	assert.Equal(suite.T(), http.StatusOK, reqErr.StatusCode)
	assert.Contains(suite.T(), reqErr.Message, "exceeds")
}

// TestClientTestSuite runs the client test suite
func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func TestNewClient_ValidatesCredentials(t *testing.T) {
	_, err := NewClient(config.Default(), Credentials{ClientID: "c"}, nil)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "clientSecret", verr.Field)
}

func TestNewClient_CopiesBaseOptions(t *testing.T) {
	base := &Options{RedirectURI: "https://app/cb", ExtraParams: map[string]Value{"a": StringValue("1")}}
	c, err := NewClient(config.Default(), Credentials{ClientID: "c", ClientSecret: "s"}, base)
	require.NoError(t, err)

	base.ExtraParams["a"] = StringValue("changed")
	assert.Equal(t, StringValue("1"), c.base.ExtraParams["a"])
}

func TestTokenRequest_Validate(t *testing.T) {
	assert.NoError(t, (&TokenRequest{GrantType: GrantAuthorizationCode, Code: "c"}).Validate())
	assert.NoError(t, (&TokenRequest{GrantType: GrantRefreshToken, RefreshToken: "r"}).Validate())
	assert.ErrorIs(t, (&TokenRequest{GrantType: GrantAuthorizationCode}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&TokenRequest{GrantType: GrantRefreshToken}).Validate(), ErrValidation)
	assert.ErrorIs(t, (&TokenRequest{GrantType: "password"}).Validate(), ErrValidation)
}
