package authenticator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Credentials identifies the OAuth client issuing requests
type Credentials struct {
	ClientID     string `json:"clientId" validate:"notblank"`
	ClientSecret string `json:"clientSecret" validate:"notblank"`
}

// Options holds caller-supplied authorization options. Empty fields are unset.
type Options struct {
	// RedirectURI is the OAuth redirect URI registered with the client
	RedirectURI string
	// Scope is space-joined when serialized; an element may hold several scopes
	Scope []string
	// ResponseType defaults to "code"
	ResponseType string
	// State is the CSRF correlation token; generated by Build when unset
	State string
	// Nonce is forwarded to the authorization API
	Nonce string
	// UserID identifies the authenticated user issuing the request
	UserID *int64
	// AuthURL is the authorization endpoint
	AuthURL string
	// ExtraParams are merged last; null values are dropped
	ExtraParams map[string]Value
}

// Response is the result of building an authorization request
type Response struct {
	URI           string            `json:"uri" yaml:"uri"`
	Success       bool              `json:"success" yaml:"success"`
	State         string            `json:"state" yaml:"state"`
	IssuedAt      string            `json:"issuedAt" yaml:"issuedAt"`
	CodeVerifier  string            `json:"codeVerifier" yaml:"codeVerifier"`
	CodeChallenge string            `json:"codeChallenge" yaml:"codeChallenge"`
	Params        map[string]string `json:"params" yaml:"params"`
}

// GrantType is the OAuth grant a token request uses
type GrantType string

const (
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
)

// TokenRequest is the grant payload returned by the authorization API
type TokenRequest struct {
	GrantType    GrantType `json:"grantType" yaml:"grantType"`
	Code         string    `json:"code,omitempty" yaml:"code,omitempty"`
	ClientID     string    `json:"clientId,omitempty" yaml:"clientId,omitempty"`
	RedirectURI  string    `json:"redirectUri,omitempty" yaml:"redirectUri,omitempty"`
	RefreshToken string    `json:"refreshToken,omitempty" yaml:"refreshToken,omitempty"`
}

// Validate checks the fields the grant type depends on
func (t *TokenRequest) Validate() error {
	switch t.GrantType {
	case GrantAuthorizationCode:
		if strings.TrimSpace(t.Code) == "" {
			return requiredError("code")
		}
	case GrantRefreshToken:
		if strings.TrimSpace(t.RefreshToken) == "" {
			return requiredError("refreshToken")
		}
	default:
		return &ValidationError{
			Field:   "grantType",
			Message: fmt.Sprintf("unsupported grant type: %q", t.GrantType),
		}
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := v.RegisterValidation("notblank", notBlank); err != nil {
		panic(fmt.Sprintf("authenticator: register notblank validation: %v", err))
	}
	return v
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// Validate checks that the client ID and secret are not blank
func (c Credentials) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return requiredError(verrs[0].Field())
	}
	return err
}
