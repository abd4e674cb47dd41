package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrProfile matches every *ProfileError via errors.Is
var ErrProfile = errors.New("golojan profile")

// ProfileError reports a userinfo payload that cannot be mapped
type ProfileError struct {
	Field   string
	Message string
	Err     error
}

func (e *ProfileError) Error() string {
	return e.Message
}

func (e *ProfileError) Is(target error) bool { return target == ErrProfile }

func (e *ProfileError) Unwrap() error { return e.Err }

// Profile is a validated Golojan userinfo payload. Absent and null fields are empty.
type Profile struct {
	ID        string `json:"id,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Name      string `json:"name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Picture   string `json:"picture,omitempty"`
	// Extra holds fields Golojan sends that are not mapped
	Extra map[string]json.RawMessage `json:"-"`
}

// User is the framework-facing user. Nil fields encode as JSON null.
type User struct {
	ID    string  `json:"id" yaml:"id"`
	Name  *string `json:"name" yaml:"name"`
	Email *string `json:"email" yaml:"email"`
	Image *string `json:"image" yaml:"image"`
}

// DecodeProfile validates a raw userinfo payload. Known fields must be
// strings or null; id and sub may also be numbers.
func DecodeProfile(data []byte) (Profile, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return Profile{}, &ProfileError{Message: "Golojan profile payload is not a JSON object", Err: err}
	}

	var p Profile
	fields := map[string]*string{
		"id":        &p.ID,
		"sub":       &p.Sub,
		"email":     &p.Email,
		"firstName": &p.FirstName,
		"lastName":  &p.LastName,
		"name":      &p.Name,
		"avatar":    &p.Avatar,
		"picture":   &p.Picture,
	}

	for key, value := range raw {
		dst, ok := fields[key]
		if !ok {
			if p.Extra == nil {
				p.Extra = make(map[string]json.RawMessage)
			}
			p.Extra[key] = value
			continue
		}

		s, err := decodeScalar(value, key == "id" || key == "sub")
		if err != nil {
			return Profile{}, &ProfileError{
				Field:   key,
				Message: fmt.Sprintf("Golojan profile field %q has an unsupported type", key),
				Err:     err,
			}
		}
		*dst = s
	}

	return p, nil
}

func decodeScalar(value json.RawMessage, allowNumber bool) (string, error) {
	trimmed := bytes.TrimSpace(value)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		return "", nil
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		err := json.Unmarshal(trimmed, &s)
		return s, err
	case allowNumber && len(trimmed) > 0 && (trimmed[0] == '-' || (trimmed[0] >= '0' && trimmed[0] <= '9')):
		var n json.Number
		err := json.Unmarshal(trimmed, &n)
		return n.String(), err
	default:
		return "", fmt.Errorf("unexpected JSON value %s", trimmed)
	}
}

// MapProfile is the default profile mapping. The identifier comes from id,
// then sub; the display name from name, then first and last name, then email.
func MapProfile(p Profile) (User, error) {
	id := p.ID
	if id == "" {
		id = p.Sub
	}
	if id == "" {
		return User{}, &ProfileError{
			Field:   "id",
			Message: "Golojan profile payload did not include an id or sub field",
		}
	}

	image := p.Avatar
	if image == "" {
		image = p.Picture
	}

	return User{
		ID:    id,
		Name:  composeName(p),
		Email: optional(p.Email),
		Image: optional(image),
	}, nil
}

func composeName(p Profile) *string {
	if strings.TrimSpace(p.Name) != "" {
		return optional(p.Name)
	}

	parts := make([]string, 0, 2)
	for _, part := range []string{p.FirstName, p.LastName} {
		if strings.TrimSpace(part) != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) > 0 {
		return optional(strings.Join(parts, " "))
	}

	return optional(p.Email)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
