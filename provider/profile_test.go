package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapProfile_SubWithEmailOnly(t *testing.T) {
	p, err := DecodeProfile([]byte(`{"sub":"123","email":"a@b.com"}`))
	require.NoError(t, err)

	u, err := MapProfile(p)
	require.NoError(t, err)

	data, err := json.Marshal(u)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"123","name":"a@b.com","email":"a@b.com","image":null}`, string(data))
}

func TestMapProfile_MissingIdentifier(t *testing.T) {
	_, err := MapProfile(Profile{Email: "a@b.com", Name: "Ada"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProfile)
	var perr *ProfileError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "id", perr.Field)
	assert.Contains(t, err.Error(), "did not include an id or sub field")
}

func TestMapProfile_Precedence(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		wantID   string
		wantName *string
		image    *string
	}{
		{
			name:     "id wins over sub",
			profile:  Profile{ID: "id-1", Sub: "sub-1", Name: "Ada Lovelace", Avatar: "a.png", Picture: "p.png"},
			wantID:   "id-1",
			wantName: strPtr("Ada Lovelace"),
			image:    strPtr("a.png"),
		},
		{
			name:     "blank name uses first and last",
			profile:  Profile{Sub: "s", Name: "   ", FirstName: "Ada", LastName: "Obi", Picture: "p.png"},
			wantID:   "s",
			wantName: strPtr("Ada Obi"),
			image:    strPtr("p.png"),
		},
		{
			name:     "last name only",
			profile:  Profile{Sub: "s", LastName: "Obi"},
			wantID:   "s",
			wantName: strPtr("Obi"),
		},
		{
			name:    "nothing to name",
			profile: Profile{ID: "x"},
			wantID:  "x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := MapProfile(tt.profile)
			require.NoError(t, err)

			assert.Equal(t, tt.wantID, u.ID)
			assert.Equal(t, tt.wantName, u.Name)
			assert.Equal(t, tt.image, u.Image)
		})
	}
}

func TestDecodeProfile(t *testing.T) {
	p, err := DecodeProfile([]byte(`{"id":42,"email":null,"name":"Ada","roles":["admin"]}`))
	require.NoError(t, err)

	assert.Equal(t, "42", p.ID)
	assert.Empty(t, p.Email)
	assert.Equal(t, "Ada", p.Name)
	assert.JSONEq(t, `["admin"]`, string(p.Extra["roles"]))
}

func TestDecodeProfile_RejectsBadShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		field   string
	}{
		{name: "not an object", payload: `["id"]`},
		{name: "null payload", payload: `null`},
		{name: "numeric email", payload: `{"id":"1","email":5}`, field: "email"},
		{name: "object name", payload: `{"id":"1","name":{"first":"Ada"}}`, field: "name"},
		{name: "boolean sub", payload: `{"sub":true}`, field: "sub"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeProfile([]byte(tt.payload))

			var perr *ProfileError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Field)
			assert.ErrorIs(t, err, ErrProfile)
		})
	}
}

func TestDecodeProfile_MissingIdentifierFailsMapping(t *testing.T) {
	d := OIDC(UserConfig{})

	_, err := d.UserFromPayload([]byte(`{"email":"a@b.com"}`))
	assert.ErrorIs(t, err, ErrProfile)
}

func strPtr(s string) *string { return &s }
