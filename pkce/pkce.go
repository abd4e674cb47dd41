// Package pkce derives Proof Key for Code Exchange (RFC 7636) verifier and
// challenge pairs and random URL-safe tokens.
package pkce

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/oauth2"
)

// SaltSize is the number of random bytes fed into the verifier HMAC.
const SaltSize = 32

// Method is the only supported code challenge method.
const Method = "S256"

// Pair is a PKCE verifier and its S256 challenge
type Pair struct {
	CodeVerifier  string `json:"codeVerifier" yaml:"codeVerifier"`
	CodeChallenge string `json:"codeChallenge" yaml:"codeChallenge"`
}

// Generator derives pairs and tokens from a random source. The zero value
// reads from crypto/rand.
type Generator struct {
	Rand io.Reader
}

// Derive produces a pair whose verifier is the HMAC-SHA256, keyed by the
// client secret, of SaltSize random bytes.
func (g Generator) Derive(clientSecret string) Pair {
	salt := g.read(SaltSize)

	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write(salt)
	verifier := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	return Pair{
		CodeVerifier:  verifier,
		CodeChallenge: Challenge(verifier),
	}
}

// Token returns n random bytes, base64url-encoded without padding
func (g Generator) Token(n int) string {
	return base64.RawURLEncoding.EncodeToString(g.read(n))
}

// read panics when the random source fails; there is no way to continue
// issuing requests without randomness.
func (g Generator) read(n int) []byte {
	r := g.Rand
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		panic(fmt.Sprintf("pkce: random source failed: %v", err))
	}
	return b
}

// Derive produces a pair using crypto/rand
func Derive(clientSecret string) Pair {
	return Generator{}.Derive(clientSecret)
}

// Token returns n bytes from crypto/rand, base64url-encoded without padding
func Token(n int) string {
	return Generator{}.Token(n)
}

// Challenge returns the S256 challenge for a verifier
func Challenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// Verify reports whether challenge is the S256 challenge of verifier
func Verify(verifier, challenge string) bool {
	return subtle.ConstantTimeCompare([]byte(Challenge(verifier)), []byte(challenge)) == 1
}
