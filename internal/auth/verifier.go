// Package auth verifies Google ID tokens and derives the owner identifier
// every registry operation is scoped by. The cryptographic trust anchor is
// Google's published JWKS; this package only consumes it.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrAuthenticationFailed is returned for any credential that cannot be
// verified: missing, malformed, expired, wrong issuer or audience, or an
// unverified email address.
var ErrAuthenticationFailed = errors.New("authentication failed")

// DefaultJWKSURL is Google's published signing key set.
const DefaultJWKSURL = "https://www.googleapis.com/oauth2/v3/certs"

// Google issues tokens under both spellings.
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// User is a verified identity. ID is derived from the email local part and
// scopes every storage key the user can reach.
type User struct {
	ID    string
	Email string
}

// Verifier validates a raw bearer credential and extracts the owner identity.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (User, error)
}

type claims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// GoogleVerifier validates Google ID tokens against a fetched JWKS document.
// Keys are cached and refreshed when a token references an unknown key id.
type GoogleVerifier struct {
	clientID string
	jwksURL  string
	client   *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

// NewGoogleVerifier creates a verifier for tokens issued to the given OAuth
// client id. jwksURL may be empty to use Google's published key set.
func NewGoogleVerifier(clientID, jwksURL string) *GoogleVerifier {
	if jwksURL == "" {
		jwksURL = DefaultJWKSURL
	}

	return &GoogleVerifier{
		clientID: clientID,
		jwksURL:  jwksURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		keys:     make(map[string]*rsa.PublicKey),
	}
}

// Verify checks the token signature and claims and returns the verified user.
// All failure modes wrap ErrAuthenticationFailed.
func (v *GoogleVerifier) Verify(ctx context.Context, rawToken string) (User, error) {
	const op = "auth.GoogleVerifier.Verify"

	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))

	var cl claims
	token, err := parser.ParseWithClaims(rawToken, &cl, func(t *jwt.Token) (interface{}, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token has no key id")
		}
		return v.signingKey(ctx, kid)
	})
	if err != nil || !token.Valid {
		return User{}, fmt.Errorf("%s: %w: %v", op, ErrAuthenticationFailed, err)
	}

	if !issuedByGoogle(cl.Issuer) {
		return User{}, fmt.Errorf("%s: %w: untrusted issuer %q", op, ErrAuthenticationFailed, cl.Issuer)
	}
	if !cl.VerifyAudience(v.clientID, true) {
		return User{}, fmt.Errorf("%s: %w: audience mismatch", op, ErrAuthenticationFailed)
	}
	if cl.Email == "" || !cl.EmailVerified {
		return User{}, fmt.Errorf("%s: %w: email not verified", op, ErrAuthenticationFailed)
	}

	return userFromEmail(cl.Email)
}

func issuedByGoogle(issuer string) bool {
	for _, iss := range googleIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}

// userFromEmail derives the owner id from the email local part. Local parts
// containing the storage key separator are rejected so that owner prefixes
// never overlap.
func userFromEmail(email string) (User, error) {
	const op = "auth.userFromEmail"

	local, _, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		return User{}, fmt.Errorf("%s: %w: malformed email claim", op, ErrAuthenticationFailed)
	}
	if strings.Contains(local, ":") {
		return User{}, fmt.Errorf("%s: %w: unsupported characters in subject", op, ErrAuthenticationFailed)
	}

	return User{ID: local, Email: email}, nil
}

// signingKey returns the cached RSA key for kid, refreshing the key set once
// if the kid is unknown (Google rotates keys).
func (v *GoogleVerifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fetchedAt := v.fetchedAt
	v.mu.RUnlock()

	if ok {
		return key, nil
	}

	// Avoid hammering the JWKS endpoint on forged kids.
	if time.Since(fetchedAt) > time.Minute {
		if err := v.refreshKeys(ctx); err != nil {
			return nil, err
		}

		v.mu.RLock()
		key, ok = v.keys[kid]
		v.mu.RUnlock()
		if ok {
			return key, nil
		}
	}

	return nil, fmt.Errorf("unknown signing key id %q", kid)
}

type jwksDocument struct {
	Keys []struct {
		Kty string `json:"kty"`
		Kid string `json:"kid"`
		N   string `json:"n"`
		E   string `json:"e"`
	} `json:"keys"`
}

func (v *GoogleVerifier) refreshKeys(ctx context.Context) error {
	const op = "auth.GoogleVerifier.refreshKeys"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: failed to fetch jwks: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected jwks status: %s", op, resp.Status)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("%s: failed to decode jwks: %w", op, err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := parseRSAKey(k.N, k.E)
		if err != nil {
			continue
		}
		keys[k.Kid] = pub
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()

	return nil
}

func parseRSAKey(n, e string) (*rsa.PublicKey, error) {
	nb, err := base64.RawURLEncoding.DecodeString(n)
	if err != nil {
		return nil, err
	}
	eb, err := base64.RawURLEncoding.DecodeString(e)
	if err != nil {
		return nil, err
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}
