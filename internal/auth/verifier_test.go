package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "test-client-id"
	testKeyID    = "test-key"
)

type testIssuer struct {
	key    *rsa.PrivateKey
	server *httptest.Server
}

// newTestIssuer generates a signing key and serves it as a JWKS document.
func newTestIssuer(t *testing.T) *testIssuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	doc := map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(doc)
	}))
	t.Cleanup(server.Close)

	return &testIssuer{key: key, server: server}
}

func (i *testIssuer) signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(i.key)
	require.NoError(t, err)

	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"iss":            "https://accounts.google.com",
		"aud":            testClientID,
		"exp":            time.Now().Add(time.Hour).Unix(),
		"email":          "2024001@example.ac.jp",
		"email_verified": true,
	}
}

func TestGoogleVerifier_Verify(t *testing.T) {
	ctx := context.Background()
	issuer := newTestIssuer(t)

	newVerifier := func() *GoogleVerifier {
		return NewGoogleVerifier(testClientID, issuer.server.URL)
	}

	t.Run("success", func(t *testing.T) {
		v := newVerifier()

		user, err := v.Verify(ctx, issuer.signToken(t, validClaims()))
		require.NoError(t, err)

		assert.Equal(t, "2024001", user.ID)
		assert.Equal(t, "2024001@example.ac.jp", user.Email)
	})

	t.Run("alternate issuer spelling", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["iss"] = "accounts.google.com"

		user, err := v.Verify(ctx, issuer.signToken(t, claims))
		require.NoError(t, err)
		assert.Equal(t, "2024001", user.ID)
	})

	t.Run("garbage token", func(t *testing.T) {
		v := newVerifier()

		_, err := v.Verify(ctx, "not-a-token")
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("expired token", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Hour).Unix()

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("untrusted issuer", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["iss"] = "https://evil.example.com"

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("audience mismatch", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["aud"] = "another-client-id"

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unverified email", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["email_verified"] = false

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("missing email", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		delete(claims, "email")

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("key separator in email local part", func(t *testing.T) {
		v := newVerifier()

		claims := validClaims()
		claims["email"] = `"weird:user"@example.ac.jp`

		_, err := v.Verify(ctx, issuer.signToken(t, claims))
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("symmetric signing rejected", func(t *testing.T) {
		v := newVerifier()

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims())
		token.Header["kid"] = testKeyID
		signed, err := token.SignedString([]byte("shared-secret"))
		require.NoError(t, err)

		_, err = v.Verify(ctx, signed)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})

	t.Run("unknown key id", func(t *testing.T) {
		v := newVerifier()

		key, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)

		token := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims())
		token.Header["kid"] = "rogue-key"
		signed, err := token.SignedString(key)
		require.NoError(t, err)

		_, err = v.Verify(ctx, signed)
		assert.ErrorIs(t, err, ErrAuthenticationFailed)
	})
}

func TestUserFromEmail(t *testing.T) {
	user, err := userFromEmail("2024001@example.ac.jp")
	require.NoError(t, err)
	assert.Equal(t, "2024001", user.ID)

	_, err = userFromEmail("no-at-sign")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)

	_, err = userFromEmail("@example.ac.jp")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
