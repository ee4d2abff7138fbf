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
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://idp.example.com/"
	testAudience = "agent-middleware"
	testKeyID    = "test-key"
)

type jwksFixture struct {
	key      *rsa.PrivateKey
	server   *httptest.Server
	failing  atomic.Bool
	requests atomic.Int32
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	body, err := json.Marshal(map[string]any{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": testKeyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
		}},
	})
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		if f.failing.Load() {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *jwksFixture) validator(t *testing.T, mutate func(cfg *ValidatorConfig)) *OIDCValidator {
	t.Helper()
	cfg := ValidatorConfig{
		JWKSURL:  f.server.URL,
		Issuer:   testIssuer,
		Audience: testAudience,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	v, err := NewOIDCValidator(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v
}

func (f *jwksFixture) sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func baseClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": "user-123",
		"iss": testIssuer,
		"aud": testAudience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
}

func TestNewOIDCValidator_RequiresSettings(t *testing.T) {
	ctx := context.Background()

	_, err := NewOIDCValidator(ctx, ValidatorConfig{Issuer: testIssuer, Audience: testAudience}, zerolog.Nop())
	assert.Error(t, err)
	_, err = NewOIDCValidator(ctx, ValidatorConfig{JWKSURL: "http://x", Audience: testAudience}, zerolog.Nop())
	assert.Error(t, err)
	_, err = NewOIDCValidator(ctx, ValidatorConfig{JWKSURL: "http://x", Issuer: testIssuer}, zerolog.Nop())
	assert.Error(t, err)
}

func TestValidate_ValidToken(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, nil)
	assert.True(t, v.Ready())

	claims := baseClaims()
	claims["email"] = "user@example.com"
	claims["name"] = "Test User"
	claims["jti"] = "token-1"

	principal, err := v.Validate(context.Background(), f.sign(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.Subject)
	assert.Equal(t, testIssuer, principal.Issuer)
	assert.Equal(t, []string{testAudience}, principal.Audience)
	assert.Equal(t, "user@example.com", principal.Email)
	assert.Equal(t, "Test User", principal.Name)
	assert.Equal(t, "token-1", principal.TokenID)
	assert.False(t, principal.ExpiresAt.IsZero())
}

func TestValidate_EmailFallbacks(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, nil)

	claims := baseClaims()
	claims["preferred_username"] = "preferred@example.com"
	claims["upn"] = "upn@example.com"
	principal, err := v.Validate(context.Background(), f.sign(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "preferred@example.com", principal.Email)

	claims = baseClaims()
	claims["upn"] = "upn@example.com"
	principal, err = v.Validate(context.Background(), f.sign(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "upn@example.com", principal.Email)
}

func TestValidate_ConfigurableSubjectClaim(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, func(cfg *ValidatorConfig) { cfg.SubjectClaim = "oid" })

	claims := baseClaims()
	claims["oid"] = "00000000-aaaa-bbbb-cccc-000000000001"
	principal, err := v.Validate(context.Background(), f.sign(t, claims))
	require.NoError(t, err)
	assert.Equal(t, "00000000-aaaa-bbbb-cccc-000000000001", principal.Subject)

	_, err = v.Validate(context.Background(), f.sign(t, baseClaims()))
	assert.ErrorIs(t, err, ErrSubjectMissing)
}

func TestValidate_Rejections(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, nil)

	tests := []struct {
		name   string
		mutate func(c jwt.MapClaims)
	}{
		{"wrong issuer", func(c jwt.MapClaims) { c["iss"] = "https://evil.example.com/" }},
		{"wrong audience", func(c jwt.MapClaims) { c["aud"] = "someone-else" }},
		{"expired", func(c jwt.MapClaims) { c["exp"] = time.Now().Add(-time.Hour).Unix() }},
		{"no expiry", func(c jwt.MapClaims) { delete(c, "exp") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := baseClaims()
			tt.mutate(claims)
			_, err := v.Validate(context.Background(), f.sign(t, claims))
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}

func TestValidate_RejectsForeignSignature(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, nil)
	other := newJWKSFixture(t)

	_, err := v.Validate(context.Background(), other.sign(t, baseClaims()))
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = v.Validate(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_ClockSkewTolerated(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, func(cfg *ValidatorConfig) { cfg.ClockSkew = time.Minute })

	claims := baseClaims()
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()
	_, err := v.Validate(context.Background(), f.sign(t, claims))
	require.NoError(t, err)
}

func TestValidate_NotInitialised(t *testing.T) {
	v := &OIDCValidator{}
	_, err := v.Validate(context.Background(), "token")
	assert.ErrorIs(t, err, ErrNotInitialised)
	assert.False(t, v.Ready())
}

func TestReady_SurvivesFailedRefresh(t *testing.T) {
	f := newJWKSFixture(t)
	v := f.validator(t, nil)
	require.True(t, v.Ready())
	initial := f.requests.Load()

	// an unknown kid forces a refresh while the endpoint is down
	f.failing.Store(true)
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, baseClaims())
	token.Header["kid"] = "rotated-key"
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), signed)
	require.Error(t, err)
	assert.Greater(t, f.requests.Load(), initial)
	assert.True(t, v.Ready())

	// the cached key keeps verifying tokens during the outage
	principal, err := v.Validate(context.Background(), f.sign(t, baseClaims()))
	require.NoError(t, err)
	assert.Equal(t, "user-123", principal.Subject)

	f.failing.Store(false)
	assert.True(t, v.Ready())
}
