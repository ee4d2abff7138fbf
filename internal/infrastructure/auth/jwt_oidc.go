package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// DefaultSubjectClaim is the standard OIDC subject. Entra ID deployments that key users by
// object id configure "oid" instead.
const DefaultSubjectClaim = "sub"

var (
	ErrTokenInvalid   = errors.New("invalid token")
	ErrSubjectMissing = errors.New("subject claim missing")
	ErrNotInitialised = errors.New("jwks not initialised")
)

// PrincipalClaims represent the subset of JWT claims we care about.
type PrincipalClaims struct {
	Subject   string
	Issuer    string
	Audience  []string
	Email     string
	Name      string
	ExpiresAt time.Time
	IssuedAt  time.Time
	TokenID   string
}

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	Validate(ctx context.Context, rawToken string) (*PrincipalClaims, error)
	Ready() bool
}

// ValidatorConfig configures OIDC token verification.
type ValidatorConfig struct {
	JWKSURL      string
	Issuer       string
	Audience     string
	SubjectClaim string
	RefreshEvery time.Duration
	ClockSkew    time.Duration
}

// OIDCValidator validates JWT tokens against a provider JWKS endpoint.
type OIDCValidator struct {
	cfg    ValidatorConfig
	logger zerolog.Logger
	jwks   atomic.Pointer[keyfunc.JWKS]
}

var _ TokenValidator = (*OIDCValidator)(nil)

const (
	jwksInitialRetryInterval   = time.Second
	jwksInitialRetryMaxBackoff = 10 * time.Second
	jwksInitialRetryTimeout    = 2 * time.Minute
)

// NewOIDCValidator initialises JWKS fetching and returns a validator.
func NewOIDCValidator(ctx context.Context, cfg ValidatorConfig, logger zerolog.Logger) (*OIDCValidator, error) {
	if cfg.JWKSURL == "" {
		return nil, errors.New("jwks url is required")
	}
	if cfg.Issuer == "" {
		return nil, errors.New("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, errors.New("audience is required")
	}
	if strings.TrimSpace(cfg.SubjectClaim) == "" {
		cfg.SubjectClaim = DefaultSubjectClaim
	}

	validator := &OIDCValidator{
		cfg:    cfg,
		logger: logger.With().Str("component", "oidc-validator").Logger(),
	}

	if err := validator.initJWKS(ctx); err != nil {
		return nil, err
	}
	return validator, nil
}

func (v *OIDCValidator) initJWKS(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	options := keyfunc.Options{
		Ctx: ctx,
		// a failed refresh keeps the previously fetched keys in service
		RefreshErrorHandler: func(err error) {
			if err != nil {
				v.logger.Error().Err(err).Msg("jwks refresh failed")
			}
		},
		RefreshInterval:   v.cfg.RefreshEvery,
		RefreshUnknownKID: true,
	}

	backoff := jwksInitialRetryInterval
	deadline := time.Now().Add(jwksInitialRetryTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	for attempt := 1; ; attempt++ {
		jwks, err := keyfunc.Get(v.cfg.JWKSURL, options)
		if err == nil {
			v.jwks.Store(jwks)
			return nil
		}

		v.logger.Warn().
			Err(err).
			Str("jwks_url", v.cfg.JWKSURL).
			Int("attempt", attempt).
			Msg("initial jwks fetch failed, retrying")

		select {
		case <-ctx.Done():
			return fmt.Errorf("fetch jwks: %w", ctx.Err())
		case <-time.After(backoff):
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("fetch jwks: %w", err)
		}
		if next := backoff * 2; next <= jwksInitialRetryMaxBackoff {
			backoff = next
		} else {
			backoff = jwksInitialRetryMaxBackoff
		}
	}
}

// Validate parses and validates the given JWT returning principal claims. Signature,
// issuer, audience and expiry (with the configured clock skew) are all enforced.
func (v *OIDCValidator) Validate(_ context.Context, rawToken string) (*PrincipalClaims, error) {
	jwks := v.jwks.Load()
	if jwks == nil {
		return nil, ErrNotInitialised
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384"}),
		jwt.WithIssuer(v.cfg.Issuer),
		jwt.WithAudience(v.cfg.Audience),
		jwt.WithLeeway(v.cfg.ClockSkew),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(rawToken, jwt.MapClaims{}, jwks.Keyfunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}

	subject := strings.TrimSpace(claimString(mapClaims[v.cfg.SubjectClaim]))
	if subject == "" {
		return nil, fmt.Errorf("%w: %s", ErrSubjectMissing, v.cfg.SubjectClaim)
	}

	audiences, _ := mapClaims.GetAudience()

	claims := &PrincipalClaims{
		Subject:  subject,
		Issuer:   claimString(mapClaims["iss"]),
		Audience: audiences,
		Email:    firstClaim(mapClaims, "email", "preferred_username", "upn"),
		Name:     claimString(mapClaims["name"]),
		TokenID:  claimString(mapClaims["jti"]),
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.UTC()
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.UTC()
	}
	return claims, nil
}

// Ready reports whether signing keys are available to verify tokens.
func (v *OIDCValidator) Ready() bool {
	jwks := v.jwks.Load()
	return jwks != nil && jwks.Len() > 0
}

// Close stops the background JWKS refresh.
func (v *OIDCValidator) Close() {
	if jwks := v.jwks.Load(); jwks != nil {
		jwks.EndBackground()
	}
}

func firstClaim(claims jwt.MapClaims, names ...string) string {
	for _, name := range names {
		if value := strings.TrimSpace(claimString(claims[name])); value != "" {
			return value
		}
	}
	return ""
}

func claimString(value any) string {
	if str, ok := value.(string); ok {
		return str
	}
	return ""
}
