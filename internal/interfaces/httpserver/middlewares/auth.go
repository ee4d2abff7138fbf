package middlewares

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain"
	"github.com/janhq/agent-middleware/internal/infrastructure/auth"
	"github.com/janhq/agent-middleware/internal/infrastructure/metrics"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

const principalContextKey = "principal"

// Headers trusted in place of a bearer token when token validation is switched off.
const (
	headerUserSubject = "X-User-Subject"
	headerUserEmail   = "X-User-Email"
	headerUserName    = "X-User-Name"
)

var errMissingCredentials = errors.New("authentication required")

// AuthMiddleware validates bearer tokens. With a nil validator (AUTH_ENABLED=false) it trusts the
// X-User-Subject header instead, as a gateway in front of the service would set it.
func AuthMiddleware(validator auth.TokenValidator, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			principal domain.Principal
			err       error
		)
		if validator == nil {
			principal, err = principalFromHeaders(c)
		} else {
			principal, err = principalFromJWT(c, validator)
		}

		if err != nil {
			status := "failure"
			if errors.Is(err, errMissingCredentials) {
				status = "missing"
			}
			metrics.RecordAuth(authType(validator), status)
			log.Warn().
				Err(err).
				Str("path", c.FullPath()).
				Str("method", c.Request.Method).
				Str("request_id", RequestIDFromContext(c)).
				Msg("unauthenticated request")
			platformerrors.WriteUnauthorized(c, "authentication required")
			return
		}

		metrics.RecordAuth(authType(validator), "success")
		setPrincipal(c, principal)
		c.Next()
	}
}

// PrincipalFromContext returns the authenticated principal, if any.
func PrincipalFromContext(c *gin.Context) (domain.Principal, bool) {
	val, ok := c.Get(principalContextKey)
	if !ok {
		return domain.Principal{}, false
	}
	principal, ok := val.(domain.Principal)
	return principal, ok
}

func setPrincipal(c *gin.Context, principal domain.Principal) {
	c.Set(principalContextKey, principal)
}

func authType(validator auth.TokenValidator) string {
	if validator == nil {
		return string(domain.AuthMethodGateway)
	}
	return string(domain.AuthMethodJWT)
}

func principalFromJWT(c *gin.Context, validator auth.TokenValidator) (domain.Principal, error) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok {
		return domain.Principal{}, errMissingCredentials
	}

	claims, err := validator.Validate(c.Request.Context(), token)
	if err != nil {
		return domain.Principal{}, err
	}

	return domain.Principal{
		AuthMethod: domain.AuthMethodJWT,
		Subject:    claims.Subject,
		Email:      claims.Email,
		Name:       claims.Name,
	}, nil
}

func principalFromHeaders(c *gin.Context) (domain.Principal, error) {
	subject := strings.TrimSpace(c.GetHeader(headerUserSubject))
	if subject == "" {
		return domain.Principal{}, errMissingCredentials
	}
	return domain.Principal{
		AuthMethod: domain.AuthMethodGateway,
		Subject:    subject,
		Email:      strings.TrimSpace(c.GetHeader(headerUserEmail)),
		Name:       strings.TrimSpace(c.GetHeader(headerUserName)),
	}, nil
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
