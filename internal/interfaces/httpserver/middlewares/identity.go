package middlewares

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/infrastructure/observability"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
	"github.com/janhq/agent-middleware/internal/utils/ptr"
)

const (
	identityContextKey = "identity"
	identityTracerName = "agent-middleware/identity"
)

// IdentityResolver maps a verified subject to its stored identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims identity.Claims) (*identity.Identity, error)
}

// IdentityMiddleware resolves the authenticated principal to an identity record, creating it on
// first sight. It must run after AuthMiddleware.
func IdentityMiddleware(resolver IdentityResolver, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			platformerrors.WriteUnauthorized(c, "authentication required")
			return
		}

		ctx, span := observability.StartSpan(c.Request.Context(), identityTracerName, "identity.resolve")
		resolved, err := resolver.Resolve(ctx, identity.Claims{
			Subject:     principal.Subject,
			Email:       ptr.ToStringOrNil(principal.Email),
			DisplayName: ptr.ToStringOrNil(principal.Name),
		})
		if err != nil {
			observability.RecordError(ctx, err)
			span.End()
			platformerrors.WriteError(c, err, log)
			return
		}
		span.End()

		c.Set(identityContextKey, resolved)
		c.Next()
	}
}

// IdentityFromContext returns the identity resolved for the request.
func IdentityFromContext(c *gin.Context) (*identity.Identity, bool) {
	val, ok := c.Get(identityContextKey)
	if !ok {
		return nil, false
	}
	resolved, ok := val.(*identity.Identity)
	return resolved, ok && resolved != nil
}
