package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// Recovery converts panics into the standard 500 error envelope.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.Error().
			Interface("panic", recovered).
			Str("request_id", RequestIDFromContext(c)).
			Str("path", c.Request.URL.Path).
			Msg("panic recovered")
		platformerrors.WriteInternalError(c, "internal server error")
	})
}
