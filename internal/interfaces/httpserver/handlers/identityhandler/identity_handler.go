package identityhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/responses/identityres"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// IdentityHandler serves the caller's own identity record.
type IdentityHandler struct {
	service *identity.Service
	logger  zerolog.Logger
}

// NewIdentityHandler constructs a new handler instance.
func NewIdentityHandler(service *identity.Service, logger zerolog.Logger) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		logger:  logger.With().Str("handler", "identity").Logger(),
	}
}

// GetMe handles GET /v1/me
// @Summary Get current identity
// @Description Returns the identity resolved from the bearer token, creating it on first use
// @Tags Identity
// @Security BearerAuth
// @Produce json
// @Success 200 {object} identityres.IdentityResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Failure 503 {object} platformerrors.HTTPErrorResponse
// @Router /v1/me [get]
func (h *IdentityHandler) GetMe(c *gin.Context) {
	current, ok := middlewares.IdentityFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return
	}
	c.JSON(http.StatusOK, identityres.NewIdentityResponse(current))
}

// DeleteMe handles DELETE /v1/me
// @Summary Delete current identity
// @Description Deletes the caller's identity together with its profile and conversation records
// @Tags Identity
// @Security BearerAuth
// @Produce json
// @Success 200 {object} identityres.IdentityDeletedResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/me [delete]
func (h *IdentityHandler) DeleteMe(c *gin.Context) {
	current, ok := middlewares.IdentityFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return
	}

	if err := h.service.Delete(c.Request.Context(), current.ID); err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, identityres.NewIdentityDeletedResponse(current.ID))
}
