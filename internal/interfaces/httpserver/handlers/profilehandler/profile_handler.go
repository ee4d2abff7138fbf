package profilehandler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/profile"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/requests/profilereq"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/responses/profileres"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// ProfileHandler handles profile HTTP requests.
type ProfileHandler struct {
	service *profile.Service
	logger  zerolog.Logger
}

// NewProfileHandler constructs a new handler instance.
func NewProfileHandler(service *profile.Service, logger zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		logger:  logger.With().Str("handler", "profile").Logger(),
	}
}

// GetProfile handles GET /v1/profile
// @Summary Get profile
// @Description Retrieve the caller's agent customization profile
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} profileres.ProfileResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	current, ok := middlewares.IdentityFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return
	}

	found, err := h.service.Get(c.Request.Context(), current.ID)
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, profileres.NewProfileResponse(found))
}

// UpdateProfile handles PUT /v1/profile
// @Summary Create or update profile
// @Description Creates the profile on first write; afterwards only supplied fields change
// @Tags Profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param profile body profilereq.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} profileres.ProfileResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Failure 409 {object} platformerrors.HTTPErrorResponse
// @Router /v1/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	current, ok := middlewares.IdentityFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return
	}

	var req profilereq.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body")
		return
	}

	updated, err := h.service.Upsert(c.Request.Context(), current.ID, req.ToDomain())
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, profileres.NewProfileResponse(updated))
}
