package conversationhandler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/middlewares"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/requests/conversationreq"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/responses/conversationres"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// ConversationHandler handles conversation metadata requests. Every operation is scoped to the
// caller's identity.
type ConversationHandler struct {
	service *conversation.Service
	logger  zerolog.Logger
}

// NewConversationHandler constructs a new handler instance.
func NewConversationHandler(service *conversation.Service, logger zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		logger:  logger.With().Str("handler", "conversation").Logger(),
	}
}

// ListConversations handles GET /v1/conversations
// @Summary List conversations
// @Description Lists the caller's conversations, most recently active first
// @Tags Conversations
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (default 50, max 200)"
// @Param offset query int false "Rows to skip"
// @Success 200 {object} conversationres.ConversationListResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	identityID, ok := currentIdentityID(c)
	if !ok {
		return
	}

	var query conversationreq.ListConversationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		platformerrors.WriteValidationError(c, "limit must be between 1 and 200 and offset must not be negative")
		return
	}

	opts := query.ToDomain().Normalized()
	items, err := h.service.List(c.Request.Context(), identityID, opts)
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationListResponse(items, opts))
}

// CreateConversation handles POST /v1/conversations
// @Summary Track a conversation
// @Description Records a reference to an agent thread. Referencing an already tracked thread returns the existing record.
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation body conversationreq.CreateConversationRequest true "Thread reference"
// @Success 201 {object} conversationres.ConversationResponse
// @Success 200 {object} conversationres.ConversationResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 401 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations [post]
func (h *ConversationHandler) CreateConversation(c *gin.Context) {
	identityID, ok := currentIdentityID(c)
	if !ok {
		return
	}

	var req conversationreq.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "external_thread_id is required")
		return
	}

	conv, created, err := h.service.Create(c.Request.Context(), identityID, req.ToDomain())
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, conversationres.NewConversationResponse(conv))
}

// GetConversation handles GET /v1/conversations/:conversation_id
// @Summary Get a conversation
// @Tags Conversations
// @Security BearerAuth
// @Produce json
// @Param conversation_id path int true "Conversation ID"
// @Success 200 {object} conversationres.ConversationResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations/{conversation_id} [get]
func (h *ConversationHandler) GetConversation(c *gin.Context) {
	identityID, conversationID, ok := h.scope(c)
	if !ok {
		return
	}

	conv, err := h.service.Get(c.Request.Context(), identityID, conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationResponse(conv))
}

// RenameConversation handles PATCH /v1/conversations/:conversation_id
// @Summary Rename a conversation
// @Tags Conversations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param conversation_id path int true "Conversation ID"
// @Param conversation body conversationreq.RenameConversationRequest true "New title; null clears it"
// @Success 200 {object} conversationres.ConversationResponse
// @Failure 400 {object} platformerrors.HTTPErrorResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations/{conversation_id} [patch]
func (h *ConversationHandler) RenameConversation(c *gin.Context) {
	identityID, conversationID, ok := h.scope(c)
	if !ok {
		return
	}

	var req conversationreq.RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		platformerrors.WriteValidationError(c, "invalid request body")
		return
	}

	conv, err := h.service.Rename(c.Request.Context(), identityID, conversationID, req.Title)
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationResponse(conv))
}

// TouchConversation handles POST /v1/conversations/:conversation_id/touch
// @Summary Record conversation activity
// @Description Advances last_message_at; it never moves backwards
// @Tags Conversations
// @Security BearerAuth
// @Produce json
// @Param conversation_id path int true "Conversation ID"
// @Success 200 {object} conversationres.ConversationResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations/{conversation_id}/touch [post]
func (h *ConversationHandler) TouchConversation(c *gin.Context) {
	identityID, conversationID, ok := h.scope(c)
	if !ok {
		return
	}

	conv, err := h.service.Touch(c.Request.Context(), identityID, conversationID)
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationResponse(conv))
}

// TouchThread handles POST /v1/threads/:thread_id/touch
// @Summary Record activity by agent thread id
// @Tags Conversations
// @Security BearerAuth
// @Produce json
// @Param thread_id path string true "External thread ID"
// @Success 200 {object} conversationres.ConversationResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/threads/{thread_id}/touch [post]
func (h *ConversationHandler) TouchThread(c *gin.Context) {
	identityID, ok := currentIdentityID(c)
	if !ok {
		return
	}

	conv, err := h.service.TouchByThread(c.Request.Context(), identityID, c.Param("thread_id"))
	if err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationResponse(conv))
}

// DeleteConversation handles DELETE /v1/conversations/:conversation_id
// @Summary Delete a conversation
// @Tags Conversations
// @Security BearerAuth
// @Produce json
// @Param conversation_id path int true "Conversation ID"
// @Success 200 {object} conversationres.ConversationDeletedResponse
// @Failure 404 {object} platformerrors.HTTPErrorResponse
// @Router /v1/conversations/{conversation_id} [delete]
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	identityID, conversationID, ok := h.scope(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), identityID, conversationID); err != nil {
		platformerrors.WriteError(c, err, h.logger)
		return
	}
	c.JSON(http.StatusOK, conversationres.NewConversationDeletedResponse(conversationID))
}

func (h *ConversationHandler) scope(c *gin.Context) (uint, uint, bool) {
	identityID, ok := currentIdentityID(c)
	if !ok {
		return 0, 0, false
	}

	conversationID, err := strconv.ParseUint(c.Param("conversation_id"), 10, 64)
	if err != nil || conversationID == 0 {
		platformerrors.WriteValidationError(c, "conversation_id must be a positive integer")
		return 0, 0, false
	}
	return identityID, uint(conversationID), true
}

func currentIdentityID(c *gin.Context) (uint, bool) {
	current, ok := middlewares.IdentityFromContext(c)
	if !ok {
		platformerrors.WriteUnauthorized(c, "authentication required")
		return 0, false
	}
	return current.ID, true
}
