package conversationreq

import (
	"github.com/janhq/agent-middleware/internal/domain/conversation"
)

// CreateConversationRequest is the body of POST /v1/conversations.
type CreateConversationRequest struct {
	ExternalThreadID string  `json:"external_thread_id" binding:"required"`
	Title            *string `json:"title"`
}

func (r CreateConversationRequest) ToDomain() conversation.CreateParams {
	return conversation.CreateParams{
		ExternalThreadID: r.ExternalThreadID,
		Title:            r.Title,
	}
}

// RenameConversationRequest is the body of PATCH /v1/conversations/:conversation_id.
// A null title clears it.
type RenameConversationRequest struct {
	Title *string `json:"title"`
}

// ListConversationsQuery carries the pagination query string.
type ListConversationsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

func (q ListConversationsQuery) ToDomain() conversation.ListOptions {
	return conversation.ListOptions{Limit: q.Limit, Offset: q.Offset}
}
