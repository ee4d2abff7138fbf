package conversationres

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
)

// ConversationResponse describes a tracked thread reference.
type ConversationResponse struct {
	ID               uint      `json:"id"`
	Object           string    `json:"object"`
	ExternalThreadID string    `json:"external_thread_id"`
	Title            *string   `json:"title"`
	CreatedAt        time.Time `json:"created_at"`
	LastMessageAt    time.Time `json:"last_message_at"`
}

// ConversationListResponse represents one page of conversations, most recent first.
type ConversationListResponse struct {
	Object  string                 `json:"object"`
	Data    []ConversationResponse `json:"data"`
	FirstID *uint                  `json:"first_id"`
	LastID  *uint                  `json:"last_id"`
	Limit   int                    `json:"limit"`
	Offset  int                    `json:"offset"`
}

// ConversationDeletedResponse represents the delete confirmation response
type ConversationDeletedResponse struct {
	ID      uint   `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func NewConversationResponse(conv *conversation.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:               conv.ID,
		Object:           "conversation",
		ExternalThreadID: conv.ExternalThreadID,
		Title:            conv.Title,
		CreatedAt:        conv.CreatedAt,
		LastMessageAt:    conv.LastMessageAt,
	}
}

func NewConversationListResponse(conversations []*conversation.Conversation, opts conversation.ListOptions) *ConversationListResponse {
	data := make([]ConversationResponse, 0, len(conversations))
	for _, conv := range conversations {
		data = append(data, *NewConversationResponse(conv))
	}

	resp := &ConversationListResponse{
		Object: "list",
		Data:   data,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	if len(conversations) > 0 {
		first := conversations[0].ID
		last := conversations[len(conversations)-1].ID
		resp.FirstID, resp.LastID = &first, &last
	}
	return resp
}

func NewConversationDeletedResponse(id uint) *ConversationDeletedResponse {
	return &ConversationDeletedResponse{ID: id, Object: "conversation.deleted", Deleted: true}
}
