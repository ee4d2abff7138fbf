package dbschema

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
)

// Conversation references a thread hosted by the agent service.
type Conversation struct {
	ID               uint      `gorm:"primaryKey"`
	IdentityID       uint      `gorm:"not null;index:ix_conversations_identity_last_message,priority:1"`
	ExternalThreadID string    `gorm:"type:varchar(255);not null;index:ix_conversations_external_thread_id"`
	Title            *string   `gorm:"type:varchar(512)"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime:false"`
	LastMessageAt    time.Time `gorm:"not null;index:ix_conversations_identity_last_message,priority:2,sort:desc"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// NewSchemaConversation converts a domain conversation into a schema instance.
func NewSchemaConversation(c *conversation.Conversation) *Conversation {
	if c == nil {
		return nil
	}
	return &Conversation{
		ID:               c.ID,
		IdentityID:       c.IdentityID,
		ExternalThreadID: c.ExternalThreadID,
		Title:            c.Title,
		CreatedAt:        c.CreatedAt.UTC(),
		LastMessageAt:    c.LastMessageAt.UTC(),
	}
}

// EtoD converts a schema conversation back to the domain representation.
func (c *Conversation) EtoD() *conversation.Conversation {
	if c == nil {
		return nil
	}
	return &conversation.Conversation{
		ID:               c.ID,
		IdentityID:       c.IdentityID,
		ExternalThreadID: c.ExternalThreadID,
		Title:            c.Title,
		CreatedAt:        c.CreatedAt.UTC(),
		LastMessageAt:    c.LastMessageAt.UTC(),
	}
}
