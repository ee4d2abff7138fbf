package conversationrepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/dbschema"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// ConversationGormRepository implements conversation.Repository using GORM.
type ConversationGormRepository struct {
	db *transaction.Database
}

var _ conversation.Repository = (*ConversationGormRepository)(nil)

// NewConversationGormRepository constructs a new repository.
func NewConversationGormRepository(db *transaction.Database) conversation.Repository {
	return &ConversationGormRepository{db: db}
}

func (repo *ConversationGormRepository) Create(ctx context.Context, c *conversation.Conversation) error {
	entity := dbschema.NewSchemaConversation(c)
	if err := repo.db.GetTx(ctx).Create(entity).Error; err != nil {
		return platformerrors.FromStorageError(ctx, err, "failed to create conversation", "cv-01")
	}
	c.ID = entity.ID
	return nil
}

func (repo *ConversationGormRepository) FindByID(ctx context.Context, identityID, id uint) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := repo.db.GetTx(ctx).
		Where("id = ? AND identity_id = ?", id, identityID).
		Take(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to find conversation", "cv-02")
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) FindByThreadID(ctx context.Context, identityID uint, threadID string) (*conversation.Conversation, error) {
	var entity dbschema.Conversation
	err := repo.db.GetTx(ctx).
		Where("identity_id = ? AND external_thread_id = ?", identityID, threadID).
		Order("id ASC").
		First(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to find conversation by thread", "cv-03")
	}
	return entity.EtoD(), nil
}

func (repo *ConversationGormRepository) ListByIdentity(ctx context.Context, identityID uint, limit, offset int) ([]*conversation.Conversation, error) {
	var entities []dbschema.Conversation
	err := repo.db.GetTx(ctx).
		Where("identity_id = ?", identityID).
		Order("last_message_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entities).
		Error
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to list conversations", "cv-04")
	}

	result := make([]*conversation.Conversation, 0, len(entities))
	for i := range entities {
		result = append(result, entities[i].EtoD())
	}
	return result, nil
}

// AdvanceLastMessageAt only moves activity forward: a row already at or past lastMessageAt is
// left untouched and reported as not advanced.
func (repo *ConversationGormRepository) AdvanceLastMessageAt(ctx context.Context, id uint, lastMessageAt time.Time) (bool, error) {
	at := lastMessageAt.UTC()
	result := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ? AND last_message_at < ?", id, at).
		UpdateColumn("last_message_at", at)
	if result.Error != nil {
		return false, platformerrors.FromStorageError(ctx, result.Error, "failed to update conversation activity", "cv-05")
	}
	return result.RowsAffected > 0, nil
}

func (repo *ConversationGormRepository) UpdateTitle(ctx context.Context, id uint, title *string) error {
	err := repo.db.GetTx(ctx).
		Model(&dbschema.Conversation{}).
		Where("id = ?", id).
		UpdateColumn("title", title).
		Error
	if err != nil {
		return platformerrors.FromStorageError(ctx, err, "failed to update conversation title", "cv-06")
	}
	return nil
}

func (repo *ConversationGormRepository) Delete(ctx context.Context, identityID, id uint) (bool, error) {
	result := repo.db.GetTx(ctx).
		Where("id = ? AND identity_id = ?", id, identityID).
		Delete(&dbschema.Conversation{})
	if result.Error != nil {
		return false, platformerrors.FromStorageError(ctx, result.Error, "failed to delete conversation", "cv-07")
	}
	return result.RowsAffected > 0, nil
}
