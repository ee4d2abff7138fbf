// Package conversation tracks metadata for threads hosted by the external agent service.
package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/storage"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200

	maxTouchAttempts = 5

	maxThreadIDLength = 255
	maxTitleLength    = 512
)

// Conversation is a metadata pointer to an externally hosted thread.
// LastMessageAt is never earlier than CreatedAt.
type Conversation struct {
	ID               uint
	IdentityID       uint
	ExternalThreadID string
	Title            *string
	CreatedAt        time.Time
	LastMessageAt    time.Time
}

// CreateParams describes a new conversation reference.
type CreateParams struct {
	ExternalThreadID string
	Title            *string
}

// ListOptions paginates List. Zero values select the defaults; Normalized applies them.
type ListOptions struct {
	Limit  int
	Offset int
}

func (o ListOptions) Normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Repository defines storage operations for conversations. Every lookup is scoped to the
// owning identity; Find methods return (nil, nil) when no owned row matches.
type Repository interface {
	Create(ctx context.Context, conv *Conversation) error
	FindByID(ctx context.Context, identityID, id uint) (*Conversation, error)
	FindByThreadID(ctx context.Context, identityID uint, threadID string) (*Conversation, error)
	// ListByIdentity orders by LastMessageAt descending, most recent first.
	ListByIdentity(ctx context.Context, identityID uint, limit, offset int) ([]*Conversation, error)
	// AdvanceLastMessageAt stores lastMessageAt only if it is later than the stored value and
	// reports whether the row changed.
	AdvanceLastMessageAt(ctx context.Context, id uint, lastMessageAt time.Time) (bool, error)
	UpdateTitle(ctx context.Context, id uint, title *string) error
	Delete(ctx context.Context, identityID, id uint) (bool, error)
}

// Recorder observes conversation lifecycle events.
type Recorder interface {
	ConversationCreated()
}

// Service manages conversation metadata.
type Service struct {
	repo     Repository
	tx       storage.Transactor
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository, tx storage.Transactor, recorder Recorder, log zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		tx:       tx,
		recorder: recorder,
		log:      log.With().Str("component", "conversation-service").Logger(),
		now:      storage.Now,
	}
}

// Create records the first reference to a thread under an identity. Referencing a thread
// the identity already tracks returns the existing conversation with created set to false.
func (s *Service) Create(ctx context.Context, identityID uint, params CreateParams) (conv *Conversation, created bool, err error) {
	threadID := strings.TrimSpace(params.ExternalThreadID)
	if threadID == "" {
		return nil, false, validation(ctx, "external thread id is required", "conversation-create-thread")
	}
	if len(threadID) > maxThreadIDLength {
		return nil, false, validation(ctx, "external thread id is too long", "conversation-create-thread-length")
	}
	if err := validateTitle(ctx, params.Title); err != nil {
		return nil, false, err
	}

	var result *Conversation
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindByThreadID(ctx, identityID, threadID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		now := s.now()
		fresh := &Conversation{
			IdentityID:       identityID,
			ExternalThreadID: threadID,
			Title:            params.Title,
			CreatedAt:        now,
			LastMessageAt:    now,
		}
		if err := s.repo.Create(ctx, fresh); err != nil {
			return err
		}
		result, created = fresh, true
		return nil
	})
	if err != nil {
		return nil, false, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create conversation")
	}

	if created {
		if s.recorder != nil {
			s.recorder.ConversationCreated()
		}
		s.log.Debug().
			Uint("identity_id", identityID).
			Uint("conversation_id", result.ID).
			Str("thread_id", threadID).
			Msg("conversation created")
	}
	return result, created, nil
}

// Get returns a conversation owned by the identity.
func (s *Service) Get(ctx context.Context, identityID, id uint) (*Conversation, error) {
	found, err := s.repo.FindByID(ctx, identityID, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "get conversation")
	}
	if found == nil {
		return nil, notFound(ctx)
	}
	return found, nil
}

// List returns the identity's conversations, most recently active first.
func (s *Service) List(ctx context.Context, identityID uint, opts ListOptions) ([]*Conversation, error) {
	opts = opts.Normalized()
	items, err := s.repo.ListByIdentity(ctx, identityID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list conversations")
	}
	return items, nil
}

// Touch records new activity on a conversation owned by the identity.
func (s *Service) Touch(ctx context.Context, identityID, id uint) (*Conversation, error) {
	return s.touch(ctx, func(ctx context.Context) (*Conversation, error) {
		return s.repo.FindByID(ctx, identityID, id)
	})
}

// TouchByThread records new activity against the identity's conversation for threadID.
func (s *Service) TouchByThread(ctx context.Context, identityID uint, threadID string) (*Conversation, error) {
	threadID = strings.TrimSpace(threadID)
	if threadID == "" {
		return nil, validation(ctx, "external thread id is required", "conversation-touch-thread")
	}
	return s.touch(ctx, func(ctx context.Context) (*Conversation, error) {
		return s.repo.FindByThreadID(ctx, identityID, threadID)
	})
}

// touch re-reads the row whenever a concurrent writer advanced it first, so the stored value
// only moves forward and every successful touch lands past what it observed.
func (s *Service) touch(ctx context.Context, find func(ctx context.Context) (*Conversation, error)) (*Conversation, error) {
	var result *Conversation
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		for attempt := 1; attempt <= maxTouchAttempts; attempt++ {
			conv, err := find(ctx)
			if err != nil {
				return err
			}
			if conv == nil {
				return notFound(ctx)
			}

			next := nextActivity(conv.LastMessageAt, s.now())
			advanced, err := s.repo.AdvanceLastMessageAt(ctx, conv.ID, next)
			if err != nil {
				return err
			}
			if advanced {
				conv.LastMessageAt = next
				result = conv
				return nil
			}
			s.log.Debug().
				Uint("conversation_id", conv.ID).
				Int("attempt", attempt).
				Msg("activity advanced concurrently, retrying touch")
		}
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeConflict,
			"conversation is being updated concurrently", nil, "conversation-touch-contended")
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "touch conversation")
	}
	return result, nil
}

// Rename sets or clears the conversation title.
func (s *Service) Rename(ctx context.Context, identityID, id uint, title *string) (*Conversation, error) {
	if err := validateTitle(ctx, title); err != nil {
		return nil, err
	}

	var result *Conversation
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		conv, err := s.repo.FindByID(ctx, identityID, id)
		if err != nil {
			return err
		}
		if conv == nil {
			return notFound(ctx)
		}
		if err := s.repo.UpdateTitle(ctx, conv.ID, title); err != nil {
			return err
		}
		conv.Title = title
		result = conv
		return nil
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "rename conversation")
	}
	return result, nil
}

// Delete removes a conversation owned by the identity. Conversations of other identities
// report not found.
func (s *Service) Delete(ctx context.Context, identityID, id uint) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		deleted, err := s.repo.Delete(ctx, identityID, id)
		if err != nil {
			return err
		}
		if !deleted {
			return notFound(ctx)
		}
		return nil
	})
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete conversation")
	}
	return nil
}

// nextActivity advances strictly past previous even when the clock has not moved.
func nextActivity(previous, now time.Time) time.Time {
	if now.After(previous) {
		return now
	}
	return previous.Add(time.Microsecond)
}

func validateTitle(ctx context.Context, title *string) error {
	if title != nil && len(*title) > maxTitleLength {
		return validation(ctx, "title is too long", "conversation-title-length")
	}
	return nil
}

func validation(ctx context.Context, message, code string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, nil, code)
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		"conversation not found", nil, "conversation-not-found")
}
