// Package identity resolves external identity-provider subjects to stored identity records.
package identity

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/storage"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
	"github.com/janhq/agent-middleware/internal/utils/ptr"
)

// maxResolveAttempts bounds lookup retries after losing a concurrent first insert.
const maxResolveAttempts = 3

// Identity is the stored representation of one external-provider user.
type Identity struct {
	ID                uint
	ExternalSubjectID string
	Email             *string
	DisplayName       *string
	CreatedAt         time.Time
}

// Claims are the verified attributes supplied by the web layer. Email and DisplayName are
// cached copies of provider claims; nil means "not supplied" and leaves the stored value alone.
type Claims struct {
	Subject     string
	Email       *string
	DisplayName *string
}

// Outcome labels how a Resolve call was satisfied.
type Outcome string

const (
	OutcomeExisting  Outcome = "existing"
	OutcomeCreated   Outcome = "created"
	OutcomeRecovered Outcome = "conflict_recovered"
)

// Repository defines storage operations for identities.
// Find methods return (nil, nil) when no row matches.
type Repository interface {
	FindBySubject(ctx context.Context, subject string) (*Identity, error)
	FindByID(ctx context.Context, id uint) (*Identity, error)
	// Create inserts the identity and fills ID. It returns an ErrorTypeConflict error when
	// another row already holds the external subject.
	Create(ctx context.Context, identity *Identity) error
	UpdateClaims(ctx context.Context, id uint, email, displayName *string) error
	// Delete removes the identity and, through store cascades, its profile and conversations.
	Delete(ctx context.Context, id uint) (bool, error)
}

// Recorder observes resolution outcomes.
type Recorder interface {
	IdentityResolved(outcome string)
}

// Service persists and resolves identities from external subjects.
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
		log:      log.With().Str("component", "identity-service").Logger(),
		now:      storage.Now,
	}
}

// Resolve returns the identity for claims.Subject, creating it on first sight.
// Concurrent first-time callers for one subject all observe the same row.
func (s *Service) Resolve(ctx context.Context, claims Claims) (*Identity, error) {
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"external subject identifier is required", nil, "identity-resolve-subject")
	}
	claims.Subject = subject

	recovered := false
	for attempt := 1; ; attempt++ {
		result, outcome, err := s.resolveOnce(ctx, claims)
		if err == nil {
			if recovered && outcome == OutcomeExisting {
				outcome = OutcomeRecovered
			}
			s.record(outcome)
			return result, nil
		}

		if !platformerrors.IsErrorType(err, platformerrors.ErrorTypeConflict) || attempt >= maxResolveAttempts {
			return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "resolve identity")
		}

		s.log.Debug().
			Str("subject", subject).
			Int("attempt", attempt).
			Msg("lost concurrent identity insert, re-reading winner")
		recovered = true
	}
}

func (s *Service) resolveOnce(ctx context.Context, claims Claims) (*Identity, Outcome, error) {
	var (
		result  *Identity
		outcome Outcome
	)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.repo.FindBySubject(ctx, claims.Subject)
		if err != nil {
			return err
		}

		if existing != nil {
			if claimsChanged(existing, claims) {
				email := pick(claims.Email, existing.Email)
				displayName := pick(claims.DisplayName, existing.DisplayName)
				if err := s.repo.UpdateClaims(ctx, existing.ID, email, displayName); err != nil {
					return err
				}
				existing.Email = email
				existing.DisplayName = displayName
			}
			result, outcome = existing, OutcomeExisting
			return nil
		}

		created := &Identity{
			ExternalSubjectID: claims.Subject,
			Email:             claims.Email,
			DisplayName:       claims.DisplayName,
			CreatedAt:         s.now(),
		}
		if err := s.repo.Create(ctx, created); err != nil {
			return err
		}
		result, outcome = created, OutcomeCreated
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return result, outcome, nil
}

// Get returns the identity with the given key.
func (s *Service) Get(ctx context.Context, id uint) (*Identity, error) {
	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "get identity")
	}
	if found == nil {
		return nil, notFound(ctx)
	}
	return found, nil
}

// Delete removes the identity together with its profile and conversations.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		deleted, err := s.repo.Delete(ctx, id)
		if err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete identity")
		}
		if !deleted {
			return notFound(ctx)
		}
		s.log.Info().Uint("identity_id", id).Msg("identity deleted")
		return nil
	})
}

func (s *Service) record(outcome Outcome) {
	if s.recorder != nil {
		s.recorder.IdentityResolved(string(outcome))
	}
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		"identity not found", nil, "identity-not-found")
}

func claimsChanged(existing *Identity, claims Claims) bool {
	return (claims.Email != nil && !ptr.Equal(claims.Email, existing.Email)) ||
		(claims.DisplayName != nil && !ptr.Equal(claims.DisplayName, existing.DisplayName))
}

func pick(supplied, current *string) *string {
	if supplied != nil {
		return supplied
	}
	return current
}
