// Package profile manages the per-identity agent customization record.
package profile

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/domain/storage"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// Profile holds user-customizable agent settings. CustomWorkflowsJSON is an opaque payload
// owned by the agent service and is stored without being parsed.
type Profile struct {
	ID                         uint
	IdentityID                 uint
	PreferredAgentInstructions *string
	CustomWorkflowsJSON        *string
	UpdatedAt                  time.Time
}

// UpdateRequest represents fields that can be updated via API. Nil fields are left untouched.
type UpdateRequest struct {
	PreferredAgentInstructions *string
	CustomWorkflowsJSON        *string
}

// IsEmpty reports whether no field was supplied.
func (r UpdateRequest) IsEmpty() bool {
	return r.PreferredAgentInstructions == nil && r.CustomWorkflowsJSON == nil
}

// Repository defines storage operations for profiles.
type Repository interface {
	// FindByIdentityID returns (nil, nil) when the identity has no profile.
	FindByIdentityID(ctx context.Context, identityID uint) (*Profile, error)
	// Upsert inserts the profile or, when one exists for the identity, updates only the
	// supplied fields. The unique owner index arbitrates concurrent first writes.
	Upsert(ctx context.Context, identityID uint, req UpdateRequest, updatedAt time.Time) (*Profile, error)
}

// Service manages profile operations.
type Service struct {
	repo Repository
	tx   storage.Transactor
	log  zerolog.Logger
	now  func() time.Time
}

// NewService constructs a Service with required dependencies.
func NewService(repo Repository, tx storage.Transactor, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		tx:   tx,
		log:  log.With().Str("component", "profile-service").Logger(),
		now:  storage.Now,
	}
}

// Get returns the profile of an identity.
func (s *Service) Get(ctx context.Context, identityID uint) (*Profile, error) {
	found, err := s.repo.FindByIdentityID(ctx, identityID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "get profile")
	}
	if found == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
			"profile not found", nil, "profile-not-found")
	}
	return found, nil
}

// Upsert creates the profile on first write or updates the supplied fields.
func (s *Service) Upsert(ctx context.Context, identityID uint, req UpdateRequest) (*Profile, error) {
	if identityID == 0 {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"identity is required", nil, "profile-upsert-identity")
	}

	var result *Profile
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		saved, err := s.repo.Upsert(ctx, identityID, req, s.now())
		if err != nil {
			return err
		}
		result = saved
		return nil
	})
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "upsert profile")
	}

	s.log.Debug().Uint("identity_id", identityID).Uint("profile_id", result.ID).Msg("profile saved")
	return result, nil
}
