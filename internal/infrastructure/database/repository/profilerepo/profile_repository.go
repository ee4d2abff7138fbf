package profilerepo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/agent-middleware/internal/domain/profile"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/dbschema"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// ProfileGormRepository implements profile.Repository using GORM.
type ProfileGormRepository struct {
	db *transaction.Database
}

var _ profile.Repository = (*ProfileGormRepository)(nil)

// NewProfileGormRepository constructs a new repository.
func NewProfileGormRepository(db *transaction.Database) profile.Repository {
	return &ProfileGormRepository{db: db}
}

// FindByIdentityID retrieves the profile owned by identityID.
func (repo *ProfileGormRepository) FindByIdentityID(ctx context.Context, identityID uint) (*profile.Profile, error) {
	var entity dbschema.Profile
	err := repo.db.GetTx(ctx).
		Where("identity_id = ?", identityID).
		Take(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to find profile by identity", "pr-01")
	}
	return entity.EtoD(), nil
}

// Upsert inserts or updates the profile in one statement so concurrent first writes for an
// identity converge on a single row.
func (repo *ProfileGormRepository) Upsert(ctx context.Context, identityID uint, req profile.UpdateRequest, updatedAt time.Time) (*profile.Profile, error) {
	entity := &dbschema.Profile{
		IdentityID:                 identityID,
		PreferredAgentInstructions: req.PreferredAgentInstructions,
		CustomWorkflowsJSON:        req.CustomWorkflowsJSON,
		UpdatedAt:                  updatedAt.UTC(),
	}

	assignments := map[string]interface{}{
		"updated_at": entity.UpdatedAt,
	}
	if req.PreferredAgentInstructions != nil {
		assignments["preferred_agent_instructions"] = *req.PreferredAgentInstructions
	}
	if req.CustomWorkflowsJSON != nil {
		assignments["custom_workflows_json"] = *req.CustomWorkflowsJSON
	}

	err := repo.db.GetTx(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity_id"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(entity).
		Error
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to upsert profile", "pr-02")
	}

	// Reload: on the update path the entity only carries the supplied fields
	var persisted dbschema.Profile
	if err := repo.db.GetTx(ctx).
		Where("identity_id = ?", identityID).
		Take(&persisted).
		Error; err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to reload upserted profile", "pr-03")
	}
	return persisted.EtoD(), nil
}
