package identityrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/dbschema"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/transaction"
	"github.com/janhq/agent-middleware/internal/utils/platformerrors"
)

// IdentityGormRepository implements identity.Repository using GORM.
type IdentityGormRepository struct {
	db *transaction.Database
}

var _ identity.Repository = (*IdentityGormRepository)(nil)

// NewIdentityGormRepository constructs a new repository.
func NewIdentityGormRepository(db *transaction.Database) identity.Repository {
	return &IdentityGormRepository{db: db}
}

func (repo *IdentityGormRepository) FindBySubject(ctx context.Context, subject string) (*identity.Identity, error) {
	var entity dbschema.Identity
	err := repo.db.GetTx(ctx).
		Where("external_subject_id = ?", subject).
		Take(&entity).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to find identity by subject", "id-01")
	}
	return entity.EtoD(), nil
}

func (repo *IdentityGormRepository) FindByID(ctx context.Context, id uint) (*identity.Identity, error) {
	var entity dbschema.Identity
	err := repo.db.GetTx(ctx).Take(&entity, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, platformerrors.FromStorageError(ctx, err, "failed to find identity by id", "id-02")
	}
	return entity.EtoD(), nil
}

// Create inserts the identity, leaving an existing row for the same subject untouched.
func (repo *IdentityGormRepository) Create(ctx context.Context, i *identity.Identity) error {
	entity := dbschema.NewSchemaIdentity(i)
	result := repo.db.GetTx(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_subject_id"}},
			DoNothing: true,
		}).
		Create(entity)
	if result.Error != nil {
		return platformerrors.FromStorageError(ctx, result.Error, "failed to create identity", "id-03")
	}
	if result.RowsAffected == 0 {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeConflict,
			"identity already exists for subject", nil, "id-04")
	}

	i.ID = entity.ID
	return nil
}

func (repo *IdentityGormRepository) UpdateClaims(ctx context.Context, id uint, email, displayName *string) error {
	err := repo.db.GetTx(ctx).
		Model(&dbschema.Identity{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"email":        email,
			"display_name": displayName,
		}).
		Error
	if err != nil {
		return platformerrors.FromStorageError(ctx, err, "failed to update identity claims", "id-05")
	}
	return nil
}

func (repo *IdentityGormRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := repo.db.GetTx(ctx).Delete(&dbschema.Identity{}, id)
	if result.Error != nil {
		return false, platformerrors.FromStorageError(ctx, result.Error, "failed to delete identity", "id-06")
	}
	return result.RowsAffected > 0, nil
}
