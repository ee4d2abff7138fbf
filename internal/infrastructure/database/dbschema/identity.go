package dbschema

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/identity"
)

// Identity represents the persisted identity tied to an external identity provider subject.
type Identity struct {
	ID                uint      `gorm:"primaryKey"`
	ExternalSubjectID string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_identities_external_subject_id"`
	Email             *string   `gorm:"type:varchar(320)"`
	DisplayName       *string   `gorm:"type:varchar(255)"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime:false"`
}

func (Identity) TableName() string {
	return "identities"
}

// NewSchemaIdentity converts a domain identity into a schema instance.
func NewSchemaIdentity(i *identity.Identity) *Identity {
	if i == nil {
		return nil
	}
	return &Identity{
		ID:                i.ID,
		ExternalSubjectID: i.ExternalSubjectID,
		Email:             i.Email,
		DisplayName:       i.DisplayName,
		CreatedAt:         i.CreatedAt.UTC(),
	}
}

// EtoD converts a schema identity back to the domain representation.
func (i *Identity) EtoD() *identity.Identity {
	if i == nil {
		return nil
	}
	return &identity.Identity{
		ID:                i.ID,
		ExternalSubjectID: i.ExternalSubjectID,
		Email:             i.Email,
		DisplayName:       i.DisplayName,
		CreatedAt:         i.CreatedAt.UTC(),
	}
}
