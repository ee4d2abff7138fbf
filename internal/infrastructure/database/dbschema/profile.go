package dbschema

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/profile"
)

// Profile stores per-identity agent customization. One row per identity at most.
type Profile struct {
	ID                         uint      `gorm:"primaryKey"`
	IdentityID                 uint      `gorm:"not null;uniqueIndex:ux_profiles_identity_id"`
	PreferredAgentInstructions *string   `gorm:"type:text"`
	CustomWorkflowsJSON        *string   `gorm:"column:custom_workflows_json;type:text"`
	UpdatedAt                  time.Time `gorm:"not null;autoUpdateTime:false;autoCreateTime:false"`
}

func (Profile) TableName() string {
	return "profiles"
}

// EtoD converts a schema profile back to the domain representation.
func (p *Profile) EtoD() *profile.Profile {
	if p == nil {
		return nil
	}
	return &profile.Profile{
		ID:                         p.ID,
		IdentityID:                 p.IdentityID,
		PreferredAgentInstructions: p.PreferredAgentInstructions,
		CustomWorkflowsJSON:        p.CustomWorkflowsJSON,
		UpdatedAt:                  p.UpdatedAt.UTC(),
	}
}
