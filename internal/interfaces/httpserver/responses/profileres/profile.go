package profileres

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/profile"
)

type ProfileResponse struct {
	ID                         uint      `json:"id"`
	Object                     string    `json:"object"`
	IdentityID                 uint      `json:"identity_id"`
	PreferredAgentInstructions *string   `json:"preferred_agent_instructions"`
	CustomWorkflowsJSON        *string   `json:"custom_workflows_json"`
	UpdatedAt                  time.Time `json:"updated_at"`
}

func NewProfileResponse(p *profile.Profile) *ProfileResponse {
	return &ProfileResponse{
		ID:                         p.ID,
		Object:                     "profile",
		IdentityID:                 p.IdentityID,
		PreferredAgentInstructions: p.PreferredAgentInstructions,
		CustomWorkflowsJSON:        p.CustomWorkflowsJSON,
		UpdatedAt:                  p.UpdatedAt,
	}
}
