package profilereq

import "github.com/janhq/agent-middleware/internal/domain/profile"

// UpdateProfileRequest is the body of PUT /v1/profile. Omitted fields keep their stored value.
type UpdateProfileRequest struct {
	PreferredAgentInstructions *string `json:"preferred_agent_instructions"`
	// CustomWorkflowsJSON is stored verbatim and never parsed by this service.
	CustomWorkflowsJSON *string `json:"custom_workflows_json"`
}

func (r UpdateProfileRequest) ToDomain() profile.UpdateRequest {
	return profile.UpdateRequest{
		PreferredAgentInstructions: r.PreferredAgentInstructions,
		CustomWorkflowsJSON:        r.CustomWorkflowsJSON,
	}
}
