package identityres

import (
	"time"

	"github.com/janhq/agent-middleware/internal/domain/identity"
)

type IdentityResponse struct {
	ID                uint      `json:"id"`
	Object            string    `json:"object"`
	ExternalSubjectID string    `json:"external_subject_id"`
	Email             *string   `json:"email"`
	DisplayName       *string   `json:"display_name"`
	CreatedAt         time.Time `json:"created_at"`
}

type IdentityDeletedResponse struct {
	ID      uint   `json:"id"`
	Object  string `json:"object"`
	Deleted bool   `json:"deleted"`
}

func NewIdentityResponse(i *identity.Identity) *IdentityResponse {
	return &IdentityResponse{
		ID:                i.ID,
		Object:            "identity",
		ExternalSubjectID: i.ExternalSubjectID,
		Email:             i.Email,
		DisplayName:       i.DisplayName,
		CreatedAt:         i.CreatedAt,
	}
}

func NewIdentityDeletedResponse(id uint) *IdentityDeletedResponse {
	return &IdentityDeletedResponse{ID: id, Object: "identity.deleted", Deleted: true}
}
