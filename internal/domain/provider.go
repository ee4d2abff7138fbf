package domain

import (
	"github.com/google/wire"

	"github.com/janhq/agent-middleware/internal/domain/conversation"
	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/domain/profile"
)

// ServiceProvider provides all domain services
var ServiceProvider = wire.NewSet(
	identity.NewService,
	profile.NewService,
	conversation.NewService,
)
