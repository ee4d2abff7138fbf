package repository

import (
	"github.com/google/wire"

	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/identityrepo"
	"github.com/janhq/agent-middleware/internal/infrastructure/database/repository/profilerepo"
)

var RepositoryProvider = wire.NewSet(
	identityrepo.NewIdentityGormRepository,
	profilerepo.NewProfileGormRepository,
	conversationrepo.NewConversationGormRepository,
)
