package handlers

import (
	"github.com/google/wire"

	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/conversationhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/identityhandler"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers/profilehandler"
)

var HandlerProvider = wire.NewSet(
	identityhandler.NewIdentityHandler,
	profilehandler.NewProfileHandler,
	conversationhandler.NewConversationHandler,
)
