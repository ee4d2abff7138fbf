package interfaces

import (
	"github.com/google/wire"

	"github.com/janhq/agent-middleware/internal/interfaces/httpserver"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/handlers"
)

var InterfacesProvider = wire.NewSet(
	handlers.HandlerProvider,
	httpserver.NewHttpServer,
)
