package routes

import (
	"github.com/google/wire"

	v1 "github.com/janhq/agent-middleware/internal/interfaces/httpserver/routes/v1"
)

var RouteProvider = wire.NewSet(
	v1.NewV1Route,
)
