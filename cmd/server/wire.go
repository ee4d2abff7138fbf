//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"github.com/janhq/agent-middleware/internal/config"
	"github.com/janhq/agent-middleware/internal/domain"
	"github.com/janhq/agent-middleware/internal/infrastructure"
	"github.com/janhq/agent-middleware/internal/interfaces"
	"github.com/janhq/agent-middleware/internal/interfaces/httpserver/routes"
)

func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(
		domain.ServiceProvider,
		infrastructure.InfrastructureProvider,
		routes.RouteProvider,
		interfaces.InterfacesProvider,
		wire.Struct(new(Application), "*"),
	)
	return nil, nil, nil
}
