package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/janhq/agent-middleware/internal/config"
	"github.com/janhq/agent-middleware/internal/domain/identity"
	"github.com/janhq/agent-middleware/internal/infrastructure"
	middleware "github.com/janhq/agent-middleware/internal/interfaces/httpserver/middlewares"
	v1 "github.com/janhq/agent-middleware/internal/interfaces/httpserver/routes/v1"

	_ "github.com/janhq/agent-middleware/docs/swagger"
)

type HTTPServer struct {
	engine   *gin.Engine
	infra    *infrastructure.Infrastructure
	v1Route  *v1.V1Route
	identity *identity.Service
	config   *config.Config
}

func NewHttpServer(
	v1Route *v1.V1Route,
	identityService *identity.Service,
	infra *infrastructure.Infrastructure,
	cfg *config.Config,
) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	server := &HTTPServer{
		engine:   gin.New(),
		infra:    infra,
		v1Route:  v1Route,
		identity: identityService,
		config:   cfg,
	}

	server.engine.Use(middleware.Recovery(infra.Logger))
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.TracingMiddleware(cfg.ServiceName))
	server.engine.Use(middleware.LoggingMiddleware(infra.Logger, infra.Sanitizer))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	server.engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": cfg.ServiceName, "status": "running"})
	})
	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", server.readyz)
	server.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	server.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	protected := server.engine.Group("/")
	protected.Use(
		middleware.AuthMiddleware(infra.TokenValidator, infra.Logger),
		middleware.IdentityMiddleware(identityService, infra.Logger),
	)
	server.v1Route.RegisterRouter(protected)

	return server
}

// Handler exposes the configured engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) readyz(c *gin.Context) {
	checks := gin.H{"database": "ok"}
	ready := true

	if err := s.infra.Ping(c.Request.Context()); err != nil {
		checks["database"] = "unavailable"
		ready = false
	}
	if s.infra.TokenValidator != nil {
		checks["jwks"] = "ok"
		if !s.infra.TokenValidator.Ready() {
			checks["jwks"] = "unavailable"
			ready = false
		}
	}

	if !ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "checks": checks})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "checks": checks})
}

// Run serves until ctx is cancelled, then drains in-flight requests for up to the configured
// shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.infra.Logger.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	s.infra.Logger.Info().Msg("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
