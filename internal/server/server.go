package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	"github.com/emilythestrangee/qa-forum/backend/internal/config"
	"github.com/emilythestrangee/qa-forum/backend/internal/handlers"
	"github.com/emilythestrangee/qa-forum/backend/internal/metrics"
	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/realtime"
)

// HealthChecker reports the state of the document store.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	cfg     *config.Config
	handler *handlers.Handler
	hub     *realtime.Hub
	metrics *metrics.Metrics
	health  HealthChecker
	tracer  trace.TracerProvider
	log     *slog.Logger
}

// Deps are the components the server routes requests to.
type Deps struct {
	Handler *handlers.Handler
	Hub     *realtime.Hub
	Metrics *metrics.Metrics
	Health  HealthChecker
	Tracer  trace.TracerProvider
	Log     *slog.Logger
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config, deps Deps) *http.Server {
	newServer := &Server{
		cfg:     cfg,
		handler: deps.Handler,
		hub:     deps.Hub,
		metrics: deps.Metrics,
		health:  deps.Health,
		tracer:  deps.Tracer,
		log:     deps.Log,
	}

	return &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      newServer.RegisterRoutes(),
		IdleTimeout:  cfg.Server.IdleTimeout,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(s.log))
	r.Use(middleware.RequestID())
	if s.tracer != nil {
		r.Use(otelgin.Middleware(s.cfg.Tracing.ServiceName, otelgin.WithTracerProvider(s.tracer)))
	}
	r.Use(middleware.Logger(s.log))
	r.Use(s.metrics.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.CORS.Origins(),
		AllowMethods:     s.cfg.CORS.Methods(),
		AllowHeaders:     s.cfg.CORS.Headers(),
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: s.cfg.CORS.AllowCredentials,
		MaxAge:           s.cfg.CORS.MaxAge,
	}))

	r.GET("/health", s.healthHandler)
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	r.GET(s.cfg.Realtime.Path, s.hub.ServeWS)

	s.handler.Register(r)

	return r
}

func (s *Server) healthHandler(c *gin.Context) {
	stats := s.health.Health(c.Request.Context())
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
