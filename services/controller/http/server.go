package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mossline/verdant-controller/services/controller/config"
	"github.com/mossline/verdant-controller/services/controller/db"
	"github.com/mossline/verdant-controller/services/controller/engine"
	"github.com/mossline/verdant-controller/services/controller/telemetry"
)

// Decider is the decision-engine surface the handlers need.
type Decider interface {
	Decide(ctx context.Context, s engine.Sample) (engine.Decision, error)
	Stats() engine.Stats
}

// Store is the persistence surface the handlers need.
type Store interface {
	GetBusy(ctx context.Context, scopeID string) (*time.Time, error)
	ListProfiles(ctx context.Context, plant, stage, ownerID *string) ([]engine.Profile, error)
	InsertSample(ctx context.Context, sample engine.Sample) error
	InsertDecision(ctx context.Context, sampleID string, d engine.Decision) error
	LatestDecision(ctx context.Context, deviceID string) (*db.DecisionRecord, error)
}

// Server bundles router and dependencies for the controller API.
type Server struct {
	cfg       config.Config
	store     Store
	decider   Decider
	publisher *telemetry.Publisher
	engine    *gin.Engine
}

// New constructs a server with routes and middleware. publisher may be nil.
func New(cfg config.Config, store Store, decider Decider, publisher *telemetry.Publisher) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(corsMiddleware())

	if cfg.BearerToken != "" {
		router.Use(bearerAuthMiddleware(cfg.BearerToken))
	}

	server := &Server{cfg: cfg, store: store, decider: decider, publisher: publisher, engine: router}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.engine.Group("/v1")
	v1.POST("/samples", s.handleIngestSample)
	v1.GET("/devices/:device_id/lockout", s.handleGetLockout)
	v1.GET("/devices/:device_id/latest", s.handleLatestDecision)
	v1.GET("/profiles", s.handleListProfiles)
	v1.GET("/stats", s.handleStats)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
