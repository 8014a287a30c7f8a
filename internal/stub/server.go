package stub

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"rosterconsole/client/internal/config"
	"rosterconsole/client/internal/models"
)

// API serves a faithful in-memory stand-in for the roster backend's REST
// contract, for development and integration tests without a real server.
type API struct {
	cfg   *config.AppConfig
	log   zerolog.Logger
	store *Store
}

func NewAPI(cfg *config.AppConfig, log zerolog.Logger, store *Store) *API {
	return &API{cfg: cfg, log: log, store: store}
}

func NewEngine(cfg *config.AppConfig, log zerolog.Logger, store *Store) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true

	engine.Use(
		requestID(),
		requestLogger(log),
		recovery(log),
		cors(cfg.AllowCORSOrigins),
	)

	api := NewAPI(cfg, log, store)
	api.Register(engine.Group("/api/v1"))
	return engine
}

func (a *API) Register(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	auth.POST("/login", a.Login)
	auth.POST("/logout", a.Logout)
	auth.POST("/refresh", a.Refresh)
	auth.GET("/me", authRequired(a.cfg, a.store), a.Me)

	users := router.Group("/users")
	users.Use(authRequired(a.cfg, a.store))

	reads := users.Group("")
	reads.Use(requireRoles(models.UserRoleAdmin, models.UserRoleModerator))
	reads.GET("", a.ListUsers)
	reads.GET("/count", a.CountUsers)
	reads.GET("/:id", a.GetUser)

	writes := users.Group("")
	writes.Use(requireRoles(models.UserRoleAdmin))
	writes.POST("", a.CreateUser)
	writes.PATCH("/:id", a.UpdateUser)
	writes.DELETE("/:id", a.DeleteUser)
}

type Server struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
}

func NewServer(cfg *config.AppConfig, log zerolog.Logger, store *Store) *Server {
	engine := NewEngine(cfg, log, store)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &Server{engine: engine, server: srv, log: log}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("stub backend starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("stub backend shutting down")
	return s.server.Shutdown(ctx)
}
