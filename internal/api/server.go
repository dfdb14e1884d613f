package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eventsphere/eventsphere/internal/api/auth"
	"github.com/eventsphere/eventsphere/internal/api/handler"
	"github.com/eventsphere/eventsphere/internal/api/ratelimit"
	"github.com/eventsphere/eventsphere/internal/cache"
	"github.com/eventsphere/eventsphere/internal/config"
	"github.com/eventsphere/eventsphere/internal/database"
	"github.com/eventsphere/eventsphere/internal/engine"
	"github.com/eventsphere/eventsphere/internal/realtime"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "eventsphere_session"

// Server is the HTTP front of EventSphere: the JSON API under /api and the websocket at /ws.
type Server struct {
	cfg       *config.Config
	ginEngine *gin.Engine
	engine    *engine.Engine
	db        database.DB
	hub       *realtime.Hub
	cache     *cache.AppCache
	auth      *auth.Authenticator
	oidc      *auth.OIDCProvider
}

// New creates the server and registers all routes.
func New(ctx context.Context, cfg *config.Config, e *engine.Engine, db database.DB, hub *realtime.Hub, appCache *cache.AppCache) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	if log.GetLevel() > log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:       cfg,
		ginEngine: gin.New(),
		engine:    e,
		db:        db,
		hub:       hub,
		cache:     appCache,
		auth:      auth.NewAuthenticator(cfg.Auth, e, appCache),
	}

	if cfg.Auth.OIDC != nil && cfg.Auth.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(ctx, cfg.Auth.OIDC, e, s.auth, cfg.ServerURL+"/")
		if err != nil {
			return nil, fmt.Errorf("failed to create oidc provider: %w", err)
		}
		s.oidc = provider
	}

	s.setupMiddleware()
	s.setupRoutes()
	s.setupAdminRoutes()

	return s, nil
}

// Handler returns the http.Handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.ginEngine
}

func (s *Server) setupMiddleware() {
	s.ginEngine.Use(gin.Recovery(), requestLogger())
	s.ginEngine.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/ws"})))

	if s.cfg.CORS != nil && len(s.cfg.CORS.AllowedOrigins) > 0 {
		s.ginEngine.Use(cors.New(cors.Config{
			AllowOrigins:     s.cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"Content-Disposition", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	if s.cfg.RateLimit != nil && s.cfg.RateLimit.Enabled {
		limiter := ratelimit.New(s.cfg.RateLimit, s.identify, s.engine.APIRateLimit)
		s.ginEngine.Use(limiter.Middleware())
	}
}

func (s *Server) setupSession(group *gin.RouterGroup) {
	store := cookie.NewStore([]byte(s.cfg.Auth.SessionKey))
	store.Options(sessions.Options{
		Path:     "/api/auth/oidc",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   s.cfg.Auth.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	group.Use(sessions.Sessions(sessionName, store))
}

// identify resolves the rate limit identity from the auth cookie without touching the database.
func (s *Server) identify(c *gin.Context) *ratelimit.Identity {
	claims := s.auth.PeekClaims(c)
	if claims == nil {
		return nil
	}
	return &ratelimit.Identity{UserID: claims.UserID, IsAdmin: claims.IsAdmin}
}

func (s *Server) setupRoutes() {
	h := handler.New(s.engine, s.auth, s.cfg)

	s.ginEngine.GET("/ws", s.hub.ServeWS)

	api := s.ginEngine.Group("/api")
	api.GET("/health", handler.Health)

	authGroup := api.Group("/auth")
	authGroup.GET("/providers", h.AuthProviders)
	authGroup.POST("/register", h.Register)
	authGroup.POST("/login", h.Login)
	authGroup.POST("/logout", h.Logout)
	authGroup.GET("/check", s.auth.RequireAuth(), h.Check)
	authGroup.GET("/verify-email/:token", h.VerifyEmail)
	if s.oidc != nil {
		oidcGroup := authGroup.Group("/oidc")
		s.setupSession(oidcGroup)
		oidcGroup.GET("/login", s.oidc.Login)
		oidcGroup.GET("/callback", s.oidc.Callback)
	}

	events := api.Group("/events")
	events.GET("", h.ListEvents)
	events.GET("/:id", s.auth.OptionalAuth(), h.GetEvent)
	events.POST("", s.auth.RequireAuth(), h.CreateEvent)
	events.POST("/:id/rsvp", s.auth.RequireAuth(), h.SubmitRSVP)
	events.GET("/:id/rsvp", s.auth.RequireAuth(), h.GetRSVP)
	events.POST("/:id/report", s.auth.RequireAuth(), h.ReportEvent)

	api.GET("/announcements", h.ListAnnouncements)

	protected := api.Group("")
	protected.Use(s.auth.RequireAuth())
	protected.GET("/notifications", h.ListNotifications)
	protected.PUT("/notifications/:id/read", h.MarkNotificationRead)

	api.GET("/push/vapid-key", h.GetVAPIDKey)
	protected.POST("/push/subscribe", h.SubscribePush)
	protected.DELETE("/push/subscribe", h.UnsubscribePush)
}

func (s *Server) setupAdminRoutes() {
	a := handler.NewAdmin(s.engine, s.db, s.cache, s.hub, s.cfg)

	admin := s.ginEngine.Group("/api/admin")
	admin.Use(s.auth.RequireAuth(), s.auth.RequireAdmin())

	admin.GET("/events", a.ListEvents)
	admin.GET("/events/hidden", a.ListHiddenEvents)
	admin.GET("/events/:id/attendees", a.ListAttendees)
	admin.PUT("/events/:id/status", a.Audit(handler.ActionEventStatus, "event"), a.SetEventStatus)
	admin.PUT("/events/:id/unhide", a.Audit(handler.ActionEventUnhide, "event"), a.UnhideEvent)
	admin.DELETE("/events/:id", a.Audit(handler.ActionEventDelete, "event"), a.DeleteEvent)

	admin.GET("/users", a.ListUsers)
	admin.PUT("/users/:id/role", a.Audit(handler.ActionUserRole, "user"), a.SetUserRole)
	admin.PUT("/users/:id/status", a.Audit(handler.ActionUserStatus, "user"), a.SetUserStatus)

	admin.GET("/reports", a.ListReports)
	admin.GET("/reports/resolved", a.ListResolvedReports)
	admin.GET("/reports/:id/details", a.GetReportDetails)
	admin.PUT("/reports/:id/status", a.Audit(handler.ActionReportStatus, "report"), a.SetReportStatus)
	admin.POST("/reports/:id/action", a.Audit(handler.ActionReportModerate, "report"), a.ModerateReport)

	admin.POST("/announcements", a.Audit(handler.ActionAnnouncement, "announcement"), a.CreateAnnouncement)

	admin.GET("/settings", a.GetSettings)
	admin.PUT("/settings", a.Audit(handler.ActionSettings, "settings"), a.UpdateSettings)

	admin.GET("/logs", a.ListAuditLogs)
	admin.GET("/export/:type", a.Export)

	admin.GET("/metrics", a.GetMetrics)
	admin.GET("/metrics/timeseries", a.GetTimeSeries)
	admin.GET("/metrics/breakdown", a.GetBreakdown)
	admin.GET("/metrics/system", a.GetSystemMetrics)

	admin.GET("/scheduler/jobs", a.GetSchedulerJobs)
	admin.POST("/scheduler/jobs/:id/run", a.Audit(handler.ActionJobRun, "job"), a.RunSchedulerJob)
	admin.POST("/scheduler/jobs/:id/enable", a.Audit(handler.ActionJobToggle, "job"), a.EnableSchedulerJob)
	admin.POST("/scheduler/jobs/:id/disable", a.Audit(handler.ActionJobToggle, "job"), a.DisableSchedulerJob)
	admin.GET("/scheduler/cache/stats", a.GetCacheStats)
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.ginEngine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "listen", s.cfg.Listen)
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

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"ip", c.ClientIP(),
		)
	}
}
