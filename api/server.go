package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"wagermatch/auth"
	"wagermatch/config"
	"wagermatch/metrics"
	"wagermatch/service"
)

// Services groups the application services the HTTP API exposes
type Services struct {
	Matches        service.MatchService
	Expiry         service.ExpiryService
	Users          service.UserService
	LinkedAccounts service.LinkedAccountService
}

// Server is the JSON HTTP API
type Server struct {
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer builds the router and the underlying http.Server
func NewServer(cfg *config.Config, verifier auth.Verifier, services Services) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())
	router.Use(metrics.HTTPMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	registerRoutes(router, verifier, services)

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
	}
}

func registerRoutes(router *gin.Engine, verifier auth.Verifier, services Services) {
	matches := newMatchHandler(services.Matches, services.Expiry)
	users := newUserHandler(services.Users, services.Matches)
	linked := newLinkedAccountHandler(services.LinkedAccounts)
	requireAuth := auth.Middleware(verifier)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/matches", matches.List)
		api.GET("/matches/:id", matches.Get)

		authed := api.Group("", requireAuth)
		authed.POST("/matches", matches.Create)
		authed.DELETE("/matches/expired", matches.SweepExpired)
		authed.POST("/matches/:id/join", matches.Join)
		authed.POST("/matches/:id/ready", matches.Ready)
		authed.POST("/matches/:id/start", matches.Start)
		authed.POST("/matches/:id/submit-result", matches.SubmitResult)
		authed.DELETE("/matches/:id", matches.Cancel)

		authed.GET("/me", users.Me)
		authed.GET("/me/matches", users.MyMatches)

		authed.GET("/linked-accounts", linked.List)
		authed.POST("/linked-accounts", linked.Link)
		authed.DELETE("/linked-accounts", linked.Unlink)
	}
}

func corsConfig(origins []string) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}
	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	return corsCfg
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Debug("Request handled")
	}
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
