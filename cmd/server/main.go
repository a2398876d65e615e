package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moviezone/linkgate/internal/config"
	"github.com/moviezone/linkgate/internal/handler"
	"github.com/moviezone/linkgate/internal/middleware"
	"github.com/moviezone/linkgate/internal/model"
	"github.com/moviezone/linkgate/internal/repository"
	"github.com/moviezone/linkgate/internal/scheduler"
	"github.com/moviezone/linkgate/internal/service"
)

const (
	ViewSyncInterval     = 5 * time.Minute
	SessionPurgeInterval = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	postgresRepo, err := repository.NewPostgresRepository(&cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer postgresRepo.Close()
	log.Println("Connected to PostgreSQL")

	redisRepo, err := repository.NewRedisRepository(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisRepo.Close()
	log.Println("Connected to Redis")

	viewSync := scheduler.NewViewSyncScheduler(postgresRepo, redisRepo, ViewSyncInterval)
	viewSync.Start()
	defer viewSync.Stop()

	sessionPurge := scheduler.NewSessionPurgeScheduler(postgresRepo, SessionPurgeInterval)
	sessionPurge.Start()
	defer sessionPurge.Stop()

	svc := service.NewService(postgresRepo, redisRepo, redisRepo, cfg)

	h := handler.NewHandler(svc).WithHealthChecks(postgresRepo, redisRepo)

	rateLimiter := middleware.NewRateLimiter(redisRepo.Client(), &cfg.RateLimit)

	router := gin.New()

	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("panic recovered: path=%s err=%v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Internal server error",
		})
	}))
	router.Use(gin.Logger())

	// ClientIP() keys both rate limiting and ad sessions, so trusted
	// proxies must be pinned when running behind Nginx.
	router.SetTrustedProxies([]string{"127.0.0.1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"})

	router.GET("/health", h.Health)
	router.GET("/health/detailed", h.HealthDetailed)

	api := router.Group("/api")
	{
		public := api.Group("")
		public.Use(rateLimiter.Middleware())
		{
			public.GET("/resolve/:code", h.Resolve)
			public.POST("/ad-views", h.RecordAdView)
		}

		links := api.Group("/links")
		{
			links.POST("/single", middleware.TokenAuth(svc, model.KindSingle), h.CreateSingle)
			links.POST("/quality", middleware.TokenAuth(svc, model.KindQuality), h.CreateQuality)
			links.POST("/episodes", middleware.TokenAuth(svc, model.KindEpisodeSeries), h.CreateEpisodeSeries)
			links.POST("/archive", middleware.TokenAuth(svc, model.KindEpisodeRange), h.CreateEpisodeRange)
		}

		registerAdminRoutes(api, h, &cfg.Auth)
	}

	SetupSwagger(router, &cfg.Auth)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.App.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}

// registerAdminRoutes exposes link and token management behind basic auth.
// Without credentials configured the admin surface stays off entirely.
func registerAdminRoutes(api *gin.RouterGroup, h *handler.Handler, auth *config.AuthConfig) {
	if auth.BasicUser == "" || auth.BasicPassword == "" {
		log.Println("Admin endpoints disabled: set AUTH_BASIC_USER and AUTH_BASIC_PASSWORD to enable")
		return
	}

	admin := api.Group("", gin.BasicAuth(gin.Accounts{
		auth.BasicUser: auth.BasicPassword,
	}))

	admin.GET("/links/:kind", h.ListLinks)
	admin.PATCH("/links/:kind/:id", h.UpdateLink)
	admin.DELETE("/links/:kind/:id", h.DeleteLink)

	admin.POST("/tokens", h.CreateToken)
	admin.GET("/tokens", h.ListTokens)
	admin.PATCH("/tokens/:id/status", h.UpdateTokenStatus)
	admin.DELETE("/tokens/:id", h.DeleteToken)
}
