package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/himTresor1/celia-sub001/internal/bootstrap"
	"github.com/himTresor1/celia-sub001/internal/config"
	"github.com/himTresor1/celia-sub001/internal/middleware"

	connHttp "github.com/himTresor1/celia-sub001/internal/modules/connection/delivery/http"
	engagementHttp "github.com/himTresor1/celia-sub001/internal/modules/engagement/delivery/http"
	eventHttp "github.com/himTresor1/celia-sub001/internal/modules/event/delivery/http"
	invHttp "github.com/himTresor1/celia-sub001/internal/modules/invitation/delivery/http"
	notiHttp "github.com/himTresor1/celia-sub001/internal/modules/notification/delivery/http"
	statHttp "github.com/himTresor1/celia-sub001/internal/modules/stat/delivery/http"
)

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
	httpServer  *http.Server
}

// NewServer registers every route. wrap decorates the final handler, e.g. with tracing.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, services *bootstrap.Services, logger *slog.Logger, wrap func(http.Handler) http.Handler) *Server {
	origins := splitOrigins(cfg.AllowedOrigins)

	connectionHandler := connHttp.NewConnectionHandler(services.Connections)
	eventHandler := eventHttp.NewEventHandler(services.Events)
	invitationHandler := invHttp.NewInvitationHandler(services.Invitations)
	engagementHandler := engagementHttp.NewEngagementHandler(services.Engagement)
	statHandler := statHttp.NewStatHandler(services.Stats)
	notificationHandler := notiHttp.NewNotificationHandler(services.Notifications, redisClient, origins)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	setupCORS(router, origins)

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger, "/healthz", "/metrics"))

	router.GET("/healthz", healthz(db, redisClient))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	api := router.Group("/api")
	api.GET("/push/vapid-public-key", notificationHandler.VAPIDPublicKey)

	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		// Connection routes
		protected.POST("/connections/pulse", connectionHandler.SendPulse)
		protected.GET("/connections", connectionHandler.ListFriends)
		protected.GET("/connections/:otherUserId", connectionHandler.GetStatus)
		protected.DELETE("/connections/:otherUserId", connectionHandler.Unfriend)

		// Event routes
		protected.POST("/events", eventHandler.CreateEvent)
		protected.GET("/events/:id", eventHandler.GetEvent)
		protected.POST("/events/:id/invitations/bulk", invitationHandler.BulkInvite)
		protected.GET("/events/:id/invitations", invitationHandler.ListForEvent)

		// Invitation routes
		protected.GET("/invitations", invitationHandler.ListReceived)
		protected.PATCH("/invitations/:id", invitationHandler.Respond)

		// User routes
		protected.POST("/users/me/activity", engagementHandler.TouchActivity)
		protected.GET("/users/me/engagement", engagementHandler.GetHistory)
		protected.GET("/users/:id/stats", statHandler.GetUserStats)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
		protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
		protected.GET("/notifications/ws", notificationHandler.HandleWebSocket)
		protected.POST("/push/subscribe", notificationHandler.Subscribe)
		protected.DELETE("/push/subscribe", notificationHandler.Unsubscribe)
	}

	var handler http.Handler = router
	if wrap != nil {
		handler = wrap(router)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func healthz(db *gorm.DB, redisClient *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"database": "ok"}
		code := http.StatusOK

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["database"] = err.Error()
			code = http.StatusServiceUnavailable
		}

		if redisClient != nil {
			status["redis"] = "ok"
			if err := redisClient.Ping(ctx).Err(); err != nil {
				status["redis"] = err.Error()
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, status)
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
