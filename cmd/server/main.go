package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apollorio/rede/internal/config"
	"github.com/apollorio/rede/internal/database"
	"github.com/apollorio/rede/internal/handlers"
	"github.com/apollorio/rede/internal/logging"
	"github.com/apollorio/rede/internal/middleware"
	"github.com/apollorio/rede/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	// Initialize logger
	logger := logging.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting Rede server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)

	identityService := services.NewSessionIdentityService(dbAdapter, redisDB.Client)
	emailProvider := services.NewEmailProvider(&cfg.Email)
	notificationService := services.NewNotificationService(dbAdapter, emailProvider, cfg.Email.BaseURL)
	moderationQueue := services.NewRedisModerationQueue(redisDB.Client)

	relationshipService := services.NewRelationshipService(dbAdapter, notificationService)
	inviteService := services.NewInviteService(dbAdapter, cfg.Invite.TTL)
	membershipService := services.NewMembershipService(dbAdapter, inviteService, notificationService)
	groupService := services.NewGroupService(dbAdapter, moderationQueue, nil)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	relationshipHandler := handlers.NewRelationshipHandler(relationshipService)
	groupHandler := handlers.NewGroupHandler(groupService, membershipService, inviteService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(identityService)
	requestLogger := middleware.NewRequestLogger(logger)
	mutationLimiter := middleware.NewMutationRateLimiter(redisDB.Client, cfg.Server.RateLimit)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}
	mutate := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(mutationLimiter.Limit(h))
	}

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Relationship endpoints
	mux.Handle("GET /api/friends", requireAuth(relationshipHandler.ListFriends))
	mux.Handle("GET /api/relationships/requests", requireAuth(relationshipHandler.ListRequests))
	mux.Handle("GET /api/relationships/sent", requireAuth(relationshipHandler.ListSent))
	mux.Handle("GET /api/relationships/{id}", requireAuth(relationshipHandler.Status))
	mux.Handle("POST /api/relationships/{id}/request", mutate(relationshipHandler.Request))
	mux.Handle("POST /api/relationships/{id}/accept", mutate(relationshipHandler.Accept))
	mux.Handle("POST /api/relationships/{id}/reject", mutate(relationshipHandler.Reject))
	mux.Handle("POST /api/relationships/{id}/cancel", mutate(relationshipHandler.Cancel))
	mux.Handle("DELETE /api/relationships/{id}", mutate(relationshipHandler.Remove))

	// Group endpoints
	mux.Handle("POST /api/groups", mutate(groupHandler.Create))
	mux.Handle("GET /api/groups/{id}", requireAuth(groupHandler.Get))
	mux.Handle("POST /api/groups/{id}/join", mutate(groupHandler.Join))
	mux.Handle("POST /api/groups/{id}/leave", mutate(groupHandler.Leave))
	mux.Handle("GET /api/groups/{id}/members", requireAuth(groupHandler.ListMembers))
	mux.Handle("POST /api/groups/{id}/members/{accountID}/approve", mutate(groupHandler.Approve))
	mux.Handle("POST /api/groups/{id}/invites", mutate(groupHandler.Invite))
	mux.Handle("GET /api/groups/{id}/invites", requireAuth(groupHandler.ListInvites))
	mux.Handle("DELETE /api/invites/{inviteID}", mutate(groupHandler.RevokeInvite))

	// Notification endpoints
	mux.Handle("GET /api/notifications", requireAuth(notificationHandler.List))
	mux.Handle("POST /api/notifications/read", requireAuth(notificationHandler.MarkAllRead))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = requestLogger.Apply(handler)

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
