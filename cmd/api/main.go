package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/loopsocial/loop-api/internal/config"
	"github.com/loopsocial/loop-api/internal/domain/notification"
	"github.com/loopsocial/loop-api/internal/domain/relationship"
	"github.com/loopsocial/loop-api/internal/domain/user"
	"github.com/loopsocial/loop-api/internal/middleware"
	"github.com/loopsocial/loop-api/internal/pkg/database"
	"github.com/loopsocial/loop-api/internal/pkg/jwt"
	"github.com/loopsocial/loop-api/internal/pkg/logger"
	"github.com/loopsocial/loop-api/internal/pkg/response"
)

func main() {
	cfg := config.Load()

	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize logger")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting Loop API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	relationshipRepo := relationship.NewRepository(db)
	notificationRepo := notification.NewRepository(db)

	// ---------- WebSocket hub ----------
	notificationHub := notification.NewHub(redis, cfg.AllowedOrigins)
	go notificationHub.Run()
	defer notificationHub.Stop()

	// ---------- Services ----------
	counterCache := relationship.NewCounterCache(db, redis)
	notificationService := notification.NewService(notificationRepo, notificationHub)

	identity := user.NewIdentityAdapter(userRepo)
	relationshipService := relationship.NewService(relationshipRepo, identity, notificationService, counterCache)
	userService := user.NewService(userRepo, relationshipService)

	// ---------- Handlers ----------
	summaries := user.NewSummaryProvider(userRepo)
	relationshipHandler := relationship.NewHandler(relationshipService, summaries)
	userHandler := user.NewHandler(userService)
	notificationHandler := notification.NewHandler(notificationService, notificationHub)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))

	// WebSocket endpoint (before Compress)
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		authMiddleware(http.HandlerFunc(notificationHandler.WebSocket)).ServeHTTP(w, r)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Use(authMiddleware)

			r.Get("/search", userHandler.Search)
			r.Get("/suggestions", userHandler.Suggest)

			r.Get("/me/requests", relationshipHandler.ListPendingIncoming)
			r.Get("/me/requests/sent", relationshipHandler.ListPendingOutgoing)
			r.Get("/me/blocked", relationshipHandler.ListBlocked)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", userHandler.GetProfile)

				r.Post("/follow", relationshipHandler.ToggleFollow)
				r.Delete("/follow", relationshipHandler.Unfollow)

				r.Post("/block", relationshipHandler.Block)
				r.Delete("/block", relationshipHandler.Unblock)

				r.Get("/followers", relationshipHandler.ListFollowers)
				r.Get("/following", relationshipHandler.ListFollowing)
				r.Get("/friends", relationshipHandler.ListFriends)
			})
		})

		r.Route("/requests/{id}", func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/accept", relationshipHandler.AcceptRequest)
			r.Post("/decline", relationshipHandler.DeclineRequest)
		})

		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
