package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/config"
	"github.com/yukikurage/taskboard-api/internal/constants"
	"github.com/yukikurage/taskboard-api/internal/database"
	"github.com/yukikurage/taskboard-api/internal/handlers"
	"github.com/yukikurage/taskboard-api/internal/logging"
	"github.com/yukikurage/taskboard-api/internal/middleware"
	"github.com/yukikurage/taskboard-api/internal/repository"
	"github.com/yukikurage/taskboard-api/internal/services"
)

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fatal("Failed to load configuration", err)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	if cfg.JWTSecret == "dev" && cfg.GinMode == gin.ReleaseMode {
		slog.Warn("JWT_SECRET is the development default; set a real secret in production")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		fatal("Failed to connect to database", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		fatal("Failed to run migrations", err)
	}

	issuer := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTExpiry)

	// Repositories and services
	userRepo := repository.NewUserRepository(db)
	regRepo := repository.NewRegistrationRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	var drafter services.TaskDrafter
	if cfg.OpenAIAPIKey != "" {
		drafter = services.NewAIService(cfg.OpenAIAPIKey)
	}

	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(userRepo, issuer)
	registrationService := services.NewRegistrationService(regRepo, userRepo)
	taskService := services.NewTaskService(taskRepo, userRepo, drafter)

	if _, err := userService.EnsureAdmin(cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		fatal("Failed to bootstrap administrator", err)
	}

	// Initialize Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))

	// Setup session middleware with Redis
	redisAddr := cfg.RedisHost + ":" + cfg.RedisPort
	store, err := redisStore.NewStore(
		10,        // Redis pool size
		"tcp",     // network type
		redisAddr, // Redis address from config
		"",        // username (empty for default user)
		"",        // password (empty = no password)
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		fatal("Failed to create Redis store", err)
	}
	isProduction := cfg.GinMode == gin.ReleaseMode
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.JWTExpiry.Seconds()),
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.RegisterRoutes(r, handlers.Router{
		Issuer:       issuer,
		TaskLoader:   taskService,
		Auth:         handlers.NewAuthHandler(authService, userService),
		Users:        handlers.NewUserHandler(userService),
		Registration: handlers.NewRegistrationHandler(registrationService),
		Tasks:        handlers.NewTaskHandler(taskService),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server starting", "addr", srv.Addr, "db_driver", cfg.DBDriver, "ai_enabled", drafter != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("Failed to start server", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
