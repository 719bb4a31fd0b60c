package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gulfreturn/gulf-api/internal/config"
	"github.com/gulfreturn/gulf-api/internal/database"
	"github.com/gulfreturn/gulf-api/internal/handlers"
	"github.com/gulfreturn/gulf-api/internal/logging"
	authmw "github.com/gulfreturn/gulf-api/internal/middleware"
	"github.com/gulfreturn/gulf-api/internal/models"
	"github.com/gulfreturn/gulf-api/internal/oauth"
	"github.com/gulfreturn/gulf-api/internal/security"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/gulfreturn/gulf-api/internal/validation"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	jwtService := services.NewJWTService(cfg.SecretKey, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	sessions := services.NewSessionIssuer(jwtService, tokenService, userService, log)

	gate := security.NewSecretGate(cfg.AdminSecret)
	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	admins := services.NewAdminProvisioner(gate, validation.NewCredentialValidator(), hasher, userService, log)
	adminLogins := services.NewAdminAuthenticator(gate, hasher, userService, sessions, log)

	var providers []oauth.Provider
	if cfg.Google.ClientID != "" {
		providers = append(providers, oauth.NewGoogleProvider(cfg.Google, cfg.OAuthProviderTimeout))
	}
	if cfg.GitHub.ClientID != "" {
		providers = append(providers, oauth.NewGitHubProvider(cfg.GitHub, cfg.OAuthProviderTimeout))
	}
	exchanger := services.NewOAuthTokenExchanger(providers, userService, sessions, cfg.OAuthLinkPolicy, log)

	var states oauth.StateStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		states = oauth.NewRedisStateStore(rdb)
	} else {
		states = oauth.NewMemoryStateStore()
	}

	authHandler := handlers.NewAuthHandler(admins, adminLogins, exchanger, sessions, states, log)
	userHandler := handlers.NewUserHandler(userService, log)
	adminHandler := handlers.NewAdminHandler(userService, log)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	if cfg.AdminCreationEnabled() {
		auth.Post("/create-admin", authHandler.CreateAdmin)
		auth.Post("/admin/login", authHandler.AdminLogin)
	} else {
		log.Warn("ADMIN_SECRET not set, admin creation and admin login endpoints disabled")
	}
	auth.Post("/google/token", authHandler.GoogleToken)
	auth.Get("/google/login", authHandler.Login(models.ProviderGoogle))
	auth.Post("/google/callback", authHandler.Callback(models.ProviderGoogle))
	auth.Get("/github/login", authHandler.Login(models.ProviderGitHub))
	auth.Post("/github/callback", authHandler.Callback(models.ProviderGitHub))
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/logout", authHandler.Logout)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Get("/users/me", userHandler.GetMe)

	staff := api.Group("/admin")
	staff.Use(authmw.Auth(jwtService))
	staff.Use(authmw.RequireRole(models.RoleModerator))
	staff.Get("/stats", adminHandler.Stats)

	api.Get("/health", func(c *drift.Context) {
		_ = c.JSON(200, map[string]string{"status": "ok"})
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		for range ticker.C {
			removed, err := tokenService.CleanupExpired(context.Background())
			if err != nil {
				log.WithError(err).Error("Failed to clean up expired refresh tokens")
				continue
			}
			log.WithField("removed", removed).Debug("Cleaned up expired refresh tokens")
		}
	}()

	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		log.WithField("addr", addr).Info("Server starting")
		if err := app.Run(addr); err != nil {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
}
