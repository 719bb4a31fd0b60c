package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/gulfreturn/gulf-api/internal/config"
	"github.com/gulfreturn/gulf-api/internal/database"
	"github.com/gulfreturn/gulf-api/internal/logging"
	"github.com/gulfreturn/gulf-api/internal/security"
	"github.com/gulfreturn/gulf-api/internal/services"
	"github.com/gulfreturn/gulf-api/internal/validation"
)

func main() {
	email := flag.String("email", "", "admin email")
	username := flag.String("username", "", "admin username")
	fullName := flag.String("full-name", "", "admin full name")
	bio := flag.String("bio", "", "admin bio (defaults to System Administrator)")
	flag.Parse()

	// Secrets come from the environment so they stay out of shell history.
	password := os.Getenv("ADMIN_PASSWORD")
	if *email == "" || *username == "" || *fullName == "" || password == "" {
		fmt.Println("Usage: ADMIN_PASSWORD=... create-admin -email <email> -username <username> -full-name <name> [-bio <bio>]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	if !cfg.AdminCreationEnabled() {
		log.Fatal("ADMIN_SECRET must be set to create admins")
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}

	provisioner := services.NewAdminProvisioner(
		security.NewSecretGate(cfg.AdminSecret),
		validation.NewCredentialValidator(),
		security.NewPasswordHasher(cfg.BcryptCost),
		services.NewUserService(db),
		log,
	)

	result, err := provisioner.CreateAdmin(ctx, cfg.AdminSecret, services.AdminFields{
		Credentials: validation.Credentials{
			Email:    *email,
			Username: *username,
			Password: password,
			FullName: *fullName,
		},
		Bio: *bio,
	})

	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		for _, f := range verr.Fields {
			fmt.Fprintf(os.Stderr, "%s: %s\n", f.Field, f.Message)
		}
		os.Exit(1)
	case errors.Is(err, services.ErrConflict):
		log.Fatalf("User with email %s or username %s already exists", *email, *username)
	case err != nil:
		log.WithError(err).Fatal("Failed to create admin")
	}

	fmt.Printf("Created admin %s (%s). Total admin users: %d\n", result.User.Username, result.User.Email, result.AdminCount)
}
