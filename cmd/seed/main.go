// seed creates a development account (user plus organization) through the auth service.
// Idempotent: an already registered email is reported and skipped.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"airguard/backend/internal/config"
	"airguard/backend/internal/db"
	"airguard/backend/internal/identity/service"
	orgrepo "airguard/backend/internal/organization/repository"
	"airguard/backend/internal/security"
	sessionrepo "airguard/backend/internal/session/repository"
	userrepo "airguard/backend/internal/user/repository"
)

func main() {
	var in service.SignupInput
	app := &cli.App{
		Name:  "seed",
		Usage: "Create a development account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Value: "dev@example.com", Destination: &in.Email, Usage: "Account email"},
			&cli.StringFlag{Name: "password", Value: "password123", Destination: &in.Password, EnvVars: []string{"SEED_PASSWORD"}, Usage: "Account password"},
			&cli.StringFlag{Name: "name", Value: "Dev User", Destination: &in.FullName, Usage: "Full name"},
			&cli.StringFlag{Name: "company", Destination: &in.Company, Usage: "Company; names the organization when set"},
		},
		Action: func(c *cli.Context) error {
			in.AcceptTerms = true
			return seed(c.Context, in)
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("seed failed")
		os.Exit(1)
	}
}

func seed(ctx context.Context, in service.SignupInput) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	key, err := security.LoadSigningKey(cfg.JWTPrivateKey, cfg.JWTPublicKey, cfg.JWTSecret)
	if err != nil {
		return err
	}
	auth := service.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		orgrepo.NewPostgresRepository(conn),
		sessionrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		security.NewTokenProvider(key, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL()),
	)

	res, err := auth.Signup(ctx, in, service.ClientInfo{UserAgent: "airguard-seed", IP: "127.0.0.1"})
	if errors.Is(err, service.ErrDuplicateEmail) {
		log.Info().Str("email", in.Email).Msg("account already exists; skipping")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("user_id", res.User.ID).
		Str("organization_id", res.User.OrganizationID).
		Str("email", res.User.Email).
		Msg("seeded account")
	return nil
}
