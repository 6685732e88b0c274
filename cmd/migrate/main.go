// migrate runs DB migrations from embedded SQL: go run ./cmd/migrate up|down|version.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"airguard/backend/internal/config"
	"airguard/backend/internal/db/migrate"
)

func main() {
	var cfg *config.Config
	app := &cli.App{
		Name:  "migrate",
		Usage: "Apply or roll back the Airguard database schema",
		Before: func(*cli.Context) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return errors.New("DATABASE_URL is not set; set it in the environment or a .env file")
			}
			return nil
		},
		Commands: []*cli.Command{
			directionCmd("up", "Apply all pending migrations", &cfg),
			directionCmd("down", "Roll back all migrations", &cfg),
			{
				Name:  "version",
				Usage: "Print the current schema version",
				Action: func(*cli.Context) error {
					v, dirty, err := migrate.Version(cfg.DatabaseURL)
					if err != nil {
						return err
					}
					fmt.Printf("version=%d dirty=%t\n", v, dirty)
					return nil
				},
			},
		},
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}

func directionCmd(direction, usage string, cfg **config.Config) *cli.Command {
	return &cli.Command{
		Name:  direction,
		Usage: usage,
		Action: func(*cli.Context) error {
			if err := migrate.Run((*cfg).DatabaseURL, direction); err != nil {
				return err
			}
			log.Info().Str("direction", direction).Msg("migrations applied")
			return nil
		},
	}
}
