// migrate aplica el esquema del backend autoalojado (APP_BACKEND=postgres).
//
// Uso: go run ./cmd/migrate [--list]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Wasper-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/postgres/migrations"
	"github.com/jhoicas/Wasper-api/pkg/config"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

func main() {
	var list bool
	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Aplica las migraciones SQL pendientes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				all, err := migrations.List()
				if err != nil {
					return err
				}
				for _, m := range all {
					fmt.Fprintln(cmd.OutOrStdout(), m.Version)
				}
				return nil
			}
			return run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "solo listar las migraciones embebidas")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("migrate")

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		log.Info().Msg("esquema al día")
		return nil
	}
	log.Info().Strs("versions", applied).Msg("migraciones aplicadas")
	return nil
}
