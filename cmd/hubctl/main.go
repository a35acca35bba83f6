// hubctl cliente de línea de comandos: registro, sesión y alta de empresa.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jhoicas/Wasper-api/internal/app"
	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/cli"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/kv"
	"github.com/jhoicas/Wasper-api/pkg/config"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	// Los logs van a stderr para no mezclarse con la salida de los comandos.
	log := logger.New(logger.Config{Env: "development", Level: cfg.App.LogLevel, Out: os.Stderr})

	ctx := context.Background()
	platform, err := app.OpenPlatform(ctx, cfg, log.Named("platform"))
	if err != nil {
		return err
	}
	defer platform.Close()

	dir, err := sessionDir()
	if err != nil {
		return err
	}
	file, err := kv.NewFile(dir)
	if err != nil {
		return err
	}
	store := session.NewStore(file, session.StorageKey, log.Named("session"))

	validator := validation.New(time.Now)
	jwtCfg := auth.JWTConfig{Secret: cfg.JWT.Secret, ExpMinutes: cfg.JWT.Expiration, Issuer: cfg.JWT.Issuer}
	if jwtCfg.Secret == "" {
		// El token de la API no sale del proceso; basta con que no esté vacío.
		jwtCfg.Secret = "hubctl-local"
	}

	root := cli.NewRootCommand(cli.Deps{
		Auth: auth.NewUseCase(platform.Identity, platform.Roles, session.Fixed{Store: store}, validator, jwtCfg, log.Named("auth")),
		Bootstrap: bootstrap.NewUseCase(bootstrap.Deps{
			Companies:   platform.Companies,
			Branches:    platform.Branches,
			Roles:       platform.Roles,
			Provisioner: platform.Provisioner,
			Storage:     platform.Storage,
			Validator:   validator,
			LogoBucket:  cfg.Storage.LogoBucket,
			Logger:      log.Named("bootstrap"),
		}),
		Store: store,
	})
	return root.ExecuteContext(ctx)
}

// sessionDir SESSION_DIR explícito o <config del usuario>/wasper.
func sessionDir() (string, error) {
	if dir := os.Getenv("SESSION_DIR"); dir != "" {
		return dir, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("directorio de configuración: %w", err)
	}
	return filepath.Join(base, "wasper"), nil
}
