package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Wasper-api/internal/app"
	"github.com/jhoicas/Wasper-api/internal/application/access"
	"github.com/jhoicas/Wasper-api/internal/application/auth"
	"github.com/jhoicas/Wasper-api/internal/application/bootstrap"
	"github.com/jhoicas/Wasper-api/internal/application/session"
	"github.com/jhoicas/Wasper-api/internal/application/validation"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/metrics"
	httpRouter "github.com/jhoicas/Wasper-api/internal/interfaces/http"
	"github.com/jhoicas/Wasper-api/pkg/config"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("backend", cfg.App.Backend).
		Str("sessions", cfg.Session.Backend).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx := context.Background()
	platform, err := app.OpenPlatform(ctx, cfg, log.Named("platform"))
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a la plataforma")
	}
	defer platform.Close()

	kvStore, closeKV, err := app.OpenSessionStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("almacenamiento de sesiones")
	}
	defer closeKV()

	m := metrics.New()
	sessions := session.NewManager(kvStore, log.Named("session"))
	validator := validation.New(time.Now)

	authUC := auth.NewUseCase(platform.Identity, platform.Roles, sessions, validator, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	}, log.Named("auth"))
	bootstrapUC := bootstrap.NewUseCase(bootstrap.Deps{
		Companies:   platform.Companies,
		Branches:    platform.Branches,
		Roles:       platform.Roles,
		Provisioner: platform.Provisioner,
		Storage:     platform.Storage,
		Validator:   validator,
		LogoBucket:  cfg.Storage.LogoBucket,
		Logger:      log.Named("bootstrap"),
		Observer:    m,
	})
	gate := access.NewGate(platform.Roles, log.Named("access"))

	srv := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	srv.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	srv.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Wasper Business Hub API",
	}))

	// Los visitantes inactivos del límite por IP se purgan hasta el apagado.
	limiterCtx, stopLimiter := context.WithCancel(ctx)
	defer stopLimiter()
	limiter := httpRouter.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, m)
	limiter.StartCleanup(limiterCtx, time.Minute)

	httpRouter.Router(srv, httpRouter.RouterDeps{
		AuthUC:         authUC,
		BootstrapUC:    bootstrapUC,
		Gate:           gate,
		Sessions:       sessions,
		Companies:      platform.Companies,
		Branches:       platform.Branches,
		Roles:          platform.Roles,
		JWTSecret:      cfg.JWT.Secret,
		ServiceName:    cfg.App.Name,
		Limiter:        limiter,
		Observer:       m,
		MetricsHandler: m.Handler(),
	})

	go func() {
		if err := srv.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	stopLimiter()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
