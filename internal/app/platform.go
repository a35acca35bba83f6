// Package app arma los adaptadores de la plataforma según la configuración (API y CLI).
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/kv"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/memory"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/storage"
	"github.com/jhoicas/Wasper-api/internal/infrastructure/supabase"
	"github.com/jhoicas/Wasper-api/pkg/config"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// Platform puertos de la plataforma remota ya construidos.
type Platform struct {
	Identity    repository.IdentityProvider
	Companies   repository.CompanyRepository
	Branches    repository.BranchRepository
	Roles       repository.RoleAssignmentRepository
	Provisioner repository.RoleProvisioner
	Storage     repository.ObjectStorage

	closers []func()
}

// Close libera conexiones (pool de PostgreSQL).
func (p *Platform) Close() {
	for i := len(p.closers) - 1; i >= 0; i-- {
		p.closers[i]()
	}
}

// OpenPlatform construye el backend indicado por APP_BACKEND.
func OpenPlatform(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Platform, error) {
	switch cfg.App.Backend {
	case config.BackendSupabase:
		return openSupabase(cfg)
	case config.BackendPostgres:
		return openPostgres(ctx, cfg)
	case config.BackendMemory:
		log.Warn().Msg("backend en memoria: los datos se pierden al reiniciar")
		m := memory.NewPlatform()
		return &Platform{
			Identity:    m.Identity(),
			Companies:   m.CompanyRepo(),
			Branches:    m.BranchRepo(),
			Roles:       m.RoleAssignmentRepo(),
			Provisioner: m.Provisioner(),
			Storage:     m.Storage(),
		}, nil
	}
	return nil, fmt.Errorf("backend desconocido %q", cfg.App.Backend)
}

func openSupabase(cfg *config.Config) (*Platform, error) {
	client, err := supabase.New(supabase.Config{
		URL:        cfg.Supabase.URL,
		AnonKey:    cfg.Supabase.AnonKey,
		ServiceKey: cfg.Supabase.ServiceKey,
	})
	if err != nil {
		return nil, err
	}
	var prov repository.RoleProvisioner
	switch cfg.Supabase.Provisioner {
	case config.ProvisionerFunction:
		prov = supabase.NewFunctionProvisioner(client)
	case config.ProvisionerService:
		sp, err := supabase.NewServiceProvisioner(client)
		if err != nil {
			return nil, err
		}
		prov = sp
	default:
		prov = supabase.NewRPCProvisioner(client)
	}
	return &Platform{
		Identity:    supabase.NewIdentity(client),
		Companies:   supabase.NewCompanyRepository(client),
		Branches:    supabase.NewBranchRepository(client),
		Roles:       supabase.NewRoleAssignmentRepository(client),
		Provisioner: prov,
		Storage:     supabase.NewStorage(client),
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Platform, error) {
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	disk, err := storage.NewDisk(cfg.Storage.Dir)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Platform{
		Identity:    postgres.NewIdentity(pool, time.Duration(cfg.JWT.Expiration)*time.Minute),
		Companies:   postgres.NewCompanyRepository(pool),
		Branches:    postgres.NewBranchRepository(pool),
		Roles:       postgres.NewRoleAssignmentRepository(pool),
		Provisioner: postgres.NewProvisioner(pool),
		Storage:     disk,
		closers:     []func(){pool.Close},
	}, nil
}

// OpenSessionStore construye el key-value de sesiones indicado por SESSION_BACKEND.
// La función devuelta cierra la conexión (no-op salvo redis).
func OpenSessionStore(ctx context.Context, cfg *config.Config) (repository.KeyValueStore, func(), error) {
	switch cfg.Session.Backend {
	case config.SessionBackendRedis:
		r, err := kv.NewRedis(ctx, kv.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   "wasper:",
			TTL:      time.Duration(cfg.Session.TTLMinutes) * time.Minute,
		})
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case config.SessionBackendMemory:
		return kv.NewMemory(), func() {}, nil
	}
	f, err := kv.NewFile(cfg.Session.Dir)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {}, nil
}
