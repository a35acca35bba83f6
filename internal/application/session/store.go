// Package session mantiene la sesión del cliente (usuario, empresa, sucursal, rol) y la espeja en
// un key-value store durable. Los datos corruptos o ausentes equivalen a "sin sesión".
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/jhoicas/Wasper-api/internal/domain"
	"github.com/jhoicas/Wasper-api/internal/domain/entity"
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// StorageKey clave durable de la sesión (la misma que usaba el cliente web).
const StorageKey = "wasper_session"

// record forma persistida; conserva los nombres de campo del cliente web.
type record struct {
	UserID           string      `json:"userId"`
	CurrentCompanyID string      `json:"currentCompanyId"`
	CurrentBranchID  string      `json:"currentBranchId"`
	CurrentRole      entity.Role `json:"currentRole"`
	IsAuthenticated  bool        `json:"isAuthenticated"`
	AccessToken      string      `json:"accessToken,omitempty"`
}

// Store sesión de un cliente con caché en memoria. Seguro para uso concurrente.
type Store struct {
	kv  repository.KeyValueStore
	key string
	log *logger.Logger

	mu     sync.Mutex
	loaded bool
	cur    entity.Session
}

// NewStore construye el store sobre la clave indicada (StorageKey si está vacía).
func NewStore(kv repository.KeyValueStore, key string, log *logger.Logger) *Store {
	if key == "" {
		key = StorageKey
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Store{kv: kv, key: key, log: log}
}

// Get devuelve la sesión actual. La primera llamada la lee del key-value store;
// si falta o no se puede decodificar devuelve la sesión por defecto.
func (s *Store) Get(ctx context.Context) entity.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	return s.cur
}

// Set reemplaza la sesión. Si está autenticada la persiste; si no, borra la copia persistida.
// La caché queda actualizada aunque la persistencia falle.
func (s *Store) Set(ctx context.Context, sess entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.cur = sess
	return s.persistLocked(ctx)
}

// Clear vuelve a la sesión por defecto y borra la copia persistida.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	s.cur = entity.DefaultSession()
	if err := s.kv.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("borrar sesión: %w", err)
	}
	return nil
}

// SetRole cambia solo el rol actual y marca la sesión como autenticada.
func (s *Store) SetRole(ctx context.Context, role entity.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadLocked(ctx)
	s.cur.Role = role
	s.cur.IsAuthenticated = true
	return s.persistLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) {
	if s.loaded {
		return
	}
	s.loaded = true
	s.cur = entity.DefaultSession()

	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Error().Err(err).Str("key", s.key).Msg("leer sesión persistida")
		}
		return
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.Warn().Err(err).Str("key", s.key).Msg("sesión persistida corrupta, se ignora")
		return
	}
	s.cur = entity.Session{
		UserID:          rec.UserID,
		CompanyID:       rec.CurrentCompanyID,
		BranchID:        rec.CurrentBranchID,
		Role:            rec.CurrentRole,
		IsAuthenticated: rec.IsAuthenticated,
		AccessToken:     rec.AccessToken,
	}
}

func (s *Store) persistLocked(ctx context.Context) error {
	if !s.cur.IsAuthenticated {
		if err := s.kv.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("borrar sesión: %w", err)
		}
		return nil
	}
	raw, err := json.Marshal(record{
		UserID:           s.cur.UserID,
		CurrentCompanyID: s.cur.CompanyID,
		CurrentBranchID:  s.cur.BranchID,
		CurrentRole:      s.cur.Role,
		IsAuthenticated:  true,
		AccessToken:      s.cur.AccessToken,
	})
	if err != nil {
		return fmt.Errorf("serializar sesión: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("guardar sesión: %w", err)
	}
	return nil
}
