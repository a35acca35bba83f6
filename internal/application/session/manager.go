package session

import (
	"github.com/jhoicas/Wasper-api/internal/domain/repository"
	"github.com/jhoicas/Wasper-api/pkg/logger"
)

// Manager entrega un Store por cliente en el servidor HTTP. Cada cliente tiene su propia
// clave (StorageKey:<sessionID>); dos clientes nunca comparten registro.
type Manager struct {
	kv  repository.KeyValueStore
	log *logger.Logger
}

// NewManager construye el manager sobre el key-value store compartido.
func NewManager(kv repository.KeyValueStore, log *logger.Logger) *Manager {
	return &Manager{kv: kv, log: log}
}

// For devuelve el store de la sesión indicada.
func (m *Manager) For(sessionID string) *Store {
	return NewStore(m.kv, StorageKey+":"+sessionID, m.log)
}

// Fixed devuelve siempre el mismo store sin importar el id de sesión (CLI, un solo cliente).
type Fixed struct {
	Store *Store
}

func (f Fixed) For(string) *Store { return f.Store }
