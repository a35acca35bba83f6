package bootstrap

import "sync"

// inflight cuentas con un alta en curso.
type inflight struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{busy: make(map[string]struct{})}
}

// acquire devuelve false si la cuenta ya tiene un alta en curso.
func (g *inflight) acquire(userID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.busy[userID]; ok {
		return false
	}
	g.busy[userID] = struct{}{}
	return true
}

func (g *inflight) release(userID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, userID)
}
