package cache

import (
	"sync"

	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/logging"
)

// ScopeManager hands out one Orchestrator per (organization, chatbot
// configuration) scope. The manager's mutex guards the map only;
// concurrent requests against the same scope are serialized by the
// orchestrator's own workflow mutex.
type ScopeManager struct {
	mu     sync.Mutex
	scopes map[domain.Scope]*Orchestrator
	cfg    domain.CacheConfig
	logger logging.Logger
}

// NewScopeManager creates a manager applying cfg to every new scope.
func NewScopeManager(cfg domain.CacheConfig, logger logging.Logger) *ScopeManager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ScopeManager{
		scopes: make(map[domain.Scope]*Orchestrator),
		cfg:    cfg.Resolve(),
		logger: logger,
	}
}

// Get returns the orchestrator for scope, creating an empty one on
// first use.
func (m *ScopeManager) Get(scope domain.Scope) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o, ok := m.scopes[scope]; ok {
		return o
	}
	o := NewOrchestrator(scope, m.cfg, WithLogger(m.logger))
	m.scopes[scope] = o
	return o
}

// Lookup returns the orchestrator for scope without creating one.
func (m *ScopeManager) Lookup(scope domain.Scope) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.scopes[scope]
	return o, ok
}

// Remove discards the orchestrator for scope and returns whether one
// existed. Other scopes are unaffected.
func (m *ScopeManager) Remove(scope domain.Scope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.scopes[scope]
	delete(m.scopes, scope)
	return ok
}

// Scopes returns a snapshot of the live scopes.
func (m *ScopeManager) Scopes() []domain.Scope {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Scope, 0, len(m.scopes))
	for scope := range m.scopes {
		out = append(out, scope)
	}
	return out
}

// Len returns the number of live scopes.
func (m *ScopeManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scopes)
}
