package sessionservice

import (
	"context"
	"sync"
	"time"

	"beautypro/internal/domain"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/session"
)

// Subscriber é a parte do Store usada pelo Tracker.
type Subscriber interface {
	Subscribe(fn func(session.Event)) (unsubscribe func())
}

// Tracker mantém o último estado resolvido de cada sessão, reavaliado a cada
// evento publicado. Nenhum estado é terminal.
type Tracker struct {
	resolver *Resolver
	timeout  time.Duration
	logger   logger.Logger

	mu     sync.RWMutex
	states map[string]domain.Resolution

	unsubscribe func()
}

// NewTracker inscreve o Tracker no Store. Chame Close para cancelar a inscrição.
func NewTracker(store Subscriber, resolver *Resolver, timeout time.Duration, log logger.Logger) *Tracker {
	t := &Tracker{
		resolver: resolver,
		timeout:  timeout,
		logger:   log,
		states:   make(map[string]domain.Resolution),
	}
	t.unsubscribe = store.Subscribe(t.handle)
	return t
}

func (t *Tracker) handle(ev session.Event) {
	switch ev.Type {
	case session.EventSignedOut:
		t.mu.Lock()
		delete(t.states, ev.Session.ID)
		t.mu.Unlock()
		return
	case session.EventRegistered:
		t.set(ev.Session.ID, domain.Resolution{
			State:  domain.StateAuthenticatedComplete,
			Role:   ev.Role,
			Target: ev.Role.DashboardPath(),
		})
		return
	}

	// Login: o papel vem da chave; chaves federadas não trazem papel.
	role, ok := identifier.RoleFromLoginKey(ev.Session.LoginKey)
	if !ok {
		t.setResolved(ev.Session.ID, domain.Resolution{State: domain.StateAuthenticatedIncomplete})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	sess := ev.Session
	res, err := t.resolver.Resolve(ctx, &sess, role)
	if err != nil {
		t.logger.Warn("Estado da sessão não reavaliado.", map[string]interface{}{"uid": sess.UID, "error": err.Error()})
		return
	}
	t.setResolved(ev.Session.ID, res)
}

func (t *Tracker) set(sessionID string, res domain.Resolution) {
	t.mu.Lock()
	t.states[sessionID] = res
	t.mu.Unlock()
}

// setResolved grava o resultado de um login sem rebaixar uma sessão que um
// EventRegistered concorrente já marcou como completa.
func (t *Tracker) setResolved(sessionID string, res domain.Resolution) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if cur, ok := t.states[sessionID]; ok && cur.State == domain.StateAuthenticatedComplete {
		return
	}
	t.states[sessionID] = res
}

// State devolve o último estado conhecido da sessão.
func (t *Tracker) State(sessionID string) (domain.Resolution, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	res, ok := t.states[sessionID]
	return res, ok
}

// Close cancela a inscrição no Store.
func (t *Tracker) Close() {
	t.unsubscribe()
}
