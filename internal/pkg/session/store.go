// Package session guarda as sessões ativas do processo e avisa os interessados
// a cada mudança. É o único estado mutável compartilhado do serviço.
package session

import (
	"context"
	"sync"
	"time"

	"beautypro/internal/domain"
)

// EventType identifica a transição de sessão publicada.
type EventType string

const (
	EventSignedIn   EventType = "signed_in"
	EventSignedOut  EventType = "signed_out"
	EventRegistered EventType = "registered"
)

// Event é publicado a cada login, logout ou conclusão de cadastro.
type Event struct {
	Type    EventType
	Session domain.Session
	Role    domain.Role // Preenchido em EventRegistered.
}

// Store é o observável de sessões. Seguro para uso concorrente.
// Sessões com ExpiresAt no passado contam como ausentes e são removidas pelo Sweep.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	subs     map[uint64]func(Event)
	nextSub  uint64
	// waiters recebem a sessão no momento em que ela fica ativa.
	waiters map[string][]chan domain.Session
	now     func() time.Time
}

// NewStore cria um Store vazio.
func NewStore() *Store {
	return NewStoreWithClock(time.Now)
}

// NewStoreWithClock cria um Store com relógio injetado (usado nos testes de expiração).
func NewStoreWithClock(now func() time.Time) *Store {
	return &Store{
		sessions: make(map[string]domain.Session),
		subs:     make(map[uint64]func(Event)),
		waiters:  make(map[string][]chan domain.Session),
		now:      now,
	}
}

// Subscribe registra fn para receber todos os eventos seguintes.
// A função retornada cancela a inscrição e pode ser chamada mais de uma vez.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Publish aplica o evento e notifica os inscritos fora do lock.
func (s *Store) Publish(ev Event) {
	s.mu.Lock()
	switch ev.Type {
	case EventSignedIn:
		s.sessions[ev.Session.ID] = ev.Session
		for _, ch := range s.waiters[ev.Session.ID] {
			ch <- ev.Session
			close(ch)
		}
		delete(s.waiters, ev.Session.ID)
	case EventSignedOut:
		delete(s.sessions, ev.Session.ID)
	}
	subs := s.subscribers()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

// subscribers copia os inscritos; chamar com o lock.
func (s *Store) subscribers() []func(Event) {
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	return subs
}

func (s *Store) expired(sess domain.Session) bool {
	return !sess.ExpiresAt.IsZero() && !s.now().Before(sess.ExpiresAt)
}

// Get devolve a sessão ativa com o id dado.
func (s *Store) Get(id string) (domain.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return domain.Session{}, false
	}
	return sess, true
}

// Active informa se a sessão existe, não foi encerrada e não expirou.
func (s *Store) Active(id string) bool {
	_, ok := s.Get(id)
	return ok
}

// SessionsOf lista as sessões ativas do usuário uid.
func (s *Store) SessionsOf(uid string) []domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Session
	for _, sess := range s.sessions {
		if sess.UID == uid && !s.expired(sess) {
			out = append(out, sess)
		}
	}
	return out
}

// WaitReady bloqueia até a sessão id ficar ativa ou ctx terminar.
func (s *Store) WaitReady(ctx context.Context, id string) (domain.Session, error) {
	s.mu.Lock()
	if sess, ok := s.sessions[id]; ok && !s.expired(sess) {
		s.mu.Unlock()
		return sess, nil
	}
	ch := make(chan domain.Session, 1)
	s.waiters[id] = append(s.waiters[id], ch)
	s.mu.Unlock()

	select {
	case sess := <-ch:
		return sess, nil
	case <-ctx.Done():
		s.dropWaiter(id, ch)
		return domain.Session{}, ctx.Err()
	}
}

func (s *Store) dropWaiter(id string, ch chan domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.waiters[id]
	for i, c := range list {
		if c == ch {
			s.waiters[id] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(s.waiters[id]) == 0 {
		delete(s.waiters, id)
	}
}

// Sweep remove as sessões expiradas e publica EventSignedOut para cada uma,
// para que os inscritos descartem o estado associado. Retorna quantas removeu.
func (s *Store) Sweep() int {
	s.mu.Lock()
	var gone []domain.Session
	for id, sess := range s.sessions {
		if s.expired(sess) {
			gone = append(gone, sess)
			delete(s.sessions, id)
		}
	}
	subs := s.subscribers()
	s.mu.Unlock()

	for _, sess := range gone {
		ev := Event{Type: EventSignedOut, Session: sess}
		for _, fn := range subs {
			fn(ev)
		}
	}
	return len(gone)
}

// Run executa Sweep a cada interval até ctx terminar.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
