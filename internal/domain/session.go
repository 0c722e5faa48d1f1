package domain

import "time"

// Session é uma sessão autenticada emitida pelo provedor.
// ExpiresAt acompanha a validade do ID token; zero significa sem prazo.
type Session struct {
	ID        string         `json:"id"`
	UID       string         `json:"uid"`
	LoginKey  string         `json:"login_key"`
	Provider  SignInProvider `json:"provider"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at,omitempty"`
}

// SignInResult é devolvido por toda operação que abre uma sessão.
type SignInResult struct {
	Session Session `json:"session"`
	IDToken string  `json:"id_token"`
}

// SessionState é o estado do usuário na máquina de navegação.
type SessionState string

const (
	StateUnauthenticated         SessionState = "unauthenticated"
	StateAuthenticatedIncomplete SessionState = "authenticated_incomplete"
	StateAuthenticatedComplete   SessionState = "authenticated_complete"
)

// Resolution é o resultado do resolvedor de sessão/papel.
type Resolution struct {
	State  SessionState `json:"state"`
	Role   Role         `json:"role,omitempty"`
	Target string       `json:"target"`
}
