package auth

import (
	"net/http"

	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
)

// Gothic liga o Handler ao gothic com um provedor fixo.
type Gothic struct {
	Provider string
}

// BeginAuth redireciona para a tela de consentimento do provedor.
func (g Gothic) BeginAuth(w http.ResponseWriter, r *http.Request) {
	gothic.BeginAuthHandler(w, g.withProvider(r))
}

// CompleteAuth troca o código do callback pelo usuário do provedor.
func (g Gothic) CompleteAuth(w http.ResponseWriter, r *http.Request) (goth.User, error) {
	return gothic.CompleteUserAuth(w, g.withProvider(r))
}

// O gothic lê o provedor da query string.
func (g Gothic) withProvider(r *http.Request) *http.Request {
	q := r.URL.Query()
	q.Set("provider", g.Provider)
	r2 := r.Clone(r.Context())
	r2.URL.RawQuery = q.Encode()
	return r2
}
