// Package rolecookie guarda no navegador, em cookie assinado, o papel declarado
// no cadastro e o id da sessão. O mesmo CookieStore atende o gothic.
package rolecookie

import (
	"net/http"

	"github.com/gorilla/sessions"

	"beautypro/internal/domain"
)

const (
	cookieName   = "beautypro_role"
	keyRole      = "role"
	keySessionID = "sid"
	maxAgeDays   = 30
)

// Jar lê e grava o cookie de papel.
type Jar struct {
	store *sessions.CookieStore
}

// New cria o Jar com a chave de assinatura informada.
func New(secret string, secure bool) *Jar {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * maxAgeDays,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Jar{store: store}
}

// Store expõe o CookieStore para uso como gothic.Store.
func (j *Jar) Store() sessions.Store {
	return j.store
}

// SetRole grava o papel declarado.
func (j *Jar) SetRole(w http.ResponseWriter, r *http.Request, role domain.Role) error {
	return j.set(w, r, keyRole, string(role))
}

// Role devolve o papel gravado, se houver um válido.
func (j *Jar) Role(r *http.Request) (domain.Role, bool) {
	v := j.get(r, keyRole)
	return domain.ParseRole(v)
}

// SetSessionID grava o id da sessão aberta (ou pendente, no login federado).
func (j *Jar) SetSessionID(w http.ResponseWriter, r *http.Request, sid string) error {
	return j.set(w, r, keySessionID, sid)
}

// SessionID devolve o id de sessão gravado.
func (j *Jar) SessionID(r *http.Request) string {
	return j.get(r, keySessionID)
}

// Remember grava papel e id de sessão de uma vez.
func (j *Jar) Remember(w http.ResponseWriter, r *http.Request, role domain.Role, sid string) error {
	sess, _ := j.store.Get(r, cookieName)
	sess.Values[keyRole] = string(role)
	sess.Values[keySessionID] = sid
	return sess.Save(r, w)
}

// Clear remove o id de sessão e mantém o papel, usado como dica no próximo login.
func (j *Jar) Clear(w http.ResponseWriter, r *http.Request) error {
	sess, _ := j.store.Get(r, cookieName)
	delete(sess.Values, keySessionID)
	return sess.Save(r, w)
}

func (j *Jar) set(w http.ResponseWriter, r *http.Request, key, value string) error {
	// Um cookie inválido (chave trocada) devolve sessão nova e erro; seguimos com a nova.
	sess, _ := j.store.Get(r, cookieName)
	sess.Values[key] = value
	return sess.Save(r, w)
}

func (j *Jar) get(r *http.Request, key string) string {
	sess, err := j.store.Get(r, cookieName)
	if err != nil {
		return ""
	}
	v, _ := sess.Values[key].(string)
	return v
}
