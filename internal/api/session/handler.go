package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"beautypro/internal/api/response"
	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/middleware"
	"beautypro/internal/pkg/rolecookie"
)

const maxWait = 30 * time.Second

// SessionSource é a parte do Store de sessões lida pelo Handler.
type SessionSource interface {
	Get(id string) (domain.Session, bool)
	WaitReady(ctx context.Context, id string) (domain.Session, error)
}

// Resolver decide o estado e o destino da sessão.
type Resolver interface {
	Resolve(ctx context.Context, sess *domain.Session, role domain.Role) (domain.Resolution, error)
}

// StateTracker devolve o último estado conhecido de uma sessão.
type StateTracker interface {
	State(sessionID string) (domain.Resolution, bool)
}

// Handler expõe o estado de navegação do usuário.
type Handler struct {
	Sessions SessionSource
	Resolver Resolver
	Tracker  StateTracker
	Jar      *rolecookie.Jar
	Logger   logger.Logger
	resp     response.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(sessions SessionSource, resolver Resolver, tracker StateTracker, jar *rolecookie.Jar, log logger.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Resolver: resolver,
		Tracker:  tracker,
		Jar:      jar,
		Logger:   log,
		resp:     response.Responder{Logger: log},
	}
}

// StateHandler lida com a requisição GET /v1/session.
// @Summary Resolve o estado da sessão e a rota de destino
// @Description Sem token, usa a sessão do cookie. Com wait, espera a sessão do cookie ficar ativa (login federado em outra aba).
// @Tags session
// @Produce json
// @Param role query string false "Papel declarado"
// @Param wait query string false "Tempo máximo de espera (e.g., 5s)"
// @Success 200 {object} domain.Resolution
// @Failure 400 {object} domain.ErrorResponse "Papel desconhecido"
// @Router /session [get]
func (h *Handler) StateHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := h.currentSession(r)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}

	role, ok := domain.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		role, ok = h.Jar.Role(r)
	}
	if !ok && sess != nil {
		if claims, found := middleware.GetSessionClaimsFromContext(r.Context()); found && claims.Role.Valid() {
			role, ok = claims.Role, true
		} else if res, tracked := h.Tracker.State(sess.ID); tracked && res.Role.Valid() {
			role, ok = res.Role, true
		}
	}

	res, err := h.Resolver.Resolve(r.Context(), sess, role)
	h.resp.Handle(w, r, res, err, http.StatusOK)
}

// currentSession devolve a sessão do token, ou a do cookie. nil significa sem sessão.
func (h *Handler) currentSession(r *http.Request) (*domain.Session, error) {
	if claims, ok := middleware.GetSessionClaimsFromContext(r.Context()); ok {
		if sess, active := h.Sessions.Get(claims.SessionID); active {
			return &sess, nil
		}
		sess := claims.Session()
		return &sess, nil
	}

	sid := h.Jar.SessionID(r)
	if sid == "" {
		return nil, nil
	}

	wait := r.URL.Query().Get("wait")
	if wait == "" {
		if sess, ok := h.Sessions.Get(sid); ok {
			return &sess, nil
		}
		return nil, nil
	}

	d, err := time.ParseDuration(wait)
	if err != nil || d <= 0 {
		return nil, apperror.NewValidationError("Parâmetro wait inválido.")
	}
	if d > maxWait {
		d = maxWait
	}
	ctx, cancel := context.WithTimeout(r.Context(), d)
	defer cancel()

	sess, err := h.Sessions.WaitReady(ctx, sid)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}
