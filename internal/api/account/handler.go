package account

import (
	"context"
	"net/http"

	"beautypro/internal/api/response"
	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/middleware"
	"beautypro/internal/pkg/rolecookie"
)

// RegistrationService define o contrato do complemento de cadastro.
type RegistrationService interface {
	GetDraft(ctx context.Context, uid string) (domain.RegistrationDraft, error)
	CompleteProfessional(ctx context.Context, sess domain.Session, profile domain.ProfessionalProfile) (domain.Account, error)
	CompleteClient(ctx context.Context, sess domain.Session, profile domain.ClientProfile) (domain.Account, error)
}

// AccountFinder busca o Registro de Conta.
type AccountFinder interface {
	FindByID(ctx context.Context, collection domain.Collection, uid string) (domain.Account, error)
}

// Handler agrupa os handlers de registro de conta. Todas as rotas exigem sessão.
type Handler struct {
	Registration RegistrationService
	Accounts     AccountFinder
	Jar          *rolecookie.Jar
	Logger       logger.Logger
	resp         response.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(reg RegistrationService, accounts AccountFinder, jar *rolecookie.Jar, log logger.Logger) *Handler {
	return &Handler{
		Registration: reg,
		Accounts:     accounts,
		Jar:          jar,
		Logger:       log,
		resp:         response.Responder{Logger: log},
	}
}

func (h *Handler) claims(w http.ResponseWriter, r *http.Request) (middleware.SessionClaims, bool) {
	claims, ok := middleware.GetSessionClaimsFromContext(r.Context())
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewUnauthorizedError("Sessão ausente."), http.StatusOK)
	}
	return claims, ok
}

// GetDraftHandler lida com a requisição GET /v1/register/draft.
// @Summary Devolve o rascunho do cadastro em andamento
// @Tags register
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.RegistrationDraft
// @Failure 404 {object} domain.ErrorResponse "Sem rascunho; recomeçar o cadastro"
// @Router /register/draft [get]
func (h *Handler) GetDraftHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	draft, err := h.Registration.GetDraft(r.Context(), claims.UID)
	h.resp.Handle(w, r, draft, err, http.StatusOK)
}

// CompleteProfessionalHandler lida com a requisição POST /v1/register/professional.
// @Summary Conclui o cadastro do profissional
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body domain.ProfessionalProfile true "Perfil do profissional"
// @Success 201 {object} domain.Account
// @Failure 400 {object} domain.ErrorResponse "Campos inválidos"
// @Failure 409 {object} domain.ErrorResponse "Registro já existe ou cadastro em andamento"
// @Router /register/professional [post]
func (h *Handler) CompleteProfessionalHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	var profile domain.ProfessionalProfile
	if err := response.Decode(r, &profile); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}

	acc, err := h.Registration.CompleteProfessional(r.Context(), claims.Session(), profile)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}
	h.rememberRole(w, r, domain.RoleProfessional)
	h.resp.Handle(w, r, acc, nil, http.StatusCreated)
}

// CompleteClientHandler lida com a requisição POST /v1/register/client.
// @Summary Conclui o cadastro do cliente
// @Tags register
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body domain.ClientProfile true "Perfil do cliente"
// @Success 201 {object} domain.Account
// @Failure 400 {object} domain.ErrorResponse "Campos inválidos"
// @Failure 409 {object} domain.ErrorResponse "Registro já existe ou cadastro em andamento"
// @Router /register/client [post]
func (h *Handler) CompleteClientHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}
	var profile domain.ClientProfile
	if err := response.Decode(r, &profile); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}

	acc, err := h.Registration.CompleteClient(r.Context(), claims.Session(), profile)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}
	h.rememberRole(w, r, domain.RoleClient)
	h.resp.Handle(w, r, acc, nil, http.StatusCreated)
}

// MeHandler lida com a requisição GET /v1/accounts/me.
// @Summary Devolve o Registro de Conta do usuário no papel
// @Tags accounts
// @Produce json
// @Security BearerAuth
// @Param role query string false "Papel; sem ele vale o cookie ou a chave de login"
// @Success 200 {object} domain.Account
// @Failure 404 {object} domain.ErrorResponse "Cadastro incompleto"
// @Router /accounts/me [get]
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	role, ok := domain.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		role, ok = h.Jar.Role(r)
	}
	if !ok {
		role, ok = claims.Role, claims.Role.Valid()
	}
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de conta desconhecido."), http.StatusOK)
		return
	}

	acc, err := h.Accounts.FindByID(r.Context(), role.Collection(), claims.UID)
	h.resp.Handle(w, r, acc, err, http.StatusOK)
}

func (h *Handler) rememberRole(w http.ResponseWriter, r *http.Request, role domain.Role) {
	if err := h.Jar.SetRole(w, r, role); err != nil {
		h.Logger.Warn("Cookie de papel não gravado.", map[string]interface{}{"error": err.Error()})
	}
}
