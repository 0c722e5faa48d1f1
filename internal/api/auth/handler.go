package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/markbates/goth"

	"beautypro/internal/api/response"
	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/middleware"
	"beautypro/internal/pkg/rolecookie"
)

// AuthService define o contrato que o Handler espera do provedor de autenticação.
type AuthService interface {
	SignIn(ctx context.Context, loginKey, secret string) (domain.SignInResult, error)
	SignInFederated(ctx context.Context, fed domain.FederatedIdentity, sessionID string) (domain.SignInResult, error)
	SignOut(ctx context.Context, sessionID string) error
	SendPasswordReset(ctx context.Context, email string, role domain.Role) error
	ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) error
}

// RegistrationService é a parte do fluxo de cadastro usada pelo Handler.
type RegistrationService interface {
	CheckIdentifier(ctx context.Context, id domain.Identifier, role domain.Role) (bool, error)
	BeginRegistration(ctx context.Context, req domain.RegistrationRequest) (domain.RegistrationResult, error)
	RememberFederated(ctx context.Context, sess domain.Session, role domain.Role, fed domain.FederatedIdentity) error
}

// SessionResolver decide o destino do usuário após o login.
type SessionResolver interface {
	Resolve(ctx context.Context, sess *domain.Session, role domain.Role) (domain.Resolution, error)
}

// Federated abstrai o fluxo OAuth (gothic em produção).
type Federated interface {
	BeginAuth(w http.ResponseWriter, r *http.Request)
	CompleteAuth(w http.ResponseWriter, r *http.Request) (goth.User, error)
}

// IdentifierCheckRequest é o payload da verificação de identificador.
type IdentifierCheckRequest struct {
	Kind       domain.IdentifierKind `json:"kind"`
	Identifier string                `json:"identifier"`
	Role       domain.Role           `json:"role"`
}

// IdentifierCheckResponse informa se já existe conta para o identificador no papel.
type IdentifierCheckResponse struct {
	Exists bool `json:"exists"`
}

// LoginRequest representa o payload de entrada para o login.
type LoginRequest struct {
	Kind       domain.IdentifierKind `json:"kind"`
	Identifier string                `json:"identifier"`
	Role       domain.Role           `json:"role"`
	Password   string                `json:"password"`
}

// LoginResponse traz o ID token e o destino resolvido.
type LoginResponse struct {
	IDToken    string            `json:"id_token"`
	Resolution domain.Resolution `json:"resolution"`
}

// ForgotPasswordRequest pede o email de redefinição de senha.
type ForgotPasswordRequest struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ResetPasswordRequest confirma a redefinição com o token recebido por email.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Handler agrupa os handlers de autenticação e início de cadastro.
type Handler struct {
	Auth         AuthService
	Registration RegistrationService
	Resolver     SessionResolver
	Federated    Federated // nil quando o Google não está configurado
	Formatter    identifier.Formatter
	Jar          *rolecookie.Jar
	Logger       logger.Logger
	resp         response.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(auth AuthService, reg RegistrationService, resolver SessionResolver, federated Federated,
	formatter identifier.Formatter, jar *rolecookie.Jar, log logger.Logger) *Handler {
	return &Handler{
		Auth:         auth,
		Registration: reg,
		Resolver:     resolver,
		Federated:    federated,
		Formatter:    formatter,
		Jar:          jar,
		Logger:       log,
		resp:         response.Responder{Logger: log},
	}
}

// CheckIdentifierHandler lida com a requisição POST /v1/identifiers/check.
// @Summary Verifica se um identificador já tem conta no papel
// @Tags identifiers
// @Accept json
// @Produce json
// @Param body body IdentifierCheckRequest true "Identificador, tipo e papel"
// @Success 200 {object} IdentifierCheckResponse
// @Failure 400 {object} domain.ErrorResponse "Identificador inválido"
// @Failure 500 {object} domain.ErrorResponse "Falha na consulta; nunca significa 'não existe'"
// @Router /identifiers/check [post]
func (h *Handler) CheckIdentifierHandler(w http.ResponseWriter, r *http.Request) {
	var req IdentifierCheckRequest
	if err := response.Decode(r, &req); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}

	kind, _ := domain.ParseIdentifierKind(string(req.Kind))
	role, _ := domain.ParseRole(string(req.Role))
	exists, err := h.Registration.CheckIdentifier(r.Context(), domain.Identifier{Kind: kind, Raw: strings.TrimSpace(req.Identifier)}, role)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}
	h.resp.Handle(w, r, IdentifierCheckResponse{Exists: exists}, nil, http.StatusOK)
}

// RegisterHandler lida com a requisição POST /v1/register.
// @Summary Inicia o cadastro
// @Description Valida o identificador, confere duplicidade no papel, cria a credencial e guarda o rascunho.
// @Tags register
// @Accept json
// @Produce json
// @Param registration body domain.RegistrationRequest true "Dados de cadastro"
// @Success 201 {object} domain.RegistrationResult
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 409 {object} domain.ErrorResponse "Conta já existe (redirect para o login do papel)"
// @Failure 500 {object} domain.ErrorResponse "Erro interno do servidor"
// @Router /register [post]
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegistrationRequest
	if err := response.Decode(r, &req); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}

	result, err := h.Registration.BeginRegistration(r.Context(), req)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusCreated)
		return
	}

	h.rememberSession(w, r, result.Draft.Role, result.Session.ID)
	h.resp.Handle(w, r, result, nil, http.StatusCreated)
}

// LoginHandler lida com a requisição POST /v1/login.
// @Summary Autentica por identificador, tipo e papel
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Credenciais"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} domain.ErrorResponse "Payload inválido"
// @Failure 401 {object} domain.ErrorResponse "Credenciais inválidas"
// @Failure 404 {object} domain.ErrorResponse "Conta não encontrada"
// @Failure 429 {object} domain.ErrorResponse "Muitas tentativas"
// @Router /login [post]
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := response.Decode(r, &req); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}

	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de conta inválido."), http.StatusOK)
		return
	}
	kind, ok := domain.ParseIdentifierKind(string(req.Kind))
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de identificador inválido."), http.StatusOK)
		return
	}
	id := domain.Identifier{Kind: kind, Raw: strings.TrimSpace(req.Identifier)}
	if err := h.Formatter.Validate(id); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}

	result, err := h.Auth.SignIn(ctx, h.Formatter.LoginKey(id, role), req.Password)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}
	h.rememberSession(w, r, role, result.Session.ID)

	res, err := h.Resolver.Resolve(ctx, &result.Session, role)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}
	h.resp.Handle(w, r, LoginResponse{IDToken: result.IDToken, Resolution: res}, nil, http.StatusOK)
}

// LogoutHandler lida com a requisição POST /v1/logout.
// @Summary Encerra a sessão atual
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} domain.ErrorResponse "Sessão inválida"
// @Router /logout [post]
func (h *Handler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetSessionClaimsFromContext(r.Context())
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewUnauthorizedError("Sessão ausente."), http.StatusNoContent)
		return
	}

	if err := h.Auth.SignOut(r.Context(), claims.SessionID); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusNoContent)
		return
	}
	if err := h.Jar.Clear(w, r); err != nil {
		h.Logger.Warn("Cookie de sessão não removido.", map[string]interface{}{"error": err.Error()})
	}
	h.resp.Handle(w, r, nil, nil, http.StatusNoContent)
}

// GoogleBeginHandler lida com a requisição GET /v1/auth/google.
// @Summary Inicia o login com Google
// @Tags auth
// @Param role query string false "Papel declarado (professional ou client)"
// @Success 307
// @Failure 404 {object} domain.ErrorResponse "Login federado não configurado"
// @Router /auth/google [get]
func (h *Handler) GoogleBeginHandler(w http.ResponseWriter, r *http.Request) {
	if h.Federated == nil {
		h.resp.Handle(w, r, nil, apperror.NewNotFoundError("Login com Google não configurado."), http.StatusOK)
		return
	}

	role, ok := domain.ParseRole(r.URL.Query().Get("role"))
	if !ok {
		role, ok = h.Jar.Role(r)
	}
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de conta inválido."), http.StatusOK)
		return
	}

	// Reserva o id da sessão antes do redirect; a aba principal espera por ele.
	h.rememberSession(w, r, role, uuid.NewString())
	h.Federated.BeginAuth(w, r)
}

// GoogleCallbackHandler lida com a requisição GET /v1/auth/google/callback.
// @Summary Conclui o login com Google
// @Tags auth
// @Produce json
// @Success 200 {object} LoginResponse
// @Failure 401 {object} domain.ErrorResponse "Login federado não concluído"
// @Router /auth/google/callback [get]
func (h *Handler) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.Federated == nil {
		h.resp.Handle(w, r, nil, apperror.NewNotFoundError("Login com Google não configurado."), http.StatusOK)
		return
	}

	role, ok := h.Jar.Role(r)
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de conta inválido."), http.StatusOK)
		return
	}

	user, err := h.Federated.CompleteAuth(w, r)
	if err != nil {
		h.Logger.Warn("Login com Google não concluído.", map[string]interface{}{"error": err.Error()})
		h.resp.Handle(w, r, nil, apperror.NewUnauthorizedError("Login com Google não concluído."), http.StatusOK)
		return
	}

	fed := domain.FederatedIdentity{
		Provider:    domain.ProviderGoogle,
		Subject:     user.UserID,
		Email:       user.Email,
		DisplayName: user.Name,
		PhotoURL:    user.AvatarURL,
	}
	sid := h.Jar.SessionID(r)
	if sid == "" {
		sid = uuid.NewString()
	}

	result, err := h.Auth.SignInFederated(ctx, fed, sid)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}
	h.rememberSession(w, r, role, result.Session.ID)

	res, err := h.Resolver.Resolve(ctx, &result.Session, role)
	if err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusOK)
		return
	}
	if res.State == domain.StateAuthenticatedIncomplete {
		if err := h.Registration.RememberFederated(ctx, result.Session, role, fed); err != nil {
			h.Logger.Warn("Rascunho federado não gravado.", map[string]interface{}{"uid": result.Session.UID, "error": err.Error()})
		}
	}
	h.resp.Handle(w, r, LoginResponse{IDToken: result.IDToken, Resolution: res}, nil, http.StatusOK)
}

// ForgotPasswordHandler lida com a requisição POST /v1/password/forgot.
// @Summary Envia o email de redefinição de senha
// @Tags password
// @Accept json
// @Param body body ForgotPasswordRequest true "Email e papel"
// @Success 204
// @Failure 400 {object} domain.ErrorResponse "Email inválido"
// @Failure 404 {object} domain.ErrorResponse "Conta não encontrada"
// @Failure 503 {object} domain.ErrorResponse "Falha no envio"
// @Router /password/forgot [post]
func (h *Handler) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := response.Decode(r, &req); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusNoContent)
		return
	}
	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		role, ok = h.Jar.Role(r)
	}
	if !ok {
		h.resp.Handle(w, r, nil, apperror.NewValidationError("Tipo de conta inválido."), http.StatusNoContent)
		return
	}

	err := h.Auth.SendPasswordReset(r.Context(), req.Email, role)
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}

// ResetPasswordHandler lida com a requisição POST /v1/password/reset.
// @Summary Define a nova senha a partir do token do email
// @Tags password
// @Accept json
// @Param body body ResetPasswordRequest true "Token e nova senha"
// @Success 204
// @Failure 400 {object} domain.ErrorResponse "Senha fraca"
// @Failure 401 {object} domain.ErrorResponse "Token inválido ou expirado"
// @Router /password/reset [post]
func (h *Handler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := response.Decode(r, &req); err != nil {
		h.resp.Handle(w, r, nil, err, http.StatusNoContent)
		return
	}

	err := h.Auth.ConfirmPasswordReset(r.Context(), req.Token, req.Password)
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}

// rememberSession grava papel e id da sessão no cookie. Falha aqui não derruba a requisição.
func (h *Handler) rememberSession(w http.ResponseWriter, r *http.Request, role domain.Role, sid string) {
	if err := h.Jar.Remember(w, r, role, sid); err != nil {
		h.Logger.Warn("Cookie de sessão não gravado.", map[string]interface{}{"error": err.Error()})
	}
}
