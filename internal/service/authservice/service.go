package authservice

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/session"
	"beautypro/internal/pkg/token"
)

// minPasswordLength é o mínimo aceito pelo provedor.
const minPasswordLength = 6

// CredentialRepository é o contrato de persistência das credenciais.
type CredentialRepository interface {
	Create(ctx context.Context, cred domain.Credential) (domain.Credential, error)
	FindByLoginKey(ctx context.Context, loginKey string) (domain.Credential, error)
	FindByFederatedSubject(ctx context.Context, provider domain.SignInProvider, subject string) (domain.Credential, error)
	FindByUID(ctx context.Context, uid string) (domain.Credential, error)
	UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error
}

// AccountFinder consulta os Registros de Conta (usado na redefinição de senha).
type AccountFinder interface {
	FindByID(ctx context.Context, collection domain.Collection, uid string) (domain.Account, error)
}

// TokenService é o contrato da camada de token (internal/pkg/token).
type TokenService interface {
	GenerateIDToken(uid, loginKey, sessionID, role, provider string) (string, error)
	GenerateResetToken(uid, loginKey, passwordHash string) (string, error)
	ValidateToken(tokenString, purpose string) (*token.CustomClaims, error)
}

// SessionStore é o observável de sessões; este serviço é o único que publica nele.
type SessionStore interface {
	Publish(ev session.Event)
	Get(id string) (domain.Session, bool)
	Active(id string) bool
	SessionsOf(uid string) []domain.Session
}

// Mailer envia o link de redefinição de senha.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Options são os parâmetros não injetáveis do serviço.
type Options struct {
	ResetURL    string
	MailTimeout time.Duration
	// SessionTTL define ExpiresAt das sessões abertas; zero mantém a sessão até o logout.
	SessionTTL time.Duration
}

// AuthService faz o papel do provedor de autenticação hospedado.
type AuthService struct {
	Credentials CredentialRepository
	Accounts    AccountFinder
	TokenSvc    TokenService
	Sessions    SessionStore
	Mailer      Mailer
	Formatter   identifier.Formatter
	opts        Options
	logger      logger.Logger
	now         func() time.Time
}

// NewService cria uma nova instância do AuthService.
func NewService(creds CredentialRepository, accounts AccountFinder, tokenSvc TokenService, sessions SessionStore,
	mailer Mailer, formatter identifier.Formatter, opts Options, log logger.Logger) *AuthService {
	if opts.MailTimeout <= 0 {
		opts.MailTimeout = 10 * time.Second
	}
	return &AuthService{
		Credentials: creds,
		Accounts:    accounts,
		TokenSvc:    tokenSvc,
		Sessions:    sessions,
		Mailer:      mailer,
		Formatter:   formatter,
		opts:        opts,
		logger:      log,
		now:         time.Now,
	}
}

// CreateAccount cria a credencial com senha e já abre a sessão.
func (s *AuthService) CreateAccount(ctx context.Context, loginKey, secret string) (domain.SignInResult, error) {
	// 1. Validação
	if !identifier.IsValidEmail(loginKey) {
		return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeInvalidEmail, nil)
	}
	if len(secret) < minPasswordLength {
		return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeWeakPassword, nil)
	}

	// 2. Hashing da Senha
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return domain.SignInResult{}, apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}

	// 3. Persistência (chave repetida vira email-already-in-use no repositório)
	cred, err := s.Credentials.Create(ctx, domain.Credential{
		LoginKey:     loginKey,
		PasswordHash: string(hashedPassword),
		Provider:     domain.ProviderPassword,
	})
	if err != nil {
		return domain.SignInResult{}, err
	}

	s.logger.Info("Credencial criada.", map[string]interface{}{"uid": cred.UID, "login_key": logger.MaskEmail(loginKey)})
	return s.openSession(cred, domain.ProviderPassword, "")
}

// SignIn autentica com chave de login e senha.
func (s *AuthService) SignIn(ctx context.Context, loginKey, secret string) (domain.SignInResult, error) {
	if !identifier.IsValidEmail(loginKey) {
		return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeInvalidEmail, nil)
	}

	cred, err := s.Credentials.FindByLoginKey(ctx, loginKey)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeUserNotFound, err)
		}
		return domain.SignInResult{}, err
	}

	// Credencial só federada não tem senha.
	if cred.PasswordHash == "" {
		return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeWrongPassword, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(secret)); err != nil {
		s.logger.Info("Senha incorreta.", map[string]interface{}{"uid": cred.UID})
		return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeWrongPassword, nil)
	}

	return s.openSession(cred, domain.ProviderPassword, "")
}

// SignInFederated conclui um login federado. A credencial é encontrada pelo
// usuário do provedor ou criada na primeira vez, com o email do provedor como chave.
// sessionID, quando informado, é o id reservado no início do fluxo.
func (s *AuthService) SignInFederated(ctx context.Context, fed domain.FederatedIdentity, sessionID string) (domain.SignInResult, error) {
	if fed.Subject == "" {
		return domain.SignInResult{}, apperror.NewValidationError("Identidade federada sem identificador.")
	}

	cred, err := s.Credentials.FindByFederatedSubject(ctx, fed.Provider, fed.Subject)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if !errors.As(err, &notFoundErr) {
			return domain.SignInResult{}, err
		}

		email := strings.TrimSpace(fed.Email)
		if !identifier.IsValidEmail(email) || s.Formatter.Reserved(email) {
			return domain.SignInResult{}, apperror.NewProviderError(apperror.CodeInvalidEmail, nil)
		}
		cred, err = s.Credentials.Create(ctx, domain.Credential{
			LoginKey:         email,
			Provider:         fed.Provider,
			FederatedSubject: fed.Subject,
			DisplayName:      fed.DisplayName,
			PhotoURL:         fed.PhotoURL,
		})
		if err != nil {
			return domain.SignInResult{}, err
		}
		s.logger.Info("Credencial federada criada.", map[string]interface{}{"uid": cred.UID, "provider": string(fed.Provider)})
	}

	return s.openSession(cred, fed.Provider, sessionID)
}

// SignOut encerra a sessão. Encerrar uma sessão inexistente não é erro.
func (s *AuthService) SignOut(_ context.Context, sessionID string) error {
	sess, ok := s.Sessions.Get(sessionID)
	if !ok {
		return nil
	}
	s.Sessions.Publish(session.Event{Type: session.EventSignedOut, Session: sess})
	s.logger.Info("Sessão encerrada.", map[string]interface{}{"uid": sess.UID})
	return nil
}

// NotifyRegistered publica a conclusão de um cadastro para os observadores da sessão.
func (s *AuthService) NotifyRegistered(sess domain.Session, role domain.Role) {
	s.Sessions.Publish(session.Event{Type: session.EventRegistered, Session: sess, Role: role})
}

// FetchSignInMethods lista os métodos de login vinculados à chave.
// Chave desconhecida resulta em lista vazia.
func (s *AuthService) FetchSignInMethods(ctx context.Context, loginKey string) ([]string, error) {
	cred, err := s.Credentials.FindByLoginKey(ctx, loginKey)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return []string{}, nil
		}
		return nil, err
	}
	return []string{string(cred.Provider)}, nil
}

// IssueIDToken emite o ID token da sessão.
func (s *AuthService) IssueIDToken(sess domain.Session) (string, error) {
	role, _ := identifier.RoleFromLoginKey(sess.LoginKey)
	tok, err := s.TokenSvc.GenerateIDToken(sess.UID, sess.LoginKey, sess.ID, string(role), string(sess.Provider))
	if err != nil {
		return "", apperror.NewInternalError("Falha ao gerar token de autenticação.", err)
	}
	return tok, nil
}

// VerifyIDToken valida o token e confere se a sessão ainda está ativa.
func (s *AuthService) VerifyIDToken(_ context.Context, idToken string) (*token.CustomClaims, error) {
	claims, err := s.TokenSvc.ValidateToken(idToken, token.PurposeID)
	if err != nil {
		return nil, apperror.NewUnauthorizedError("Token inválido ou expirado.")
	}
	if !s.Sessions.Active(claims.SessionID) {
		return nil, apperror.NewUnauthorizedError("Sessão encerrada.")
	}
	return claims, nil
}

// SendPasswordReset envia o link de redefinição para o email da conta do papel informado.
func (s *AuthService) SendPasswordReset(ctx context.Context, email string, role domain.Role) error {
	if !role.Valid() {
		return apperror.NewValidationError("Tipo de conta inválido.")
	}
	email = identifier.StripRolePrefix(strings.TrimSpace(email))
	if !identifier.IsValidEmail(email) || s.Formatter.Reserved(email) {
		return apperror.NewProviderError(apperror.CodeInvalidEmail, nil)
	}

	loginKey := s.Formatter.LoginKey(domain.Identifier{Kind: domain.KindEmail, Raw: email}, role)

	// 1. A credencial e o Registro de Conta precisam existir.
	cred, err := s.Credentials.FindByLoginKey(ctx, loginKey)
	if err != nil {
		return asUserNotFound(err)
	}
	if _, err := s.Accounts.FindByID(ctx, role.Collection(), cred.UID); err != nil {
		return asUserNotFound(err)
	}

	// 2. Token curto de redefinição
	resetToken, err := s.TokenSvc.GenerateResetToken(cred.UID, cred.LoginKey, cred.PasswordHash)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar token de redefinição.", err)
	}
	link := s.opts.ResetURL + "?token=" + url.QueryEscape(resetToken)

	// 3. Envio com prazo próprio
	mailCtx, cancel := context.WithTimeout(ctx, s.opts.MailTimeout)
	defer cancel()
	if err := s.Mailer.SendPasswordReset(mailCtx, email, link); err != nil {
		s.logger.Error("Falha ao enviar email de redefinição.", err)
		return apperror.NewProviderError(apperror.CodeNetworkRequestFailed, err)
	}

	s.logger.Info("Email de redefinição enviado.", map[string]interface{}{"uid": cred.UID})
	return nil
}

// ConfirmPasswordReset troca a senha usando o token recebido por email.
// O token vale uma vez só: a troca muda o hash e o token deixa de conferir.
// Todas as sessões do usuário são encerradas depois da troca.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, resetToken, newSecret string) error {
	claims, err := s.TokenSvc.ValidateToken(resetToken, token.PurposePasswordReset)
	if err != nil {
		return apperror.NewValidationError("Link de redefinição inválido ou expirado.")
	}
	if len(newSecret) < minPasswordLength {
		return apperror.NewProviderError(apperror.CodeWeakPassword, nil)
	}

	cred, err := s.Credentials.FindByUID(ctx, claims.UID)
	if err != nil {
		return asUserNotFound(err)
	}
	if claims.PasswordFingerprint != token.PasswordFingerprint(cred.PasswordHash) {
		s.logger.Info("Token de redefinição já utilizado.", map[string]interface{}{"uid": claims.UID})
		return apperror.NewValidationError("Link de redefinição inválido ou expirado.")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newSecret), bcrypt.DefaultCost)
	if err != nil {
		return apperror.NewInternalError("Falha ao gerar hash da senha.", err)
	}
	if err := s.Credentials.UpdatePasswordHash(ctx, claims.UID, string(hashedPassword)); err != nil {
		return asUserNotFound(err)
	}

	sessions := s.Sessions.SessionsOf(claims.UID)
	for _, sess := range sessions {
		s.Sessions.Publish(session.Event{Type: session.EventSignedOut, Session: sess})
	}

	s.logger.Info("Senha redefinida.", map[string]interface{}{"uid": claims.UID, "sessions_closed": len(sessions)})
	return nil
}

func (s *AuthService) openSession(cred domain.Credential, provider domain.SignInProvider, sessionID string) (domain.SignInResult, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	sess := domain.Session{
		ID:       sessionID,
		UID:      cred.UID,
		LoginKey: cred.LoginKey,
		Provider: provider,
		IssuedAt: s.now().UTC(),
	}
	if s.opts.SessionTTL > 0 {
		sess.ExpiresAt = sess.IssuedAt.Add(s.opts.SessionTTL)
	}

	idToken, err := s.IssueIDToken(sess)
	if err != nil {
		return domain.SignInResult{}, err
	}

	s.Sessions.Publish(session.Event{Type: session.EventSignedIn, Session: sess})
	s.logger.Debug("Sessão aberta.", map[string]interface{}{"uid": cred.UID, "provider": string(provider)})
	return domain.SignInResult{Session: sess, IDToken: idToken}, nil
}

func asUserNotFound(err error) error {
	var notFoundErr *apperror.NotFoundError
	if errors.As(err, &notFoundErr) {
		return apperror.NewProviderError(apperror.CodeUserNotFound, err)
	}
	return err
}
