package identityservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/metrics"
)

// AuthProvider é a parte do provedor de autenticação usada no cadastro.
type AuthProvider interface {
	CreateAccount(ctx context.Context, loginKey, secret string) (domain.SignInResult, error)
	NotifyRegistered(sess domain.Session, role domain.Role)
}

// AccountRepository grava o Registro de Conta.
type AccountRepository interface {
	CreateIfAbsent(ctx context.Context, acc domain.Account) (domain.Account, error)
}

// DraftRepository guarda o rascunho entre a criação da credencial e o complemento.
type DraftRepository interface {
	Save(ctx context.Context, draft domain.RegistrationDraft) error
	Get(ctx context.Context, uid string) (domain.RegistrationDraft, error)
	Delete(ctx context.Context, uid string) error
}

// Checker é o verificador de duplicidade.
type Checker interface {
	Exists(ctx context.Context, id domain.Identifier, role domain.Role) (bool, error)
	Invalidate(ctx context.Context, role domain.Role, loginKey string)
}

// IdentityService conduz o fluxo de cadastro: início (credencial + rascunho) e
// complemento do perfil (Registro de Conta).
type IdentityService struct {
	Auth      AuthProvider
	Accounts  AccountRepository
	Drafts    DraftRepository
	Checker   Checker
	Formatter identifier.Formatter
	Metrics   *metrics.Metrics
	logger    logger.Logger
	now       func() time.Time

	mu       sync.Mutex
	inFlight map[string]struct{} // UIDs com complemento de cadastro em andamento
}

// NewService cria uma nova instância do IdentityService.
func NewService(auth AuthProvider, accounts AccountRepository, drafts DraftRepository, checker Checker,
	formatter identifier.Formatter, m *metrics.Metrics, log logger.Logger) *IdentityService {
	return &IdentityService{
		Auth:      auth,
		Accounts:  accounts,
		Drafts:    drafts,
		Checker:   checker,
		Formatter: formatter,
		Metrics:   m,
		logger:    log,
		now:       time.Now,
		inFlight:  make(map[string]struct{}),
	}
}

// CheckIdentifier valida o identificador e consulta a duplicidade para o papel.
func (s *IdentityService) CheckIdentifier(ctx context.Context, id domain.Identifier, role domain.Role) (bool, error) {
	if !role.Valid() {
		return false, apperror.NewValidationError("Tipo de conta inválido.")
	}
	if err := s.Formatter.Validate(id); err != nil {
		return false, err
	}
	return s.Checker.Exists(ctx, id, role)
}

// BeginRegistration cria a credencial do usuário e guarda o rascunho do cadastro.
func (s *IdentityService) BeginRegistration(ctx context.Context, req domain.RegistrationRequest) (domain.RegistrationResult, error) {
	// 1. Validações locais, sem colaboradores
	role, ok := domain.ParseRole(string(req.Role))
	if !ok {
		return domain.RegistrationResult{}, apperror.NewValidationError("Tipo de conta inválido.")
	}
	kind, ok := domain.ParseIdentifierKind(string(req.Kind))
	if !ok {
		return domain.RegistrationResult{}, apperror.NewValidationError("Tipo de identificador inválido.")
	}
	id := domain.Identifier{Kind: kind, Raw: strings.TrimSpace(req.Identifier)}
	if err := s.Formatter.Validate(id); err != nil {
		return domain.RegistrationResult{}, err
	}
	if req.Password != req.ConfirmPassword {
		return domain.RegistrationResult{}, apperror.NewValidationError("As senhas não coincidem.")
	}

	// 2. Duplicidade. Erro aborta o cadastro.
	exists, err := s.Checker.Exists(ctx, id, role)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	if exists {
		s.logger.Info("Cadastro recusado: conta já existe.", map[string]interface{}{"role": string(role), "kind": string(kind)})
		return domain.RegistrationResult{}, apperror.NewDuplicateAccountError(string(role), role.LoginPath())
	}

	// 3. Credencial no provedor (erros do provedor seguem como estão)
	loginKey := s.Formatter.LoginKey(id, role)
	res, err := s.Auth.CreateAccount(ctx, loginKey, req.Password)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	s.Checker.Invalidate(ctx, role, loginKey)

	// 4. Rascunho. A ausência dele nunca impede o fluxo.
	draft := domain.RegistrationDraft{
		UID:        res.Session.UID,
		Kind:       kind,
		Identifier: id.Raw,
		Role:       role,
		LoginKey:   loginKey,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.Drafts.Save(ctx, draft); err != nil {
		s.logger.Warn("Rascunho de cadastro não gravado.", map[string]interface{}{"uid": draft.UID, "error": err.Error()})
	}

	s.logger.Info("Cadastro iniciado.", map[string]interface{}{"uid": draft.UID, "role": string(role)})
	return domain.RegistrationResult{
		Draft:    draft,
		Session:  res.Session,
		IDToken:  res.IDToken,
		NextPath: role.CompletionPath(),
	}, nil
}

// RememberFederated guarda o rascunho de quem entrou pelo Google e ainda não tem
// registro para o papel declarado.
func (s *IdentityService) RememberFederated(ctx context.Context, sess domain.Session, role domain.Role, fed domain.FederatedIdentity) error {
	draft := domain.RegistrationDraft{
		UID:         sess.UID,
		Kind:        domain.KindEmail,
		Identifier:  fed.Email,
		Role:        role,
		LoginKey:    sess.LoginKey,
		DisplayName: fed.DisplayName,
		PhotoURL:    fed.PhotoURL,
		CreatedAt:   s.now().UTC(),
	}
	return s.Drafts.Save(ctx, draft)
}

// GetDraft devolve o rascunho do usuário; ausência é NotFound e o cliente recomeça.
func (s *IdentityService) GetDraft(ctx context.Context, uid string) (domain.RegistrationDraft, error) {
	return s.Drafts.Get(ctx, uid)
}

// CompleteProfessional cria o Registro de Conta do profissional.
func (s *IdentityService) CompleteProfessional(ctx context.Context, sess domain.Session, profile domain.ProfessionalProfile) (domain.Account, error) {
	profile = sanitizeProfessional(profile)
	if err := validateContact(profile.Name, profile.WhatsApp, profile.State); err != nil {
		return domain.Account{}, err
	}

	acc := domain.Account{
		Name:     profile.Name,
		WhatsApp: profile.WhatsApp,
		City:     profile.City,
		State:    profile.State,
		Professional: &domain.ProfessionalDetails{
			Bio:             profile.Bio,
			Specialties:     profile.Specialties,
			CustomSpecialty: profile.CustomSpecialty,
			Instagram:       profile.Instagram,
			Facebook:        profile.Facebook,
			Website:         profile.Website,
			Schedule:        profile.Schedule,
		},
	}
	return s.complete(ctx, sess, domain.RoleProfessional, acc)
}

// CompleteClient cria o Registro de Conta do cliente.
func (s *IdentityService) CompleteClient(ctx context.Context, sess domain.Session, profile domain.ClientProfile) (domain.Account, error) {
	profile = sanitizeClient(profile)
	if err := validateContact(profile.Name, profile.WhatsApp, profile.State); err != nil {
		return domain.Account{}, err
	}

	acc := domain.Account{
		Name:     profile.Name,
		WhatsApp: profile.WhatsApp,
		City:     profile.City,
		State:    profile.State,
	}
	return s.complete(ctx, sess, domain.RoleClient, acc)
}

func (s *IdentityService) complete(ctx context.Context, sess domain.Session, role domain.Role, acc domain.Account) (domain.Account, error) {
	if sess.UID == "" {
		return domain.Account{}, apperror.NewUnauthorizedError("Sessão ausente.")
	}
	// Chave com papel embutido só completa o cadastro desse papel. Chaves federadas
	// são o email do provedor e não carregam papel.
	if sess.Provider != domain.ProviderGoogle {
		if keyRole, ok := identifier.RoleFromLoginKey(sess.LoginKey); ok && keyRole != role {
			s.logger.Warn("Complemento recusado: papel diferente do da chave.", map[string]interface{}{"uid": sess.UID, "role": string(role)})
			return domain.Account{}, apperror.NewValidationError("Esta conta foi criada para outro tipo de perfil.")
		}
	}

	// 1. Uma submissão por usuário de cada vez
	if !s.acquire(sess.UID) {
		s.logger.Warn("Complemento de cadastro já em andamento.", map[string]interface{}{"uid": sess.UID})
		return domain.Account{}, apperror.NewConflictError("Cadastro já em andamento.")
	}
	defer s.release(sess.UID)

	// 2. Identificadores vindos do rascunho ou, na falta dele, da chave de login
	acc.UserID = sess.UID
	acc.Role = role
	acc.Settings = domain.AccountSettings{Notifications: true, EmailAlerts: true}
	s.fillIdentity(ctx, sess, &acc)

	// 3. Escrita protegida
	created, err := s.Accounts.CreateIfAbsent(ctx, acc)
	if err != nil {
		return domain.Account{}, err
	}

	// 4. Limpeza e aviso aos observadores
	s.Checker.Invalidate(ctx, role, sess.LoginKey)
	if err := s.Drafts.Delete(ctx, sess.UID); err != nil {
		s.logger.Warn("Rascunho de cadastro não removido.", map[string]interface{}{"uid": sess.UID, "error": err.Error()})
	}
	s.Auth.NotifyRegistered(sess, role)
	s.Metrics.ObserveRegistration(string(role))

	s.logger.Info("Cadastro concluído.", map[string]interface{}{"uid": sess.UID, "role": string(role)})
	return created, nil
}

func (s *IdentityService) fillIdentity(ctx context.Context, sess domain.Session, acc *domain.Account) {
	kind, value := s.Formatter.Decode(sess.LoginKey)

	draft, err := s.Drafts.Get(ctx, sess.UID)
	if err == nil && draft.UID == sess.UID {
		acc.DisplayName = draft.DisplayName
		acc.PhotoURL = draft.PhotoURL
		if draft.Kind == domain.KindCPF || draft.Kind == domain.KindCNPJ {
			kind, value = draft.Kind, identifier.OnlyDigits(draft.Identifier)
		}
	} else if err != nil {
		var notFoundErr *apperror.NotFoundError
		if !errors.As(err, &notFoundErr) {
			s.logger.Warn("Rascunho de cadastro indisponível; usando a chave de login.", map[string]interface{}{"uid": sess.UID})
		}
	}

	switch kind {
	case domain.KindCPF:
		acc.CPF = value
	case domain.KindCNPJ:
		acc.CNPJ = value
	default:
		// O email gravado é a chave de login, o mesmo valor consultado na duplicidade.
		acc.Email = sess.LoginKey
	}
}

func (s *IdentityService) acquire(uid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[uid]; busy {
		return false
	}
	s.inFlight[uid] = struct{}{}
	return true
}

func (s *IdentityService) release(uid string) {
	s.mu.Lock()
	delete(s.inFlight, uid)
	s.mu.Unlock()
}
