package authservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/session"
	"beautypro/internal/pkg/token"
	"beautypro/internal/service/authservice"
)

// MockCredentialRepository é uma implementação mock da interface CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	args := m.Called(ctx, cred)
	return args.Get(0).(domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindByLoginKey(ctx context.Context, loginKey string) (domain.Credential, error) {
	args := m.Called(ctx, loginKey)
	return args.Get(0).(domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindByFederatedSubject(ctx context.Context, provider domain.SignInProvider, subject string) (domain.Credential, error) {
	args := m.Called(ctx, provider, subject)
	return args.Get(0).(domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) FindByUID(ctx context.Context, uid string) (domain.Credential, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(domain.Credential), args.Error(1)
}

func (m *MockCredentialRepository) UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error {
	args := m.Called(ctx, uid, passwordHash)
	return args.Error(0)
}

// MockAccountFinder é uma implementação mock da interface AccountFinder
type MockAccountFinder struct {
	mock.Mock
}

func (m *MockAccountFinder) FindByID(ctx context.Context, collection domain.Collection, uid string) (domain.Account, error) {
	args := m.Called(ctx, collection, uid)
	return args.Get(0).(domain.Account), args.Error(1)
}

// MockMailer é uma implementação mock da interface Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	args := m.Called(ctx, to, link)
	return args.Error(0)
}

type fixture struct {
	svc      *authservice.AuthService
	creds    *MockCredentialRepository
	accounts *MockAccountFinder
	mailer   *MockMailer
	store    *session.Store
	tokens   *token.Service
}

func newFixture() fixture {
	f := fixture{
		creds:    new(MockCredentialRepository),
		accounts: new(MockAccountFinder),
		mailer:   new(MockMailer),
		store:    session.NewStore(),
		tokens:   token.NewService("segredo-de-teste", time.Hour, 15*time.Minute),
	}
	f.svc = authservice.NewService(f.creds, f.accounts, f.tokens, f.store, f.mailer,
		identifier.NewFormatter(""), authservice.Options{ResetURL: "https://app/redefinir"}, logger.NewNop())
	return f
}

func hash(t *testing.T, secret string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestCreateAccount_Success_OpensSession(t *testing.T) {
	f := newFixture()
	key := "client.cpf.52998224725@beautypro.com"
	var events []session.EventType
	f.store.Subscribe(func(ev session.Event) { events = append(events, ev.Type) })

	f.creds.On("Create", mock.Anything, mock.MatchedBy(func(c domain.Credential) bool {
		return c.LoginKey == key && c.Provider == domain.ProviderPassword &&
			bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte("segredo1")) == nil
	})).Return(domain.Credential{UID: "uid-1", LoginKey: key, Provider: domain.ProviderPassword}, nil)

	res, err := f.svc.CreateAccount(context.Background(), key, "segredo1")

	require.NoError(t, err)
	assert.Equal(t, "uid-1", res.Session.UID)
	assert.True(t, f.store.Active(res.Session.ID))
	assert.Equal(t, []session.EventType{session.EventSignedIn}, events)

	claims, err := f.svc.VerifyIDToken(context.Background(), res.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "client", claims.Role)
	f.creds.AssertExpectations(t)
}

func TestCreateAccount_WeakPassword(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAccount(context.Background(), "client.a@b.com", "12345")

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeWeakPassword))
	f.creds.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateAccount_InvalidEmail(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateAccount(context.Background(), "client.sem-arroba", "segredo1")

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeInvalidEmail))
}

func TestCreateAccount_KeyInUsePassesThrough(t *testing.T) {
	f := newFixture()
	f.creds.On("Create", mock.Anything, mock.Anything).
		Return(domain.Credential{}, apperror.NewProviderError(apperror.CodeEmailAlreadyInUse, nil))

	_, err := f.svc.CreateAccount(context.Background(), "client.a@b.com", "segredo1")

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeEmailAlreadyInUse))
}

func TestSignIn(t *testing.T) {
	f := newFixture()
	key := "professional.ana@studio.com"
	f.creds.On("FindByLoginKey", mock.Anything, key).
		Return(domain.Credential{UID: "uid-2", LoginKey: key, PasswordHash: hash(t, "segredo1"), Provider: domain.ProviderPassword}, nil)

	res, err := f.svc.SignIn(context.Background(), key, "segredo1")
	require.NoError(t, err)
	assert.Equal(t, "uid-2", res.Session.UID)

	_, err = f.svc.SignIn(context.Background(), key, "errada")
	assert.True(t, apperror.IsProviderCode(err, apperror.CodeWrongPassword))
}

func TestSignIn_UnknownKey(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, "client.x@b.com").
		Return(domain.Credential{}, apperror.NewNotFoundError("x"))

	_, err := f.svc.SignIn(context.Background(), "client.x@b.com", "segredo1")

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeUserNotFound))
}

func TestSignIn_DBErrorIsNotUserNotFound(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, mock.Anything).
		Return(domain.Credential{}, apperror.NewDBError("falha", errors.New("conn")))

	_, err := f.svc.SignIn(context.Background(), "client.x@b.com", "segredo1")

	assert.IsType(t, &apperror.InternalError{}, err)
}

func TestSignInFederated_CreatesOnFirstLoginWithReservedSession(t *testing.T) {
	f := newFixture()
	fed := domain.FederatedIdentity{Provider: domain.ProviderGoogle, Subject: "g-1", Email: "maria@gmail.com", DisplayName: "Maria"}
	f.creds.On("FindByFederatedSubject", mock.Anything, domain.ProviderGoogle, "g-1").
		Return(domain.Credential{}, apperror.NewNotFoundError("x"))
	f.creds.On("Create", mock.Anything, mock.MatchedBy(func(c domain.Credential) bool {
		return c.LoginKey == "maria@gmail.com" && c.FederatedSubject == "g-1" && c.PasswordHash == ""
	})).Return(domain.Credential{UID: "uid-3", LoginKey: "maria@gmail.com", Provider: domain.ProviderGoogle}, nil)

	res, err := f.svc.SignInFederated(context.Background(), fed, "sid-reservado")

	require.NoError(t, err)
	assert.Equal(t, "sid-reservado", res.Session.ID)
	assert.True(t, f.store.Active("sid-reservado"))
}

func TestSignOut_EndsSessionAndInvalidatesToken(t *testing.T) {
	f := newFixture()
	key := "client.a@b.com"
	f.creds.On("FindByLoginKey", mock.Anything, key).
		Return(domain.Credential{UID: "uid-1", LoginKey: key, PasswordHash: hash(t, "segredo1")}, nil)
	res, err := f.svc.SignIn(context.Background(), key, "segredo1")
	require.NoError(t, err)

	require.NoError(t, f.svc.SignOut(context.Background(), res.Session.ID))

	assert.False(t, f.store.Active(res.Session.ID))
	_, err = f.svc.VerifyIDToken(context.Background(), res.IDToken)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
	assert.NoError(t, f.svc.SignOut(context.Background(), res.Session.ID))
}

func TestFetchSignInMethods(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, "client.a@b.com").
		Return(domain.Credential{Provider: domain.ProviderPassword}, nil)
	f.creds.On("FindByLoginKey", mock.Anything, "client.x@b.com").
		Return(domain.Credential{}, apperror.NewNotFoundError("x"))

	methods, err := f.svc.FetchSignInMethods(context.Background(), "client.a@b.com")
	require.NoError(t, err)
	assert.Equal(t, []string{"password"}, methods)

	methods, err = f.svc.FetchSignInMethods(context.Background(), "client.x@b.com")
	require.NoError(t, err)
	assert.Empty(t, methods)
}

func TestSendPasswordReset_StripsPrefixAndMails(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, "client.maria@example.com").
		Return(domain.Credential{UID: "uid-1", LoginKey: "client.maria@example.com"}, nil)
	f.accounts.On("FindByID", mock.Anything, domain.CollectionClients, "uid-1").
		Return(domain.Account{UserID: "uid-1"}, nil)

	var link string
	f.mailer.On("SendPasswordReset", mock.Anything, "maria@example.com", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { link = args.String(2) }).
		Return(nil)

	err := f.svc.SendPasswordReset(context.Background(), "client.maria@example.com", domain.RoleClient)

	require.NoError(t, err)
	assert.Contains(t, link, "https://app/redefinir?token=")
	f.mailer.AssertExpectations(t)
}

func TestSendPasswordReset_NoAccountRecord(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, "professional.maria@example.com").
		Return(domain.Credential{UID: "uid-1"}, nil)
	f.accounts.On("FindByID", mock.Anything, domain.CollectionProfessionals, "uid-1").
		Return(domain.Account{}, apperror.NewNotFoundError("x"))

	err := f.svc.SendPasswordReset(context.Background(), "maria@example.com", domain.RoleProfessional)

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeUserNotFound))
	f.mailer.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendPasswordReset_MailFailure(t *testing.T) {
	f := newFixture()
	f.creds.On("FindByLoginKey", mock.Anything, mock.Anything).Return(domain.Credential{UID: "uid-1"}, nil)
	f.accounts.On("FindByID", mock.Anything, mock.Anything, "uid-1").Return(domain.Account{}, nil)
	f.mailer.On("SendPasswordReset", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err := f.svc.SendPasswordReset(context.Background(), "maria@example.com", domain.RoleClient)

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeNetworkRequestFailed))
}

func TestConfirmPasswordReset(t *testing.T) {
	f := newFixture()
	oldHash := hash(t, "antiga1")
	resetToken, err := f.tokens.GenerateResetToken("uid-1", "client.maria@example.com", oldHash)
	require.NoError(t, err)
	f.creds.On("FindByUID", mock.Anything, "uid-1").Return(domain.Credential{UID: "uid-1", PasswordHash: oldHash}, nil)
	f.creds.On("UpdatePasswordHash", mock.Anything, "uid-1", mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), resetToken, "novaSenha"))

	err = f.svc.ConfirmPasswordReset(context.Background(), resetToken, "123")
	assert.True(t, apperror.IsProviderCode(err, apperror.CodeWeakPassword))

	idToken, err := f.tokens.GenerateIDToken("uid-1", "k", "sid", "", "password")
	require.NoError(t, err)
	err = f.svc.ConfirmPasswordReset(context.Background(), idToken, "novaSenha")
	assert.IsType(t, &apperror.ValidationError{}, err)
	f.creds.AssertNumberOfCalls(t, "UpdatePasswordHash", 1)
}

func TestConfirmPasswordReset_TokenIsSingleUse(t *testing.T) {
	f := newFixture()
	oldHash := hash(t, "antiga1")
	resetToken, err := f.tokens.GenerateResetToken("uid-1", "client.maria@example.com", oldHash)
	require.NoError(t, err)

	var stored string
	f.creds.On("FindByUID", mock.Anything, "uid-1").Return(domain.Credential{UID: "uid-1", PasswordHash: oldHash}, nil).Once()
	f.creds.On("UpdatePasswordHash", mock.Anything, "uid-1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { stored = args.String(2) }).
		Return(nil).Once()

	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), resetToken, "novaSenha"))

	// O hash gravado já é outro; o mesmo link não troca a senha de novo.
	f.creds.On("FindByUID", mock.Anything, "uid-1").Return(domain.Credential{UID: "uid-1", PasswordHash: stored}, nil)
	err = f.svc.ConfirmPasswordReset(context.Background(), resetToken, "outraSenha")

	assert.IsType(t, &apperror.ValidationError{}, err)
	f.creds.AssertNumberOfCalls(t, "UpdatePasswordHash", 1)
}

func TestConfirmPasswordReset_SignsOutUserSessions(t *testing.T) {
	f := newFixture()
	key := "client.maria@example.com"
	pwHash := hash(t, "antiga1")
	f.creds.On("FindByLoginKey", mock.Anything, key).
		Return(domain.Credential{UID: "uid-1", LoginKey: key, PasswordHash: pwHash}, nil)
	f.creds.On("FindByUID", mock.Anything, "uid-1").Return(domain.Credential{UID: "uid-1", PasswordHash: pwHash}, nil)
	f.creds.On("UpdatePasswordHash", mock.Anything, "uid-1", mock.AnythingOfType("string")).Return(nil)

	first, err := f.svc.SignIn(context.Background(), key, "antiga1")
	require.NoError(t, err)
	second, err := f.svc.SignIn(context.Background(), key, "antiga1")
	require.NoError(t, err)
	other := domain.Session{ID: "sid-outro", UID: "uid-2"}
	f.store.Publish(session.Event{Type: session.EventSignedIn, Session: other})

	var signedOut []string
	f.store.Subscribe(func(ev session.Event) {
		if ev.Type == session.EventSignedOut {
			signedOut = append(signedOut, ev.Session.ID)
		}
	})

	resetToken, err := f.tokens.GenerateResetToken("uid-1", key, pwHash)
	require.NoError(t, err)
	require.NoError(t, f.svc.ConfirmPasswordReset(context.Background(), resetToken, "novaSenha"))

	assert.False(t, f.store.Active(first.Session.ID))
	assert.False(t, f.store.Active(second.Session.ID))
	assert.True(t, f.store.Active(other.ID))
	assert.ElementsMatch(t, []string{first.Session.ID, second.Session.ID}, signedOut)
	_, err = f.svc.VerifyIDToken(context.Background(), first.IDToken)
	assert.IsType(t, &apperror.UnauthorizedError{}, err)
}

func TestSendPasswordReset_ReservedDomainRejected(t *testing.T) {
	f := newFixture()

	err := f.svc.SendPasswordReset(context.Background(), "cpf.52998224725@beautypro.com", domain.RoleClient)

	assert.True(t, apperror.IsProviderCode(err, apperror.CodeInvalidEmail))
	f.creds.AssertNotCalled(t, "FindByLoginKey", mock.Anything, mock.Anything)
}

func TestOpenSession_SetsExpiryAndProvider(t *testing.T) {
	f := newFixture()
	f.svc = authservice.NewService(f.creds, f.accounts, f.tokens, f.store, f.mailer,
		identifier.NewFormatter(""), authservice.Options{SessionTTL: time.Hour}, logger.NewNop())
	fed := domain.FederatedIdentity{Provider: domain.ProviderGoogle, Subject: "g-9", Email: "ana@gmail.com"}
	f.creds.On("FindByFederatedSubject", mock.Anything, domain.ProviderGoogle, "g-9").
		Return(domain.Credential{UID: "uid-9", LoginKey: "ana@gmail.com", Provider: domain.ProviderGoogle}, nil)

	res, err := f.svc.SignInFederated(context.Background(), fed, "")

	require.NoError(t, err)
	assert.Equal(t, time.Hour, res.Session.ExpiresAt.Sub(res.Session.IssuedAt))
	claims, err := f.svc.VerifyIDToken(context.Background(), res.IDToken)
	require.NoError(t, err)
	assert.Equal(t, "google", claims.Provider)
}
