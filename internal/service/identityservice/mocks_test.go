package identityservice_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"beautypro/internal/domain"
)

// MockAuthProvider é uma implementação mock do provedor de autenticação.
type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) FetchSignInMethods(ctx context.Context, loginKey string) ([]string, error) {
	args := m.Called(ctx, loginKey)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAuthProvider) CreateAccount(ctx context.Context, loginKey, secret string) (domain.SignInResult, error) {
	args := m.Called(ctx, loginKey, secret)
	return args.Get(0).(domain.SignInResult), args.Error(1)
}

func (m *MockAuthProvider) NotifyRegistered(sess domain.Session, role domain.Role) {
	m.Called(sess, role)
}

// MockAccountRepository é uma implementação mock do repositório de contas.
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) ExistsByField(ctx context.Context, collection domain.Collection, field, value string) (bool, error) {
	args := m.Called(ctx, collection, field, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockAccountRepository) CreateIfAbsent(ctx context.Context, acc domain.Account) (domain.Account, error) {
	args := m.Called(ctx, acc)
	return args.Get(0).(domain.Account), args.Error(1)
}

// MockDraftRepository é uma implementação mock do repositório de rascunhos.
type MockDraftRepository struct {
	mock.Mock
}

func (m *MockDraftRepository) Save(ctx context.Context, draft domain.RegistrationDraft) error {
	return m.Called(ctx, draft).Error(0)
}

func (m *MockDraftRepository) Get(ctx context.Context, uid string) (domain.RegistrationDraft, error) {
	args := m.Called(ctx, uid)
	return args.Get(0).(domain.RegistrationDraft), args.Error(1)
}

func (m *MockDraftRepository) Delete(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}
