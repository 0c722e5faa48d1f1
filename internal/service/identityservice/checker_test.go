package identityservice_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/metrics"
	"beautypro/internal/service/identityservice"
)

var testEmail = domain.Identifier{Kind: domain.KindEmail, Raw: "test@example.com"}

func newChecker(t *testing.T, withCache bool) (*identityservice.DuplicateChecker, *MockAuthProvider, *MockAccountRepository, *metrics.Metrics, *miniredis.Miniredis) {
	t.Helper()
	auth := new(MockAuthProvider)
	accounts := new(MockAccountRepository)
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	var client cache.Client
	var mr *miniredis.Miniredis
	if withCache {
		mr = miniredis.RunT(t)
		client = cache.NewFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	}

	c := identityservice.NewDuplicateChecker(auth, accounts, identifier.NewFormatter(""), client,
		30*time.Second, time.Second, m, logger.NewNop())
	return c, auth, accounts, m, mr
}

func TestExists_NothingFound(t *testing.T) {
	c, auth, accounts, _, _ := newChecker(t, false)
	auth.On("FetchSignInMethods", mock.Anything, "professional.test@example.com").Return([]string{}, nil)
	accounts.On("ExistsByField", mock.Anything, domain.CollectionProfessionals, "email", "professional.test@example.com").Return(false, nil)

	exists, err := c.Exists(context.Background(), testEmail, domain.RoleProfessional)

	require.NoError(t, err)
	assert.False(t, exists)
	accounts.AssertExpectations(t)
}

func TestExists_DocumentWithoutSignInMethod(t *testing.T) {
	c, auth, accounts, _, _ := newChecker(t, false)
	auth.On("FetchSignInMethods", mock.Anything, mock.Anything).Return([]string{}, nil)
	accounts.On("ExistsByField", mock.Anything, domain.CollectionProfessionals, "email", "professional.test@example.com").Return(true, nil)

	exists, err := c.Exists(context.Background(), testEmail, domain.RoleProfessional)

	require.NoError(t, err)
	assert.True(t, exists)
}

func TestExists_SignInMethodShortCircuits(t *testing.T) {
	c, auth, accounts, _, _ := newChecker(t, false)
	auth.On("FetchSignInMethods", mock.Anything, "client.cpf.52998224725@beautypro.com").Return([]string{"password"}, nil)

	exists, err := c.Exists(context.Background(), domain.Identifier{Kind: domain.KindCPF, Raw: "529.982.247-25"}, domain.RoleClient)

	require.NoError(t, err)
	assert.True(t, exists)
	accounts.AssertNotCalled(t, "ExistsByField", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestExists_CPFQueriesDigits(t *testing.T) {
	c, auth, accounts, _, _ := newChecker(t, false)
	auth.On("FetchSignInMethods", mock.Anything, mock.Anything).Return([]string{}, nil)
	accounts.On("ExistsByField", mock.Anything, domain.CollectionClients, "cpf", "52998224725").Return(false, nil)

	_, err := c.Exists(context.Background(), domain.Identifier{Kind: domain.KindCPF, Raw: "529.982.247-25"}, domain.RoleClient)

	require.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestExists_ErrorIsNeverNotExists(t *testing.T) {
	c, auth, _, m, _ := newChecker(t, false)
	auth.On("FetchSignInMethods", mock.Anything, mock.Anything).Return([]string(nil), errors.New("timeout"))

	exists, err := c.Exists(context.Background(), testEmail, domain.RoleClient)

	assert.False(t, exists)
	assert.IsType(t, &apperror.InternalError{}, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DuplicateChecks.WithLabelValues("client", "email", metrics.ResultError)))
}

func TestExists_CachesAndInvalidates(t *testing.T) {
	c, auth, accounts, _, mr := newChecker(t, true)
	auth.On("FetchSignInMethods", mock.Anything, mock.Anything).Return([]string{}, nil)
	accounts.On("ExistsByField", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, nil)
	ctx := context.Background()

	_, err := c.Exists(ctx, testEmail, domain.RoleClient)
	require.NoError(t, err)
	_, err = c.Exists(ctx, testEmail, domain.RoleClient)
	require.NoError(t, err)

	auth.AssertNumberOfCalls(t, "FetchSignInMethods", 1)
	assert.Equal(t, 30*time.Second, mr.TTL("dupcheck:client:client.test@example.com"))

	c.Invalidate(ctx, domain.RoleClient, "client.test@example.com")
	_, err = c.Exists(ctx, testEmail, domain.RoleClient)
	require.NoError(t, err)
	auth.AssertNumberOfCalls(t, "FetchSignInMethods", 2)
}

func TestExists_CacheDownFallsThrough(t *testing.T) {
	c, auth, accounts, _, mr := newChecker(t, true)
	mr.Close()
	auth.On("FetchSignInMethods", mock.Anything, mock.Anything).Return([]string{}, nil)
	accounts.On("ExistsByField", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

	exists, err := c.Exists(context.Background(), testEmail, domain.RoleClient)

	require.NoError(t, err)
	assert.True(t, exists)
}
