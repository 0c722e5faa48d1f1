package rolecookie_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beautypro/internal/domain"
	"beautypro/internal/pkg/rolecookie"
)

// roundTrip copia os cookies gravados na resposta para uma nova requisição.
func roundTrip(rr *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestJar_RoleAndSessionID(t *testing.T) {
	jar := rolecookie.New("segredo-de-teste", false)

	rr := httptest.NewRecorder()
	require.NoError(t, jar.SetRole(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.RoleProfessional))

	req := roundTrip(rr)
	role, ok := jar.Role(req)
	require.True(t, ok)
	assert.Equal(t, domain.RoleProfessional, role)

	rr = httptest.NewRecorder()
	require.NoError(t, jar.SetSessionID(rr, req, "sid-1"))
	req = roundTrip(rr)
	assert.Equal(t, "sid-1", jar.SessionID(req))

	role, ok = jar.Role(req)
	require.True(t, ok)
	assert.Equal(t, domain.RoleProfessional, role)

	rr = httptest.NewRecorder()
	require.NoError(t, jar.Clear(rr, req))
	req = roundTrip(rr)
	assert.Empty(t, jar.SessionID(req))
	_, ok = jar.Role(req)
	assert.True(t, ok)
}

func TestJar_ForeignSignatureIgnored(t *testing.T) {
	rr := httptest.NewRecorder()
	require.NoError(t, rolecookie.New("a", false).SetRole(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.RoleClient))

	_, ok := rolecookie.New("b", false).Role(roundTrip(rr))

	assert.False(t, ok)
}

func TestJar_RememberWritesBothKeys(t *testing.T) {
	jar := rolecookie.New("segredo-de-teste", false)

	rr := httptest.NewRecorder()
	require.NoError(t, jar.Remember(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.RoleClient, "sid-9"))
	require.Len(t, rr.Result().Cookies(), 1)

	req := roundTrip(rr)
	role, ok := jar.Role(req)
	require.True(t, ok)
	assert.Equal(t, domain.RoleClient, role)
	assert.Equal(t, "sid-9", jar.SessionID(req))
}
