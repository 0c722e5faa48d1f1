package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apisession "beautypro/internal/api/session"
	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/middleware"
	"beautypro/internal/pkg/rolecookie"
	"beautypro/internal/pkg/session"
	"beautypro/internal/service/sessionservice"
)

// fakeAccounts responde FindByID a partir de um mapa uid -> coleção.
type fakeAccounts map[string]domain.Collection

func (f fakeAccounts) FindByID(_ context.Context, collection domain.Collection, uid string) (domain.Account, error) {
	if c, ok := f[uid]; ok && c == collection {
		return domain.Account{UserID: uid}, nil
	}
	return domain.Account{}, apperror.NewNotFoundError("conta")
}

type fixture struct {
	store   *session.Store
	jar     *rolecookie.Jar
	tracker *sessionservice.Tracker
	handler *apisession.Handler
}

func newFixture(t *testing.T, accounts fakeAccounts) fixture {
	store := session.NewStore()
	resolver := sessionservice.NewResolver(accounts, logger.NewNop())
	tracker := sessionservice.NewTracker(store, resolver, time.Second, logger.NewNop())
	t.Cleanup(tracker.Close)
	jar := rolecookie.New("segredo-de-teste", false)
	return fixture{
		store:   store,
		jar:     jar,
		tracker: tracker,
		handler: apisession.NewHandler(store, resolver, tracker, jar, logger.NewNop()),
	}
}

// cookieRequest devolve uma requisição com o cookie de papel/sessão gravado.
func (f fixture) cookieRequest(t *testing.T, target string, role domain.Role, sid string) *http.Request {
	t.Helper()
	rr := httptest.NewRecorder()
	require.NoError(t, f.jar.Remember(rr, httptest.NewRequest(http.MethodGet, "/", nil), role, sid))
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) domain.Resolution {
	t.Helper()
	require.Equal(t, http.StatusOK, rr.Code)
	var res domain.Resolution
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	return res
}

func TestStateHandler_NoSession(t *testing.T) {
	f := newFixture(t, fakeAccounts{})

	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	res := decode(t, rr)
	assert.Equal(t, domain.StateUnauthenticated, res.State)
	assert.Equal(t, "/login", res.Target)
}

func TestStateHandler_ClaimsWithRecord(t *testing.T) {
	f := newFixture(t, fakeAccounts{"uid-1": domain.CollectionProfessionals})

	req := httptest.NewRequest(http.MethodGet, "/v1/session?role=professional", nil)
	req = req.WithContext(middleware.WithSessionClaims(req.Context(), middleware.SessionClaims{UID: "uid-1", SessionID: "sid-1"}))
	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	res := decode(t, rr)
	assert.Equal(t, domain.StateAuthenticatedComplete, res.State)
	assert.Equal(t, "/dashboard/professional", res.Target)
}

func TestStateHandler_WaitsForFederatedSession(t *testing.T) {
	f := newFixture(t, fakeAccounts{})
	req := f.cookieRequest(t, "/v1/session?wait=2s", domain.RoleClient, "sid-pendente")

	go func() {
		time.Sleep(20 * time.Millisecond)
		f.store.Publish(session.Event{Type: session.EventSignedIn, Session: domain.Session{ID: "sid-pendente", UID: "uid-2", LoginKey: "maria@gmail.com"}})
	}()

	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	res := decode(t, rr)
	assert.Equal(t, domain.StateAuthenticatedIncomplete, res.State)
	assert.Equal(t, "/cadastro/cliente", res.Target)
}

func TestStateHandler_WaitTimesOutAsUnauthenticated(t *testing.T) {
	f := newFixture(t, fakeAccounts{})
	req := f.cookieRequest(t, "/v1/session?wait=20ms", domain.RoleClient, "sid-nunca")

	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	assert.Equal(t, domain.StateUnauthenticated, decode(t, rr).State)
}

func TestStateHandler_InvalidWait(t *testing.T) {
	f := newFixture(t, fakeAccounts{})
	req := f.cookieRequest(t, "/v1/session?wait=logo", domain.RoleClient, "sid-1")

	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStateHandler_UnknownRole(t *testing.T) {
	f := newFixture(t, fakeAccounts{})

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req = req.WithContext(middleware.WithSessionClaims(req.Context(), middleware.SessionClaims{UID: "uid-3", SessionID: "sid-3", LoginKey: "ana@gmail.com"}))
	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestStateHandler_UsesTrackedRole(t *testing.T) {
	f := newFixture(t, fakeAccounts{"uid-4": domain.CollectionClients})
	sess := domain.Session{ID: "sid-4", UID: "uid-4", LoginKey: "ana@gmail.com"}
	f.store.Publish(session.Event{Type: session.EventSignedIn, Session: sess})
	f.store.Publish(session.Event{Type: session.EventRegistered, Session: sess, Role: domain.RoleClient})

	req := httptest.NewRequest(http.MethodGet, "/v1/session", nil)
	req = req.WithContext(middleware.WithSessionClaims(req.Context(), middleware.SessionClaims{UID: "uid-4", SessionID: "sid-4", LoginKey: "ana@gmail.com"}))
	rr := httptest.NewRecorder()
	f.handler.StateHandler(rr, req)

	res := decode(t, rr)
	assert.Equal(t, domain.StateAuthenticatedComplete, res.State)
	assert.Equal(t, "/dashboard/client", res.Target)
}
