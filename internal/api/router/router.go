package router

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"beautypro/docs"
	"beautypro/internal/api/account"
	"beautypro/internal/api/auth"
	"beautypro/internal/api/session"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/metrics"
	"beautypro/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Auth    *auth.Handler
	Account *account.Handler
	Session *session.Handler
}

// Options configura os middlewares do roteador.
type Options struct {
	Verifier     middleware.TokenVerifier
	Cache        cache.Client
	RateLimit    int
	RateWindow   time.Duration
	CacheTimeout time.Duration
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	authMiddleware := middleware.NewAuthMiddleware(opts.Verifier)
	optionalAuth := middleware.NewOptionalAuthMiddleware(opts.Verifier)
	limit := middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RateWindow, opts.CacheTimeout, opts.Logger)
	limited := func(fn http.HandlerFunc) http.Handler { return limit(fn) }

	// --- 1. Health check, métricas e documentação ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /swagger/doc.json", docs.Handler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// --- 2. Identificadores e início do cadastro ---
	mux.Handle("POST /v1/identifiers/check", limited(h.Auth.CheckIdentifierHandler))
	mux.Handle("POST /v1/register", limited(h.Auth.RegisterHandler))

	// --- 3. Complemento do cadastro (exige sessão) ---
	mux.HandleFunc("GET /v1/register/draft", authMiddleware(h.Account.GetDraftHandler))
	mux.HandleFunc("POST /v1/register/professional", authMiddleware(h.Account.CompleteProfessionalHandler))
	mux.HandleFunc("POST /v1/register/client", authMiddleware(h.Account.CompleteClientHandler))
	mux.HandleFunc("GET /v1/accounts/me", authMiddleware(h.Account.MeHandler))

	// --- 4. Sessão ---
	mux.Handle("POST /v1/login", limited(h.Auth.LoginHandler))
	mux.HandleFunc("POST /v1/logout", authMiddleware(h.Auth.LogoutHandler))
	mux.HandleFunc("GET /v1/session", optionalAuth(h.Session.StateHandler))
	mux.HandleFunc("GET /v1/auth/google", h.Auth.GoogleBeginHandler)
	mux.HandleFunc("GET /v1/auth/google/callback", h.Auth.GoogleCallbackHandler)

	// --- 5. Senha ---
	mux.Handle("POST /v1/password/forgot", limited(h.Auth.ForgotPasswordHandler))
	mux.Handle("POST /v1/password/reset", limited(h.Auth.ResetPasswordHandler))

	return opts.Metrics.Middleware(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
