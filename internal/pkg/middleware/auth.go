package middleware

import (
	"context"
	"net/http"
	"strings"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/token"
)

// ContextKey é o tipo das chaves de contexto deste pacote.
// Context Keys devem ser não-exportadas e de um tipo único para não colidirem.
type ContextKey int

const (
	SessionClaimsKey ContextKey = iota
)

// SessionClaims representa a sessão extraída do ID token e anexada ao contexto.
type SessionClaims struct {
	UID       string
	LoginKey  string
	SessionID string
	Role      domain.Role // Dica derivada da chave de login; pode estar vazia.
	Provider  domain.SignInProvider
}

// Session converte as claims na sessão de domínio usada pelos serviços.
func (c SessionClaims) Session() domain.Session {
	return domain.Session{ID: c.SessionID, UID: c.UID, LoginKey: c.LoginKey, Provider: c.Provider}
}

// TokenVerifier define o contrato de validação necessário para o middleware.
// A verificação inclui conferir se a sessão do token ainda está ativa.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*token.CustomClaims, error)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") || len(authHeader) <= len("Bearer ") {
		return "", false
	}
	return authHeader[len("Bearer "):], true
}

func toSessionClaims(c *token.CustomClaims) SessionClaims {
	role, _ := domain.ParseRole(c.Role)
	return SessionClaims{
		UID:       c.UID,
		LoginKey:  c.LoginKey,
		SessionID: c.SessionID,
		Role:      role,
		Provider:  domain.SignInProvider(c.Provider),
	}
}

// NewAuthMiddleware exige um ID token válido e anexa as claims ao contexto.
func NewAuthMiddleware(verifier TokenVerifier) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// 1. Extrair o Token do Header Authorization: Bearer <token>
			tokenString, ok := bearerToken(r)
			if !ok {
				writeError(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado."))
				return
			}

			// 2. Validar o Token e a sessão
			claims, err := verifier.VerifyIDToken(r.Context(), tokenString)
			if err != nil {
				writeError(w, apperror.NewUnauthorizedError("Sessão inválida ou expirada."))
				return
			}

			// 3. Anexar Claims ao Contexto
			next.ServeHTTP(w, r.WithContext(WithSessionClaims(r.Context(), toSessionClaims(claims))))
		}
	}
}

// NewOptionalAuthMiddleware anexa as claims quando há token válido e segue em frente
// em qualquer caso. Usado onde "sem sessão" é uma resposta legítima.
func NewOptionalAuthMiddleware(verifier TokenVerifier) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if tokenString, ok := bearerToken(r); ok {
				if claims, err := verifier.VerifyIDToken(r.Context(), tokenString); err == nil {
					r = r.WithContext(WithSessionClaims(r.Context(), toSessionClaims(claims)))
				}
			}
			next.ServeHTTP(w, r)
		}
	}
}

// WithSessionClaims devolve um contexto com as claims anexadas.
func WithSessionClaims(ctx context.Context, claims SessionClaims) context.Context {
	return context.WithValue(ctx, SessionClaimsKey, claims)
}

// GetSessionClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetSessionClaimsFromContext(ctx context.Context) (SessionClaims, bool) {
	claims, ok := ctx.Value(SessionClaimsKey).(SessionClaims)
	return claims, ok
}
