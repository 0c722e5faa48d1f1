package identityservice

import (
	"context"
	"fmt"
	"time"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/metrics"
)

// Define a chave de cache das verificações de duplicidade.
const dupCheckCacheKey = "dupcheck:%s:%s"

// SignInMethodFetcher é a parte do provedor de autenticação usada na verificação.
type SignInMethodFetcher interface {
	FetchSignInMethods(ctx context.Context, loginKey string) ([]string, error)
}

// AccountExistence consulta as coleções de contas por campo.
type AccountExistence interface {
	ExistsByField(ctx context.Context, collection domain.Collection, field, value string) (bool, error)
}

// DuplicateChecker decide se já existe conta para (identificador, papel).
// O resultado é só uma dica: a escrita protegida do registro é quem garante unicidade.
type DuplicateChecker struct {
	Auth         SignInMethodFetcher
	Accounts     AccountExistence
	Formatter    identifier.Formatter
	Cache        cache.Client
	CacheTTL     time.Duration
	CacheTimeout time.Duration
	Metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewDuplicateChecker cria o verificador. cacheClient pode ser nil (sem cache).
func NewDuplicateChecker(auth SignInMethodFetcher, accounts AccountExistence, formatter identifier.Formatter,
	cacheClient cache.Client, cacheTTL, cacheTimeout time.Duration, m *metrics.Metrics, log logger.Logger) *DuplicateChecker {
	if cacheTimeout <= 0 {
		cacheTimeout = 2 * time.Second
	}
	return &DuplicateChecker{
		Auth:         auth,
		Accounts:     accounts,
		Formatter:    formatter,
		Cache:        cacheClient,
		CacheTTL:     cacheTTL,
		CacheTimeout: cacheTimeout,
		Metrics:      m,
		logger:       log,
	}
}

// Exists consulta, nesta ordem, os métodos de login da chave e a coleção do papel.
// Para no primeiro resultado positivo. Qualquer falha vira InternalError e nunca
// é tratada como "não existe".
func (c *DuplicateChecker) Exists(ctx context.Context, id domain.Identifier, role domain.Role) (bool, error) {
	if !role.Valid() {
		return false, apperror.NewValidationError("Tipo de conta inválido.")
	}
	loginKey := c.Formatter.LoginKey(id, role)
	cacheKey := fmt.Sprintf(dupCheckCacheKey, role, loginKey)

	// 1. Cache (falhas são ignoradas)
	if hit, exists := c.cached(ctx, cacheKey); hit {
		c.Metrics.ObserveDuplicateCheck(string(role), string(id.Kind), resultLabel(exists))
		return exists, nil
	}

	exists, err := c.lookup(ctx, id, role, loginKey)
	if err != nil {
		c.Metrics.ObserveDuplicateCheck(string(role), string(id.Kind), metrics.ResultError)
		c.logger.Error("Falha na verificação de duplicidade.", err)
		return false, apperror.NewInternalError("Falha ao verificar cadastro existente.", err)
	}

	c.store(ctx, cacheKey, exists)
	c.Metrics.ObserveDuplicateCheck(string(role), string(id.Kind), resultLabel(exists))
	c.logger.Debug("Verificação de duplicidade concluída.", map[string]interface{}{
		"role":      string(role),
		"kind":      string(id.Kind),
		"login_key": logger.MaskEmail(loginKey),
		"exists":    exists,
	})
	return exists, nil
}

func (c *DuplicateChecker) lookup(ctx context.Context, id domain.Identifier, role domain.Role, loginKey string) (bool, error) {
	// 2. Métodos de login no provedor
	methods, err := c.Auth.FetchSignInMethods(ctx, loginKey)
	if err != nil {
		return false, err
	}
	if len(methods) > 0 {
		return true, nil
	}

	// 3. Coleção do papel. Email é comparado com a chave formatada, como é gravado.
	field, value := string(id.Kind), identifier.Canonical(id)
	if id.Kind == domain.KindEmail {
		value = loginKey
	}
	return c.Accounts.ExistsByField(ctx, role.Collection(), field, value)
}

// Invalidate descarta o resultado em cache da chave de login do papel.
func (c *DuplicateChecker) Invalidate(ctx context.Context, role domain.Role, loginKey string) {
	if c.Cache == nil {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, c.CacheTimeout)
	defer cancel()
	if err := c.Cache.Delete(cctx, fmt.Sprintf(dupCheckCacheKey, role, loginKey)); err != nil {
		c.logger.Warn("Falha ao invalidar cache de duplicidade.", map[string]interface{}{"error": err.Error()})
	}
}

func (c *DuplicateChecker) cached(ctx context.Context, key string) (hit bool, exists bool) {
	if c.Cache == nil {
		return false, false
	}
	cctx, cancel := context.WithTimeout(ctx, c.CacheTimeout)
	defer cancel()

	val, err := c.Cache.Get(cctx, key)
	if err != nil {
		if err != cache.ErrCacheMiss {
			c.logger.Warn("Falha ao ler cache de duplicidade; consultando a fonte.", map[string]interface{}{"error": err.Error()})
		}
		return false, false
	}
	switch val {
	case "1":
		return true, true
	case "0":
		return true, false
	}
	return false, false
}

func (c *DuplicateChecker) store(ctx context.Context, key string, exists bool) {
	if c.Cache == nil || c.CacheTTL <= 0 {
		return
	}
	cctx, cancel := context.WithTimeout(ctx, c.CacheTimeout)
	defer cancel()

	val := "0"
	if exists {
		val = "1"
	}
	if err := c.Cache.Set(cctx, key, val, c.CacheTTL); err != nil {
		c.logger.Warn("Falha ao gravar cache de duplicidade.", map[string]interface{}{"error": err.Error()})
	}
}

func resultLabel(exists bool) string {
	if exists {
		return metrics.ResultExists
	}
	return metrics.ResultAbsent
}
