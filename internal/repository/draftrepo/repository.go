package draftrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/logger"
)

// Define a chave dos rascunhos de cadastro.
const draftKey = "registration:draft:%s"

// DraftRepository guarda o rascunho de cadastro no Redis com TTL.
// O rascunho pode sumir a qualquer momento; ausência vira NotFound.
type DraftRepository struct {
	Cache        cache.Client
	CacheTimeout time.Duration
	TTL          time.Duration
	logger       logger.Logger
}

// NewDraftRepository cria o repositório de rascunhos.
func NewDraftRepository(client cache.Client, cacheTimeout, ttl time.Duration, logger logger.Logger) *DraftRepository {
	return &DraftRepository{
		Cache:        client,
		CacheTimeout: cacheTimeout,
		TTL:          ttl,
		logger:       logger,
	}
}

// Save grava (ou substitui) o rascunho do usuário.
func (r *DraftRepository) Save(ctx context.Context, draft domain.RegistrationDraft) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.CacheTimeout)
	defer cancel()

	data, err := json.Marshal(draft)
	if err != nil {
		return apperror.NewInternalError("Falha ao serializar rascunho de cadastro", err)
	}
	if err := r.Cache.Set(ctxTimeout, fmt.Sprintf(draftKey, draft.UID), data, r.TTL); err != nil {
		r.logger.Error("Falha ao gravar rascunho de cadastro no Redis.", err)
		return apperror.NewInternalError("Falha ao gravar rascunho de cadastro", err)
	}

	r.logger.Debug("Rascunho de cadastro gravado.", map[string]interface{}{"uid": draft.UID})
	return nil
}

// Get lê o rascunho do usuário.
func (r *DraftRepository) Get(ctx context.Context, uid string) (domain.RegistrationDraft, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.CacheTimeout)
	defer cancel()

	data, err := r.Cache.Get(ctxTimeout, fmt.Sprintf(draftKey, uid))
	if err == cache.ErrCacheMiss {
		return domain.RegistrationDraft{}, apperror.NewNotFoundError("Rascunho de cadastro não encontrado.")
	}
	if err != nil {
		r.logger.Error("Falha ao ler rascunho de cadastro do Redis.", err)
		return domain.RegistrationDraft{}, apperror.NewInternalError("Falha ao ler rascunho de cadastro", err)
	}

	var draft domain.RegistrationDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		// Rascunho corrompido equivale a ausente: o cliente recomeça o fluxo.
		r.logger.Warn("Rascunho de cadastro ilegível; descartando.", map[string]interface{}{"uid": uid})
		return domain.RegistrationDraft{}, apperror.NewNotFoundError("Rascunho de cadastro não encontrado.")
	}
	return draft, nil
}

// Delete remove o rascunho. Remover um rascunho inexistente não é erro.
func (r *DraftRepository) Delete(ctx context.Context, uid string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.CacheTimeout)
	defer cancel()

	if err := r.Cache.Delete(ctxTimeout, fmt.Sprintf(draftKey, uid)); err != nil {
		r.logger.Error("Falha ao remover rascunho de cadastro do Redis.", err)
		return apperror.NewInternalError("Falha ao remover rascunho de cadastro", err)
	}
	return nil
}
