package sessionservice

import (
	"context"
	"errors"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
)

// AccountFinder consulta o Registro de Conta do usuário.
type AccountFinder interface {
	FindByID(ctx context.Context, collection domain.Collection, uid string) (domain.Account, error)
}

// Resolver decide para onde o usuário deve ir a partir da sessão e do papel declarado.
type Resolver struct {
	Accounts AccountFinder
	logger   logger.Logger
}

// NewResolver cria o resolvedor de sessão/papel.
func NewResolver(accounts AccountFinder, log logger.Logger) *Resolver {
	return &Resolver{Accounts: accounts, logger: log}
}

// Resolve devolve o estado e a rota de destino. Falhas de consulta são propagadas
// e nunca tratadas como cadastro incompleto.
func (r *Resolver) Resolve(ctx context.Context, sess *domain.Session, role domain.Role) (domain.Resolution, error) {
	if sess == nil || sess.UID == "" {
		return domain.Resolution{State: domain.StateUnauthenticated, Target: "/login"}, nil
	}
	if !role.Valid() {
		return domain.Resolution{}, apperror.NewValidationError("Tipo de conta desconhecido.")
	}

	_, err := r.Accounts.FindByID(ctx, role.Collection(), sess.UID)
	if err != nil {
		var notFoundErr *apperror.NotFoundError
		if errors.As(err, &notFoundErr) {
			return domain.Resolution{
				State:  domain.StateAuthenticatedIncomplete,
				Role:   role,
				Target: role.CompletionPath(),
			}, nil
		}
		r.logger.Error("Falha ao resolver estado da sessão.", err)
		return domain.Resolution{}, err
	}

	return domain.Resolution{
		State:  domain.StateAuthenticatedComplete,
		Role:   role,
		Target: role.DashboardPath(),
	}, nil
}
