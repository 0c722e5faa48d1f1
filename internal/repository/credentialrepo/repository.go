package credentialrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
)

// uniqueViolation é o código SQLSTATE do PostgreSQL para violação de unicidade.
const uniqueViolation = "23505"

const credentialColumns = `uid, login_key, password_hash, provider, COALESCE(federated_subject, ''),
        display_name, photo_url, created_at, updated_at`

// CredentialRepository guarda as credenciais do provedor de autenticação.
type CredentialRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewCredentialRepository cria uma nova instância do CredentialRepository, injetando o DB.
func NewCredentialRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *CredentialRepository {
	return &CredentialRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// Create insere uma nova credencial. Uma chave de login já usada vira
// ProviderError email-already-in-use.
func (r *CredentialRepository) Create(ctx context.Context, cred domain.Credential) (domain.Credential, error) {
	r.logger.Debug("Iniciando Create de credencial no repositório.", map[string]interface{}{"login_key": logger.MaskEmail(cred.LoginKey)})

	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	// 2. Prepara dados e ID
	cred.UID = uuid.NewString()
	cred.CreatedAt = time.Now().UTC()
	cred.UpdatedAt = cred.CreatedAt

	var subject sql.NullString
	if cred.FederatedSubject != "" {
		subject = sql.NullString{String: cred.FederatedSubject, Valid: true}
	}

	// 3. Executa o INSERT
	query := `INSERT INTO credentials (uid, login_key, password_hash, provider, federated_subject,
        display_name, photo_url, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.ExecContext(ctxTimeout, query,
		cred.UID, cred.LoginKey, cred.PasswordHash, cred.Provider, subject,
		cred.DisplayName, cred.PhotoURL, cred.CreatedAt, cred.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			r.logger.Info("Chave de login já cadastrada.", map[string]interface{}{"login_key": logger.MaskEmail(cred.LoginKey)})
			return domain.Credential{}, apperror.NewProviderError(apperror.CodeEmailAlreadyInUse, err)
		}
		r.logger.Error("Falha ao inserir credencial no DB.", err)
		return domain.Credential{}, apperror.NewDBError("Falha ao inserir credencial", err)
	}

	r.logger.Info("Credencial salva com sucesso no repositório.", map[string]interface{}{"uid": cred.UID})
	return cred, nil
}

// FindByLoginKey busca uma credencial pela chave de login canônica.
func (r *CredentialRepository) FindByLoginKey(ctx context.Context, loginKey string) (domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE login_key = $1`
	return r.findOne(ctx, "login_key", query, loginKey)
}

// FindByFederatedSubject busca a credencial vinculada ao usuário do provedor federado.
func (r *CredentialRepository) FindByFederatedSubject(ctx context.Context, provider domain.SignInProvider, subject string) (domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE provider = $1 AND federated_subject = $2`
	return r.findOne(ctx, "federated_subject", query, provider, subject)
}

// FindByUID busca a credencial pelo UID.
func (r *CredentialRepository) FindByUID(ctx context.Context, uid string) (domain.Credential, error) {
	query := `SELECT ` + credentialColumns + ` FROM credentials WHERE uid = $1`
	return r.findOne(ctx, "uid", query, uid)
}

func (r *CredentialRepository) findOne(ctx context.Context, by string, query string, args ...interface{}) (domain.Credential, error) {
	// 1. Configura Contexto com Timeout
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	r.logger.Debug("Executando busca de credencial.", map[string]interface{}{"by": by})

	// 2. Executa a busca e mapeia o resultado
	var cred domain.Credential
	err := r.DB.QueryRowContext(ctxTimeout, query, args...).Scan(
		&cred.UID,
		&cred.LoginKey,
		&cred.PasswordHash,
		&cred.Provider,
		&cred.FederatedSubject,
		&cred.DisplayName,
		&cred.PhotoURL,
		&cred.CreatedAt,
		&cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Info("Credencial não encontrada.", map[string]interface{}{"by": by})
			return domain.Credential{}, apperror.NewNotFoundError("Credencial não encontrada")
		}
		r.logger.Error("Falha ao buscar credencial no DB.", err)
		return domain.Credential{}, apperror.NewDBError("Falha ao buscar credencial", err)
	}

	return cred, nil
}

// UpdatePasswordHash troca o hash da senha de uma credencial existente.
func (r *CredentialRepository) UpdatePasswordHash(ctx context.Context, uid, passwordHash string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	result, err := r.DB.ExecContext(ctxTimeout,
		`UPDATE credentials SET password_hash = $1, updated_at = $2 WHERE uid = $3`,
		passwordHash, time.Now().UTC(), uid,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar senha no DB.", err)
		return apperror.NewDBError("Falha ao atualizar senha", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return apperror.NewNotFoundError("Credencial não encontrada")
	}

	r.logger.Info("Senha atualizada.", map[string]interface{}{"uid": uid})
	return nil
}
