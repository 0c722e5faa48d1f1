package accountrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/pkg/logger"
)

// Campos pesquisáveis na verificação de duplicidade. Nomes de coluna nunca vêm do usuário.
var searchableFields = map[string]bool{
	"email": true,
	"cpf":   true,
	"cnpj":  true,
}

const commonColumns = `user_id, email, cpf, cnpj, name, whatsapp, city, state, display_name,
        photo_url, status, notifications, email_alerts, created_at, updated_at`

const professionalColumns = commonColumns + `, bio, specialties, custom_specialty, instagram,
        facebook, website, schedule`

// AccountRepository guarda os Registros de Conta nas tabelas professionals e clients.
type AccountRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewAccountRepository cria e retorna uma nova instância do Repositório de Contas.
func NewAccountRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *AccountRepository {
	return &AccountRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

func tableFor(collection domain.Collection) (string, error) {
	switch collection {
	case domain.CollectionProfessionals, domain.CollectionClients:
		return string(collection), nil
	}
	return "", apperror.NewInternalError(fmt.Sprintf("coleção desconhecida: %q", collection), nil)
}

// FindByID busca o Registro de Conta do usuário na coleção informada.
func (r *AccountRepository) FindByID(ctx context.Context, collection domain.Collection, uid string) (domain.Account, error) {
	table, err := tableFor(collection)
	if err != nil {
		return domain.Account{}, err
	}
	r.logger.Debug("Buscando registro de conta no repositório.", map[string]interface{}{"collection": table, "uid": uid})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	columns := commonColumns
	if collection == domain.CollectionProfessionals {
		columns = professionalColumns
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, columns, table)

	acc, err := scanAccount(r.DB.QueryRowContext(ctxTimeout, query, uid), collection)
	if errors.Is(err, sql.ErrNoRows) {
		r.logger.Info("Registro de conta não encontrado.", map[string]interface{}{"collection": table, "uid": uid})
		return domain.Account{}, apperror.NewNotFoundError(fmt.Sprintf("Registro de conta %s em %s não encontrado.", uid, table))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar registro de conta no DB.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao buscar registro de conta", err)
	}
	return acc, nil
}

// ExistsByField informa se algum registro da coleção tem field = value.
func (r *AccountRepository) ExistsByField(ctx context.Context, collection domain.Collection, field, value string) (bool, error) {
	table, err := tableFor(collection)
	if err != nil {
		return false, err
	}
	if !searchableFields[field] {
		return false, apperror.NewInternalError(fmt.Sprintf("campo não pesquisável: %q", field), nil)
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`, table, field)

	var exists bool
	if err := r.DB.QueryRowContext(ctxTimeout, query, value).Scan(&exists); err != nil {
		r.logger.Error("Falha ao consultar duplicidade no DB.", err)
		return false, apperror.NewDBError("Falha ao consultar duplicidade", err)
	}

	r.logger.Debug("Consulta de duplicidade concluída.", map[string]interface{}{"collection": table, "field": field, "exists": exists})
	return exists, nil
}

// CreateIfAbsent cria o registro somente se não existir outro com o mesmo user_id.
// A leitura e a escrita acontecem na mesma transação; um registro existente, ou
// criado por outra transação em paralelo, resulta em ConflictError.
func (r *AccountRepository) CreateIfAbsent(ctx context.Context, acc domain.Account) (domain.Account, error) {
	collection := acc.Role.Collection()
	table, err := tableFor(collection)
	if err != nil {
		return domain.Account{}, err
	}
	r.logger.Debug("Iniciando criação de registro de conta.", map[string]interface{}{"collection": table, "uid": acc.UserID})

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de criação de conta.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // Rollback em caso de erro

	// 1. Verifica, com bloqueio, se o registro já existe.
	var existing string
	err = tx.QueryRowContext(ctxTimeout,
		fmt.Sprintf(`SELECT user_id FROM %s WHERE user_id = $1 FOR UPDATE`, table), acc.UserID,
	).Scan(&existing)
	if err == nil {
		r.logger.Warn("Registro de conta já existe.", map[string]interface{}{"collection": table, "uid": acc.UserID})
		return domain.Account{}, apperror.NewConflictError("O cadastro desta conta já foi concluído.")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		r.logger.Error("Falha ao verificar registro de conta existente.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao verificar registro existente", err)
	}

	// 2. Insere. ON CONFLICT cobre a corrida em que outra transação inseriu antes do commit.
	now := time.Now().UTC()
	acc.Status = domain.StatusActive
	acc.CreatedAt = now
	acc.UpdatedAt = now

	query, args, err := insertStatement(table, acc)
	if err != nil {
		return domain.Account{}, apperror.NewInternalError("Falha ao serializar registro de conta", err)
	}
	result, err := tx.ExecContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao inserir registro de conta.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao inserir registro de conta", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		r.logger.Error("Falha ao verificar linhas afetadas após inserção de conta.", err)
		return domain.Account{}, apperror.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		r.logger.Warn("Registro de conta criado por outra operação concorrente.", map[string]interface{}{"collection": table, "uid": acc.UserID})
		return domain.Account{}, apperror.NewConflictError("O cadastro desta conta já foi concluído.")
	}

	// 3. Commitar a transação
	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de criação de conta.", commitErr)
		return domain.Account{}, apperror.NewDBError("Falha ao commitar transação", commitErr)
	}

	r.logger.Info("Registro de conta criado com sucesso.", map[string]interface{}{"collection": table, "uid": acc.UserID})
	return acc, nil
}

func insertStatement(table string, acc domain.Account) (string, []interface{}, error) {
	args := []interface{}{
		acc.UserID, nullString(acc.Email), nullString(acc.CPF), nullString(acc.CNPJ),
		acc.Name, acc.WhatsApp, acc.City, acc.State, acc.DisplayName, acc.PhotoURL,
		string(acc.Status), acc.Settings.Notifications, acc.Settings.EmailAlerts,
		acc.CreatedAt, acc.UpdatedAt,
	}
	columns := commonColumns

	if table == string(domain.CollectionProfessionals) {
		details := acc.Professional
		if details == nil {
			details = &domain.ProfessionalDetails{}
		}
		specialties, err := json.Marshal(nonNil(details.Specialties))
		if err != nil {
			return "", nil, err
		}
		schedule, err := json.Marshal(details.Schedule)
		if err != nil {
			return "", nil, err
		}
		args = append(args, details.Bio, string(specialties), details.CustomSpecialty,
			details.Instagram, details.Facebook, details.Website, string(schedule))
		columns = professionalColumns
	}

	placeholders := ""
	for i := range args {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (user_id) DO NOTHING`, table, columns, placeholders)
	return query, args, nil
}

func scanAccount(row *sql.Row, collection domain.Collection) (domain.Account, error) {
	var (
		acc                   domain.Account
		email, cpf, cnpj      sql.NullString
		status                string
		specialties, schedule string
		details               domain.ProfessionalDetails
	)
	dest := []interface{}{
		&acc.UserID, &email, &cpf, &cnpj, &acc.Name, &acc.WhatsApp, &acc.City, &acc.State,
		&acc.DisplayName, &acc.PhotoURL, &status, &acc.Settings.Notifications, &acc.Settings.EmailAlerts,
		&acc.CreatedAt, &acc.UpdatedAt,
	}
	if collection == domain.CollectionProfessionals {
		dest = append(dest, &details.Bio, &specialties, &details.CustomSpecialty,
			&details.Instagram, &details.Facebook, &details.Website, &schedule)
	}

	if err := row.Scan(dest...); err != nil {
		return domain.Account{}, err
	}

	acc.Email, acc.CPF, acc.CNPJ = email.String, cpf.String, cnpj.String
	acc.Status = domain.AccountStatus(status)
	acc.Role = domain.RoleClient
	if collection == domain.CollectionProfessionals {
		acc.Role = domain.RoleProfessional
		if err := json.Unmarshal([]byte(specialties), &details.Specialties); err != nil {
			return domain.Account{}, fmt.Errorf("specialties inválido: %w", err)
		}
		if err := json.Unmarshal([]byte(schedule), &details.Schedule); err != nil {
			return domain.Account{}, fmt.Errorf("schedule inválido: %w", err)
		}
		acc.Professional = &details
	}
	return acc, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
