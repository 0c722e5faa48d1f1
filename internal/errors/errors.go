package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError é a interface central para todos os erros customizados do BeautyPro.
// Ela permite que o código externo (Handler) acesse a Categoria e a Mensagem do erro.
type AppError interface {
	Error() string    // Implementa a interface error padrão do Go
	Category() string // Categoria do erro (e.g., "VALIDATION", "NOT_FOUND", "INTERNAL")
	HTTPStatus() int  // Código HTTP sugerido para o Handler
	Unwrap() error    // Permite encapsular erros subjacentes (original error)
}

// --- Tipos de Erro Específicos (Erros de Domínio) ---

// ValidationError representa falhas de validação de dados de entrada.
// Nunca é repetido automaticamente e não envolve colaboradores externos.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string    { return fmt.Sprintf("Erro de Validação: %s", e.Msg) }
func (e *ValidationError) Category() string { return "VALIDATION_ERROR" }
func (e *ValidationError) HTTPStatus() int  { return http.StatusBadRequest } // 400
func (e *ValidationError) Unwrap() error    { return nil }                   // Não encapsula erro subjacente

// NewValidationError cria um novo erro de validação.
func NewValidationError(msg string) AppError {
	return &ValidationError{Msg: msg}
}

// NotFoundError representa a ausência de um recurso solicitado.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string    { return fmt.Sprintf("Recurso não encontrado: %s", e.Msg) }
func (e *NotFoundError) Category() string { return "NOT_FOUND" }
func (e *NotFoundError) HTTPStatus() int  { return http.StatusNotFound } // 404
func (e *NotFoundError) Unwrap() error    { return nil }

// NewNotFoundError cria um novo erro de recurso não encontrado.
func NewNotFoundError(msg string) AppError {
	return &NotFoundError{Msg: msg}
}

// ConflictError representa um conflito na regra de negócio: o Registro de Conta já
// existia no momento da escrita ou outra submissão do mesmo usuário está em curso.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string    { return fmt.Sprintf("Conflito de estado: %s", e.Msg) }
func (e *ConflictError) Category() string { return "CONFLICT" }
func (e *ConflictError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *ConflictError) Unwrap() error    { return nil }

// NewConflictError cria um novo erro de conflito.
func NewConflictError(msg string) AppError {
	return &ConflictError{Msg: msg}
}

// UnauthorizedError representa ausência ou invalidade de sessão.
type UnauthorizedError struct {
	Msg string
}

func (e *UnauthorizedError) Error() string    { return fmt.Sprintf("Não autorizado: %s", e.Msg) }
func (e *UnauthorizedError) Category() string { return "UNAUTHORIZED" }
func (e *UnauthorizedError) HTTPStatus() int  { return http.StatusUnauthorized } // 401
func (e *UnauthorizedError) Unwrap() error    { return nil }

// NewUnauthorizedError cria um novo erro de autorização.
func NewUnauthorizedError(msg string) AppError {
	return &UnauthorizedError{Msg: msg}
}

// DuplicateAccountError não é bem uma falha: a conta já existe e o usuário deve ser
// guiado para o login do papel correspondente.
type DuplicateAccountError struct {
	Role     string
	LoginURL string
}

func (e *DuplicateAccountError) Error() string {
	if e.Role == "professional" {
		return "Identificamos que você já possui uma conta profissional no BeautyPro."
	}
	return "Identificamos que você já possui uma conta de cliente no BeautyPro."
}
func (e *DuplicateAccountError) Category() string { return "DUPLICATE_ACCOUNT" }
func (e *DuplicateAccountError) HTTPStatus() int  { return http.StatusConflict } // 409
func (e *DuplicateAccountError) Unwrap() error    { return nil }

// NewDuplicateAccountError cria o aviso de conta existente com a rota de login sugerida.
func NewDuplicateAccountError(role, loginURL string) AppError {
	return &DuplicateAccountError{Role: role, LoginURL: loginURL}
}

// --- Erros do Provedor de Autenticação ---

// Códigos do provedor. A lista é fechada: qualquer outra falha vira InternalError.
const (
	CodeEmailAlreadyInUse    = "email-already-in-use"
	CodeInvalidEmail         = "invalid-email"
	CodeWeakPassword         = "weak-password"
	CodeTooManyRequests      = "too-many-requests"
	CodeUserNotFound         = "user-not-found"
	CodeWrongPassword        = "wrong-password"
	CodeNetworkRequestFailed = "network-request-failed"
)

var providerMessages = map[string]struct {
	status int
	msg    string
}{
	CodeEmailAlreadyInUse:    {http.StatusConflict, "Este identificador já está em uso."},
	CodeInvalidEmail:         {http.StatusBadRequest, "Email inválido."},
	CodeWeakPassword:         {http.StatusBadRequest, "A senha deve ter pelo menos 6 caracteres."},
	CodeTooManyRequests:      {http.StatusTooManyRequests, "Muitas tentativas. Tente novamente mais tarde."},
	CodeUserNotFound:         {http.StatusNotFound, "Conta não encontrada."},
	CodeWrongPassword:        {http.StatusUnauthorized, "Credenciais inválidas."},
	CodeNetworkRequestFailed: {http.StatusServiceUnavailable, "Falha de comunicação. Tente novamente."},
}

// ProviderError é uma falha conhecida do provedor de autenticação, já traduzida para
// uma mensagem fixa de usuário.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if m, ok := providerMessages[e.Code]; ok {
		return m.msg
	}
	return "Erro ao processar autenticação. Tente novamente."
}
func (e *ProviderError) Category() string { return "PROVIDER_ERROR" }
func (e *ProviderError) HTTPStatus() int {
	if m, ok := providerMessages[e.Code]; ok {
		return m.status
	}
	return http.StatusBadGateway
}
func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError cria um erro do provedor com o código informado.
func NewProviderError(code string, err error) AppError {
	return &ProviderError{Code: code, Err: err}
}

// IsProviderCode informa se err é um ProviderError com o código dado.
func IsProviderCode(err error, code string) bool {
	var pe *ProviderError
	return stderrors.As(err, &pe) && pe.Code == code
}

// --- Tipos de Erro de Infraestrutura (Encapsulamento) ---

// InternalError representa falhas inesperadas no servidor, serviço ou repositório.
type InternalError struct {
	Msg string
	Err error // Erro original subjacente (e.g., erro do driver SQL)
}

func (e *InternalError) Error() string    { return fmt.Sprintf("Erro Interno: %s", e.Msg) }
func (e *InternalError) Category() string { return "INTERNAL_ERROR" }
func (e *InternalError) HTTPStatus() int  { return http.StatusInternalServerError } // 500
func (e *InternalError) Unwrap() error    { return e.Err }

// NewInternalError cria um erro de servidor (para falhas de lógica ou código não esperado).
func NewInternalError(msg string, err error) AppError {
	return &InternalError{Msg: msg, Err: err}
}

// NewDBError é um atalho para criar um InternalError específico de falhas no DB.
// A causa fica só no Unwrap, para nunca vazar texto do driver ao usuário.
func NewDBError(msg string, err error) AppError {
	return NewInternalError(fmt.Sprintf("%s (DB)", msg), err)
}

// --- Helper para o Handler (Tradução Final) ---

const genericInternalMessage = "Ocorreu um erro inesperado. Tente novamente."

// MapToHTTPStatus recebe um erro e o traduz para o código HTTP e corpo de resposta.
// Erros internos sempre saem com a mensagem genérica.
func MapToHTTPStatus(err error) (int, string, string) {
	var appErr AppError
	if stderrors.As(err, &appErr) {
		if _, internal := appErr.(*InternalError); internal {
			return appErr.HTTPStatus(), appErr.Category(), genericInternalMessage
		}
		return appErr.HTTPStatus(), appErr.Category(), appErr.Error()
	}

	// Erro não tipado (e.g., erro simples de pacote Go que não implementa AppError)
	// Tratar como erro interno genérico.
	return http.StatusInternalServerError, "UNKNOWN_ERROR", genericInternalMessage
}

// RedirectHint devolve a rota sugerida ao cliente, quando o erro carrega uma.
func RedirectHint(err error) string {
	var dup *DuplicateAccountError
	if stderrors.As(err, &dup) {
		return dup.LoginURL
	}
	return ""
}
