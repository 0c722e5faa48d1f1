package domain

import "strings"

// Role é o tipo de conta declarado pelo usuário no cadastro.
// Uma mesma pessoa pode ter uma conta de cada papel com o mesmo identificador.
type Role string

const (
	RoleProfessional Role = "professional"
	RoleClient       Role = "client"
)

// ParseRole converte a string recebida da API em um Role conhecido.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleProfessional:
		return RoleProfessional, true
	case RoleClient:
		return RoleClient, true
	}
	return "", false
}

// Valid indica se o papel é um dos dois suportados.
func (r Role) Valid() bool {
	return r == RoleProfessional || r == RoleClient
}

// Collection retorna a coleção (tabela) onde ficam os registros deste papel.
func (r Role) Collection() Collection {
	if r == RoleProfessional {
		return CollectionProfessionals
	}
	return CollectionClients
}

// CompletionPath é a rota do formulário de complemento de cadastro.
func (r Role) CompletionPath() string {
	if r == RoleProfessional {
		return "/cadastro/professional"
	}
	return "/cadastro/cliente"
}

// DashboardPath é a rota do painel do papel.
func (r Role) DashboardPath() string {
	return "/dashboard/" + string(r)
}

// LoginPath é a rota de login, com o papel como dica para o formulário.
func (r Role) LoginPath() string {
	if !r.Valid() {
		return "/login"
	}
	return "/login?tipo=" + string(r)
}

// Collection identifica uma das duas coleções disjuntas de contas.
type Collection string

const (
	CollectionProfessionals Collection = "professionals"
	CollectionClients       Collection = "clients"
)

// IdentifierKind é o tipo do identificador usado no login.
type IdentifierKind string

const (
	KindEmail IdentifierKind = "email"
	KindCPF   IdentifierKind = "cpf"
	KindCNPJ  IdentifierKind = "cnpj"
)

// ParseIdentifierKind converte a string recebida da API em um IdentifierKind.
func ParseIdentifierKind(s string) (IdentifierKind, bool) {
	switch IdentifierKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindEmail:
		return KindEmail, true
	case KindCPF:
		return KindCPF, true
	case KindCNPJ:
		return KindCNPJ, true
	}
	return "", false
}

// Identifier é o identificador bruto digitado pelo usuário, com seu tipo.
type Identifier struct {
	Kind IdentifierKind `json:"kind"`
	Raw  string         `json:"identifier"`
}
