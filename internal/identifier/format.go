package identifier

import (
	"strings"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
)

// DefaultDomain é o domínio sintético das chaves derivadas de CPF/CNPJ.
const DefaultDomain = "beautypro.com"

// Formatter deriva a Chave de Login Canônica a partir do par (identificador, papel).
// É o único lugar que conhece a convenção de apelidos de email.
type Formatter struct {
	Domain string
}

// NewFormatter cria um Formatter; domínio vazio usa DefaultDomain.
func NewFormatter(domain string) Formatter {
	if strings.TrimSpace(domain) == "" {
		domain = DefaultDomain
	}
	return Formatter{Domain: domain}
}

// LoginKey é pura e determinística. Para email é idempotente: reaplicar sobre uma
// chave já formatada não duplica o prefixo.
func (f Formatter) LoginKey(id domain.Identifier, role domain.Role) string {
	switch id.Kind {
	case domain.KindEmail:
		return string(role) + "." + StripRolePrefix(strings.TrimSpace(id.Raw))
	case domain.KindCPF, domain.KindCNPJ:
		return string(role) + "." + string(id.Kind) + "." + OnlyDigits(id.Raw) + "@" + f.domain()
	}
	return id.Raw
}

// Reserved informa se o email está no domínio sintético. Um email desses poderia
// coincidir com a chave de um CPF/CNPJ, então nunca é aceito como identificador.
func (f Formatter) Reserved(email string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+strings.ToLower(f.domain()))
}

// Validate aplica Validate e recusa emails no domínio sintético.
func (f Formatter) Validate(id domain.Identifier) error {
	if err := Validate(id); err != nil {
		return err
	}
	if id.Kind == domain.KindEmail && f.Reserved(id.Raw) {
		return apperror.NewValidationError("Este domínio de email é reservado.")
	}
	return nil
}

func (f Formatter) domain() string {
	if f.Domain == "" {
		return DefaultDomain
	}
	return f.Domain
}

var rolePrefixes = []string{string(domain.RoleProfessional) + ".", string(domain.RoleClient) + "."}

// StripRolePrefix remove um prefixo professional./client. da parte local do email.
func StripRolePrefix(email string) string {
	for _, p := range rolePrefixes {
		if strings.HasPrefix(email, p) {
			return email[len(p):]
		}
	}
	return email
}

// RoleFromLoginKey recupera o papel embutido na chave.
func RoleFromLoginKey(key string) (domain.Role, bool) {
	for _, p := range rolePrefixes {
		if strings.HasPrefix(key, p) {
			return domain.Role(strings.TrimSuffix(p, ".")), true
		}
	}
	return "", false
}

// Decode faz o caminho inverso de LoginKey: devolve o tipo e o valor a gravar no
// Registro de Conta (dígitos para cpf/cnpj, a própria chave para email).
func (f Formatter) Decode(key string) (domain.IdentifierKind, string) {
	suffix := "@" + f.domain()
	if role, ok := RoleFromLoginKey(key); ok && strings.HasSuffix(key, suffix) {
		local := strings.TrimSuffix(strings.TrimPrefix(key, string(role)+"."), suffix)
		for _, kind := range []domain.IdentifierKind{domain.KindCPF, domain.KindCNPJ} {
			digits, found := strings.CutPrefix(local, string(kind)+".")
			if found && digits != "" && OnlyDigits(digits) == digits {
				return kind, digits
			}
		}
	}
	return domain.KindEmail, key
}
