// Package identifier concentra as regras dos identificadores de login (email, CPF
// e CNPJ) e a derivação da Chave de Login Canônica usada no provedor de autenticação.
package identifier

import (
	"fmt"
	"regexp"
	"strings"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// OnlyDigits remove todos os caracteres não numéricos.
func OnlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsValidEmail valida apenas o formato local@dominio.tld, sem consulta de DNS.
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// IsValidCPF valida o tamanho, rejeita dígitos repetidos e confere os dois dígitos verificadores.
func IsValidCPF(cpf string) bool {
	d := OnlyDigits(cpf)
	if len(d) != 11 || allSame(d) {
		return false
	}
	return cpfCheckDigit(d[:9]) == d[9] && cpfCheckDigit(d[:10]) == d[10]
}

// cpfCheckDigit calcula o dígito seguinte a base, com pesos de len+1 até 2.
func cpfCheckDigit(base string) byte {
	sum := 0
	weight := len(base) + 1
	for i := 0; i < len(base); i++ {
		sum += int(base[i]-'0') * weight
		weight--
	}
	digit := 11 - sum%11
	if digit > 9 {
		digit = 0
	}
	return byte('0' + digit)
}

// IsValidCNPJ valida o tamanho, rejeita dígitos repetidos e confere os dois dígitos verificadores.
func IsValidCNPJ(cnpj string) bool {
	d := OnlyDigits(cnpj)
	if len(d) != 14 || allSame(d) {
		return false
	}
	return cnpjCheckDigit(d[:12]) == d[12] && cnpjCheckDigit(d[:13]) == d[13]
}

// cnpjCheckDigit usa pesos 2..9 repetidos, aplicados da direita para a esquerda.
func cnpjCheckDigit(base string) byte {
	sum := 0
	for k := 0; k < len(base); k++ {
		weight := 2 + k%8
		sum += int(base[len(base)-1-k]-'0') * weight
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// IsValid aplica o validador correspondente ao tipo do identificador.
func IsValid(id domain.Identifier) bool {
	switch id.Kind {
	case domain.KindEmail:
		return IsValidEmail(strings.TrimSpace(id.Raw))
	case domain.KindCPF:
		return IsValidCPF(id.Raw)
	case domain.KindCNPJ:
		return IsValidCNPJ(id.Raw)
	}
	return false
}

// Validate devolve um ValidationError com a mensagem de formulário quando o identificador é inválido.
func Validate(id domain.Identifier) error {
	if IsValid(id) {
		return nil
	}
	switch id.Kind {
	case domain.KindEmail:
		return apperror.NewValidationError("Email inválido.")
	case domain.KindCPF:
		return apperror.NewValidationError("CPF inválido.")
	case domain.KindCNPJ:
		return apperror.NewValidationError("CNPJ inválido.")
	}
	return apperror.NewValidationError(fmt.Sprintf("Tipo de identificador desconhecido: %q.", id.Kind))
}

// Canonical devolve o valor gravado nas colunas email/cpf/cnpj: dígitos para
// documentos, o email sem espaços nas bordas.
func Canonical(id domain.Identifier) string {
	if id.Kind == domain.KindEmail {
		return strings.TrimSpace(id.Raw)
	}
	return OnlyDigits(id.Raw)
}
