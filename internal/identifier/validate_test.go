package identifier

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
)

func randomDigits(r *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + r.Intn(10)))
	}
	return b.String()
}

func validCPF(r *rand.Rand) string {
	for {
		base := randomDigits(r, 9)
		if allSame(base) {
			continue
		}
		d := base + string(cpfCheckDigit(base))
		return d + string(cpfCheckDigit(d))
	}
}

func validCNPJ(r *rand.Rand) string {
	for {
		base := randomDigits(r, 12)
		if allSame(base) {
			continue
		}
		d := base + string(cnpjCheckDigit(base))
		return d + string(cnpjCheckDigit(d))
	}
}

func flip(d string, pos int) string {
	b := []byte(d)
	b[pos] = byte('0' + (int(b[pos]-'0')+1)%10)
	return string(b)
}

func TestIsValidCPF_KnownValues(t *testing.T) {
	assert.True(t, IsValidCPF("529.982.247-25"))
	assert.True(t, IsValidCPF("52998224725"))
	assert.False(t, IsValidCPF("529.982.247-24"))
	assert.False(t, IsValidCPF("111.111.111-11"))
	assert.False(t, IsValidCPF(""))
	assert.False(t, IsValidCPF("5299822472"))
	assert.False(t, IsValidCPF("529982247250"))
}

func TestIsValidCPF_RepeatedDigitsRejected(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		cpf := strings.Repeat(string(d), 11)
		assert.False(t, IsValidCPF(cpf), cpf)
	}
}

func TestIsValidCPF_GeneratedAndFlipped(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		cpf := validCPF(r)
		assert.True(t, IsValidCPF(cpf), cpf)
		assert.False(t, IsValidCPF(flip(cpf, 9)), "primeiro dígito alterado: %s", cpf)
		assert.False(t, IsValidCPF(flip(cpf, 10)), "segundo dígito alterado: %s", cpf)
	}
}

func TestIsValidCNPJ_KnownValues(t *testing.T) {
	assert.True(t, IsValidCNPJ("11.222.333/0001-81"))
	assert.False(t, IsValidCNPJ("11.222.333/0001-80"))
	assert.False(t, IsValidCNPJ("00.000.000/0000-00"))
	assert.False(t, IsValidCNPJ(""))
	assert.False(t, IsValidCNPJ("1122233300018"))
}

func TestIsValidCNPJ_RepeatedDigitsRejected(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		cnpj := strings.Repeat(string(d), 14)
		assert.False(t, IsValidCNPJ(cnpj), cnpj)
	}
}

func TestIsValidCNPJ_GeneratedAndFlipped(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		cnpj := validCNPJ(r)
		assert.True(t, IsValidCNPJ(cnpj), cnpj)
		assert.False(t, IsValidCNPJ(flip(cnpj, 12)), "primeiro dígito alterado: %s", cnpj)
		assert.False(t, IsValidCNPJ(flip(cnpj, 13)), "segundo dígito alterado: %s", cnpj)
	}
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("test@example.com"))
	assert.True(t, IsValidEmail("professional.maria@salao.com.br"))
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("test@example"))
	assert.False(t, IsValidEmail("te st@example.com"))
	assert.False(t, IsValidEmail("@example.com"))
	assert.False(t, IsValidEmail("a@@b.com"))
}

func TestValidate_MessagesPerKind(t *testing.T) {
	err := Validate(domain.Identifier{Kind: domain.KindCPF, Raw: "111.111.111-11"})
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Contains(t, err.Error(), "CPF inválido")

	err = Validate(domain.Identifier{Kind: domain.KindCNPJ, Raw: "123"})
	assert.Contains(t, err.Error(), "CNPJ inválido")

	err = Validate(domain.Identifier{Kind: "telefone", Raw: "11999999999"})
	assert.IsType(t, &apperror.ValidationError{}, err)

	assert.NoError(t, Validate(domain.Identifier{Kind: domain.KindEmail, Raw: " test@example.com "}))
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "52998224725", Canonical(domain.Identifier{Kind: domain.KindCPF, Raw: "529.982.247-25"}))
	assert.Equal(t, "11222333000181", Canonical(domain.Identifier{Kind: domain.KindCNPJ, Raw: "11.222.333/0001-81"}))
	assert.Equal(t, "a@b.com", Canonical(domain.Identifier{Kind: domain.KindEmail, Raw: " a@b.com"}))
}
