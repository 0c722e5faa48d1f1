package identityservice

import (
	"strings"

	"beautypro/internal/domain"
	apperror "beautypro/internal/errors"
	"beautypro/internal/identifier"
)

func sanitizeClient(p domain.ClientProfile) domain.ClientProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.WhatsApp = identifier.OnlyDigits(p.WhatsApp)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	return p
}

func sanitizeProfessional(p domain.ProfessionalProfile) domain.ProfessionalProfile {
	p.Name = strings.TrimSpace(p.Name)
	p.WhatsApp = identifier.OnlyDigits(p.WhatsApp)
	p.City = strings.TrimSpace(p.City)
	p.State = strings.ToUpper(strings.TrimSpace(p.State))
	p.Bio = strings.TrimSpace(p.Bio)
	p.CustomSpecialty = strings.TrimSpace(p.CustomSpecialty)
	p.Instagram = strings.TrimSpace(p.Instagram)
	p.Facebook = strings.TrimSpace(p.Facebook)
	p.Website = strings.TrimSpace(p.Website)
	p.Specialties = dedupe(p.Specialties)
	return p
}

// dedupe remove repetidos e vazios mantendo a ordem de escolha.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func validateContact(name, whatsapp, state string) error {
	var problems []string
	if name == "" {
		problems = append(problems, "Nome é obrigatório")
	}
	if len(whatsapp) != 11 {
		problems = append(problems, "WhatsApp inválido")
	}
	if state != "" && !isUF(state) {
		problems = append(problems, "UF inválida")
	}
	if len(problems) > 0 {
		return apperror.NewValidationError(strings.Join(problems, "; "))
	}
	return nil
}

func isUF(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
