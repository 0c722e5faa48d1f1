package domain

import "time"

// AccountStatus representa o estado do registro de conta.
type AccountStatus string

const (
	StatusActive AccountStatus = "active"
)

// DaySchedule é a disponibilidade de um dia da semana do profissional.
type DaySchedule struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Schedule agrupa os sete dias da semana, com as chaves em português como no app.
type Schedule struct {
	Segunda DaySchedule `json:"segunda"`
	Terca   DaySchedule `json:"terca"`
	Quarta  DaySchedule `json:"quarta"`
	Quinta  DaySchedule `json:"quinta"`
	Sexta   DaySchedule `json:"sexta"`
	Sabado  DaySchedule `json:"sabado"`
	Domingo DaySchedule `json:"domingo"`
}

// AccountSettings são as preferências criadas junto com o registro.
type AccountSettings struct {
	Notifications bool `json:"notifications"`
	EmailAlerts   bool `json:"email_alerts"`
}

// Account é o Registro de Conta, guardado em professionals ou clients
// e chaveado pelo UID emitido pelo provedor de autenticação.
type Account struct {
	UserID      string          `json:"user_id"`
	Role        Role            `json:"role"`
	Email       string          `json:"email,omitempty"`
	CPF         string          `json:"cpf,omitempty"`
	CNPJ        string          `json:"cnpj,omitempty"`
	Name        string          `json:"name"`
	WhatsApp    string          `json:"whatsapp"`
	City        string          `json:"city,omitempty"`
	State       string          `json:"state,omitempty"`
	DisplayName string          `json:"display_name,omitempty"`
	PhotoURL    string          `json:"photo_url,omitempty"`
	Status      AccountStatus   `json:"status"`
	Settings    AccountSettings `json:"settings"`

	// Campos exclusivos do profissional.
	Professional *ProfessionalDetails `json:"professional,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfessionalDetails são os dados de vitrine do profissional.
type ProfessionalDetails struct {
	Bio             string   `json:"bio"`
	Specialties     []string `json:"specialties"`
	CustomSpecialty string   `json:"custom_specialty,omitempty"`
	Instagram       string   `json:"instagram,omitempty"`
	Facebook        string   `json:"facebook,omitempty"`
	Website         string   `json:"website,omitempty"`
	Schedule        Schedule `json:"schedule"`
}

// ClientProfile é o payload do formulário de complemento de cadastro do cliente.
type ClientProfile struct {
	Name     string `json:"name"`
	WhatsApp string `json:"whatsapp"`
	City     string `json:"city"`
	State    string `json:"state"`
}

// ProfessionalProfile é o payload do formulário de complemento do profissional.
type ProfessionalProfile struct {
	Name            string   `json:"name"`
	WhatsApp        string   `json:"whatsapp"`
	City            string   `json:"city"`
	State           string   `json:"state"`
	Bio             string   `json:"bio"`
	Specialties     []string `json:"specialties"`
	CustomSpecialty string   `json:"custom_specialty"`
	Instagram       string   `json:"instagram"`
	Facebook        string   `json:"facebook"`
	Website         string   `json:"website"`
	Schedule        Schedule `json:"schedule"`
}
