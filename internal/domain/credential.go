package domain

import "time"

// SignInProvider identifica como uma credencial autentica.
type SignInProvider string

const (
	ProviderPassword SignInProvider = "password"
	ProviderGoogle   SignInProvider = "google"
)

// Credential é o usuário do provedor de autenticação.
// A LoginKey é a Chave de Login Canônica (papel + identificador real).
type Credential struct {
	UID              string         `json:"uid"`
	LoginKey         string         `json:"login_key"`
	PasswordHash     string         `json:"-"` // Oculta o hash da senha no JSON de resposta
	Provider         SignInProvider `json:"provider"`
	FederatedSubject string         `json:"-"`
	DisplayName      string         `json:"display_name,omitempty"`
	PhotoURL         string         `json:"photo_url,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// FederatedIdentity é o resultado de um login federado (Google).
type FederatedIdentity struct {
	Provider    SignInProvider
	Subject     string
	Email       string
	DisplayName string
	PhotoURL    string
}

// RegistrationRequest é o payload de entrada do início do cadastro.
type RegistrationRequest struct {
	Kind            IdentifierKind `json:"kind"`
	Identifier      string         `json:"identifier"`
	Role            Role           `json:"role"`
	Password        string         `json:"password"`
	ConfirmPassword string         `json:"confirm_password"`
}

// RegistrationDraft é o cadastro em andamento entre a criação da credencial e o
// complemento do perfil. Vive pouco tempo e pode desaparecer a qualquer momento.
type RegistrationDraft struct {
	UID         string         `json:"uid"`
	Kind        IdentifierKind `json:"kind"`
	Identifier  string         `json:"identifier"`
	Role        Role           `json:"role"`
	LoginKey    string         `json:"login_key"`
	DisplayName string         `json:"display_name,omitempty"`
	PhotoURL    string         `json:"photo_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// RegistrationResult é a resposta do início do cadastro.
type RegistrationResult struct {
	Draft    RegistrationDraft `json:"draft"`
	Session  Session           `json:"-"`
	IDToken  string            `json:"id_token"`
	NextPath string            `json:"next_path"`
}
