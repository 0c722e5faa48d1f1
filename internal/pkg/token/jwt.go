package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "BeautyPro-Auth"

// Finalidades de token. Um token de redefinição de senha nunca vale como ID token.
const (
	PurposeID            = "id"
	PurposePasswordReset = "password_reset"
)

// ErrWrongPurpose é retornado quando o token é válido mas foi emitido para outra finalidade.
var ErrWrongPurpose = errors.New("token emitido para outra finalidade")

// CustomClaims define as informações específicas que queremos armazenar no JWT.
// É obrigatório incorporar jwt.RegisteredClaims.
type CustomClaims struct {
	UID       string `json:"uid"`
	LoginKey  string `json:"login_key"`
	SessionID string `json:"sid,omitempty"`
	Role      string `json:"role,omitempty"` // Dica derivada da chave; o papel declarado vem do cookie.
	Provider  string `json:"prov,omitempty"`
	Purpose   string `json:"purpose"`
	// PasswordFingerprint amarra o token de redefinição ao hash vigente.
	PasswordFingerprint string `json:"pwf,omitempty"`
	jwt.RegisteredClaims
}

// Service emite e valida tokens HS256.
type Service struct {
	secretKey   []byte
	expiry      time.Duration
	resetExpiry time.Duration
	now         func() time.Time
}

// NewService cria uma nova instância do serviço Token.
func NewService(secretKey string, expiry, resetExpiry time.Duration) *Service {
	return &Service{
		secretKey:   []byte(secretKey),
		expiry:      expiry,
		resetExpiry: resetExpiry,
		now:         time.Now,
	}
}

// GenerateIDToken cria o ID token de uma sessão.
func (s *Service) GenerateIDToken(uid, loginKey, sessionID, role, provider string) (string, error) {
	return s.sign(CustomClaims{
		UID:       uid,
		LoginKey:  loginKey,
		SessionID: sessionID,
		Role:      role,
		Provider:  provider,
		Purpose:   PurposeID,
	}, s.expiry)
}

// Expiry é a validade dos ID tokens; as sessões expiram junto.
func (s *Service) Expiry() time.Duration {
	return s.expiry
}

// GenerateResetToken cria o token curto enviado por email na redefinição de senha.
// passwordHash é o hash vigente; depois da troca o token deixa de conferir.
func (s *Service) GenerateResetToken(uid, loginKey, passwordHash string) (string, error) {
	return s.sign(CustomClaims{
		UID:                 uid,
		LoginKey:            loginKey,
		PasswordFingerprint: PasswordFingerprint(passwordHash),
		Purpose:             PurposePasswordReset,
	}, s.resetExpiry)
}

// PasswordFingerprint resume o hash da senha para uso em claims.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}

func (s *Service) sign(claims CustomClaims, ttl time.Duration) (string, error) {
	now := s.now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		Issuer:    issuer,
		Subject:   claims.UID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	// Assina o token com a chave secreta
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("falha ao assinar o token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken valida o token e confere a finalidade esperada.
func (s *Service) ValidateToken(tokenString, purpose string) (*CustomClaims, error) {
	claims := &CustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verifica se o método de assinatura é o esperado (HS256)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		// Trata erros comuns de JWT, como token expirado ou inválido
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token não é válido")
	}
	if claims.Purpose != purpose {
		return nil, ErrWrongPurpose
	}

	return claims, nil
}
