package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config armazena todas as configurações do BeautyPro.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	BaseURL     string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration

	// Segurança (JWT e cookies)
	JWTSecretKey     string
	TokenExpiry      time.Duration
	ResetTokenExpiry time.Duration
	SessionSecret    string
	PasswordResetURL string

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Identidade
	LoginKeyDomain   string
	DupCheckCacheTTL time.Duration
	DraftTTL         time.Duration

	// Google (goth)
	GoogleClientID     string
	GoogleClientSecret string

	// Email (SMTP)
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string
	MailTimeout  time.Duration
}

// MigrationConfig é o subconjunto usado pelo cmd/migrate. Não exige os segredos do serviço.
type MigrationConfig struct {
	DatabaseURL   string
	MigrationsDir string
	Environment   string
	LogLevel      string
	DBTimeout     time.Duration
}

func loadDotEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Aviso: arquivo .env não carregado (%v). Usando apenas o ambiente.", err)
	}
}

// LoadMigrationConfig carrega apenas o necessário para aplicar as migrações.
func LoadMigrationConfig() *MigrationConfig {
	loadDotEnv()

	return &MigrationConfig{
		DatabaseURL:   mustGetEnv("DATABASE_URL"),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "./sql"),
		Environment:   getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DBTimeout:     getDurationEnv("MIGRATE_TIMEOUT_SEC", 60) * time.Second,
	}
}

// LoadConfig carrega o .env (quando existe) e depois as variáveis de ambiente.
func LoadConfig() *Config {
	loadDotEnv()

	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:8080"),

		// 2. Banco de Dados (PostgreSQL)
		// mustGetEnv garante que a aplicação não inicie se não houver credenciais de DB
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		DBTimeout:   getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 2) * time.Second,

		// 4. Segurança
		JWTSecretKey:     mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:      getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,
		ResetTokenExpiry: getDurationEnv("RESET_TOKEN_EXPIRY_MIN", 30) * time.Minute,
		SessionSecret:    mustGetEnv("SESSION_SECRET"),
		PasswordResetURL: getEnv("PASSWORD_RESET_URL", "http://localhost:3000/redefinir-senha"),

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. Identidade
		LoginKeyDomain:   getEnv("LOGIN_KEY_DOMAIN", "beautypro.com"),
		DupCheckCacheTTL: getDurationEnv("DUP_CHECK_CACHE_TTL_SEC", 30) * time.Second,
		DraftTTL:         getDurationEnv("DRAFT_TTL_MIN", 30) * time.Minute,

		// 7. Google
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),

		// 8. Email
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getIntEnv("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		MailFrom:     getEnv("MAIL_FROM", "nao-responda@beautypro.com"),
		MailTimeout:  getDurationEnv("MAIL_TIMEOUT_SEC", 10) * time.Second,
	}

	return cfg
}

// GoogleEnabled indica se o login federado foi configurado.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
