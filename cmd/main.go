package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	// Nossos pacotes de infraestrutura e utilitários
	"beautypro/config"
	"beautypro/internal/identifier"
	"beautypro/internal/pkg/cache"
	"beautypro/internal/pkg/database"
	"beautypro/internal/pkg/logger"
	"beautypro/internal/pkg/mailer"
	"beautypro/internal/pkg/metrics"
	"beautypro/internal/pkg/rolecookie"
	"beautypro/internal/pkg/session"
	"beautypro/internal/pkg/token"

	// Camadas para Injeção de Dependências
	"beautypro/internal/api/account"
	"beautypro/internal/api/auth"
	"beautypro/internal/api/router"
	apisession "beautypro/internal/api/session"
	"beautypro/internal/repository/accountrepo"
	"beautypro/internal/repository/credentialrepo"
	"beautypro/internal/repository/draftrepo"
	"beautypro/internal/service/authservice"
	"beautypro/internal/service/identityservice"
	"beautypro/internal/service/sessionservice"
)

func main() {
	// 1. Configuração e Inicialização
	log.Println("Inicializando serviço BeautyPro...")

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment})

	ctx := context.Background()

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.DefaultPoolConfig)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient, err := cache.NewRedisClient(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal("Falha ao conectar ao Redis.", err)
	}
	defer cacheClient.Close()
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Métricas
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(registry)
	if err != nil {
		log.Fatal("Falha ao registrar métricas.", err)
	}

	// D. Email
	var mail authservice.Mailer = mailer.LogMailer{Logger: log}
	if cfg.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(mailer.Config{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}, log)
		if err != nil {
			log.Fatal("Falha ao configurar SMTP.", err)
		}
		mail = smtp
	} else {
		log.Warn("SMTP_HOST vazio; emails de redefinição serão apenas registrados no log.", nil)
	}

	// E. Cookies (papel, sessão e estado do gothic)
	jar := rolecookie.New(cfg.SessionSecret, cfg.Environment == "production")
	var federated auth.Federated
	if cfg.GoogleEnabled() {
		gothic.Store = jar.Store()
		goth.UseProviders(google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.BaseURL+"/v1/auth/google/callback", "email", "profile"))
		federated = auth.Gothic{Provider: "google"}
		log.Info("Login com Google habilitado.", nil)
	}

	// 3. INJEÇÃO DE DEPENDÊNCIAS
	// Ordem: Repository -> Service -> Handler
	formatter := identifier.NewFormatter(cfg.LoginKeyDomain)
	sessions := session.NewStore()
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry, cfg.ResetTokenExpiry)

	// A. Repositórios
	credentialRepo := credentialrepo.NewCredentialRepository(db, cfg.DBTimeout, log)
	accountRepo := accountrepo.NewAccountRepository(db, cfg.DBTimeout, log)
	draftRepo := draftrepo.NewDraftRepository(cacheClient, cfg.CacheTimeout, cfg.DraftTTL, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços
	authSvc := authservice.NewService(credentialRepo, accountRepo, tokenSvc, sessions, mail, formatter,
		authservice.Options{ResetURL: cfg.PasswordResetURL, MailTimeout: cfg.MailTimeout, SessionTTL: tokenSvc.Expiry()}, log)
	checker := identityservice.NewDuplicateChecker(authSvc, accountRepo, formatter, cacheClient,
		cfg.DupCheckCacheTTL, cfg.CacheTimeout, m, log)
	identitySvc := identityservice.NewService(authSvc, accountRepo, draftRepo, checker, formatter, m, log)
	resolver := sessionservice.NewResolver(accountRepo, log)
	tracker := sessionservice.NewTracker(sessions, resolver, cfg.DBTimeout, log)
	defer tracker.Close()
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers
	handlers := router.Handlers{
		Auth:    auth.NewHandler(authSvc, identitySvc, resolver, federated, formatter, jar, log),
		Account: account.NewHandler(identitySvc, accountRepo, jar, log),
		Session: apisession.NewHandler(sessions, resolver, tracker, jar, log),
	}

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(handlers, router.Options{
		Verifier:     authSvc,
		Cache:        cacheClient,
		RateLimit:    cfg.RateLimitMaxRequests,
		RateWindow:   cfg.RateLimitPeriod,
		CacheTimeout: cfg.CacheTimeout,
		Metrics:      m,
		Gatherer:     registry,
		Logger:       log,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 40 * time.Second, // cobre o ?wait= de /v1/session
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	appCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go sessions.Run(appCtx, time.Minute) // remove sessões expiradas e avisa o tracker

	go func() {
		log.Info("Servidor BeautyPro ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)
	stopSweep()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
