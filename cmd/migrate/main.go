package main

import (
	"context"
	"flag"

	"github.com/pressly/goose/v3"

	"beautypro/config"
	"beautypro/internal/pkg/database"
	"beautypro/internal/pkg/logger"
)

func main() {
	cfg := config.LoadMigrationConfig()
	log := logger.NewLogger(cfg.LogLevel, cfg.Environment)

	var migrationsDir string
	flag.StringVar(&migrationsDir, "dir", cfg.MigrationsDir, "diretório com as migrações do BeautyPro")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DBTimeout)
	defer cancel()

	// Pool pequeno: a migração usa uma conexão por vez.
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL, database.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()

	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatal("Dialeto não suportado pelo goose.", err)
	}

	command, args := parseCommand(flag.Args())
	if err := goose.RunContext(ctx, command, db, migrationsDir, args...); err != nil {
		log.Fatal("Migração falhou.", err)
	}

	// Depois de subir o schema, confere as tabelas de que o serviço depende.
	if raisesSchema(command) {
		if err := verifySchema(ctx, db); err != nil {
			log.Fatal("Schema incompleto.", err)
		}
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		log.Warn("Versão do schema não lida.", map[string]interface{}{"error": err.Error()})
	}
	log.Info("Migração concluída.", map[string]interface{}{"command": command, "dir": migrationsDir, "version": version})
}
