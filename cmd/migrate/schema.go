package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"beautypro/internal/pkg/logger"
)

// requiredTables são as tabelas lidas e escritas pelos repositórios.
var requiredTables = []string{"credentials", "professionals", "clients"}

// parseCommand separa o comando goose dos argumentos; sem comando, aplica "up".
func parseCommand(arguments []string) (string, []string) {
	if len(arguments) == 0 {
		return "up", nil
	}
	return arguments[0], arguments[1:]
}

func raisesSchema(command string) bool {
	switch command {
	case "up", "up-by-one", "up-to", "redo":
		return true
	}
	return false
}

// verifySchema falha listando as tabelas ausentes.
func verifySchema(ctx context.Context, db *sql.DB) error {
	var missing []string
	for _, table := range requiredTables {
		var found bool
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", "public."+table).Scan(&found); err != nil {
			return fmt.Errorf("falha ao verificar a tabela %s: %w", table, err)
		}
		if !found {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tabelas ausentes: %s", strings.Join(missing, ", "))
	}
	return nil
}

// gooseLogger leva a saída do goose para o logger estruturado.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), nil)
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.log.Fatal("goose", fmt.Errorf(strings.TrimSpace(format), v...))
}
