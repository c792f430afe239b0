package db

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/zebee/manager-api/internal/config"
	"github.com/zebee/manager-api/internal/logger"
)

// Conectar abre o Postgres descrito em cfg. Sem usuário e senha no config as
// credenciais vêm do Secrets Manager.
func Conectar(ctx context.Context, cfg config.DBConfig, log *logger.Logger) (*gorm.DB, error) {
	user, pass := cfg.User, cfg.Password
	if user == "" || pass == "" {
		log.Info("buscando credenciais no Secrets Manager", "secret_id", cfg.SecretID)
		cli, err := novoClienteSecrets(ctx, cfg.Region)
		if err != nil {
			return nil, err
		}
		cred, err := buscarCredenciais(ctx, cli, cfg.SecretID)
		if err != nil {
			return nil, err
		}
		user, pass = cred.Username, cred.Password
	}

	database, err := gorm.Open(postgres.Open(DSN(cfg, user, pass)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("abrir postgres em %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	log.Info("banco conectado", "host", cfg.Host, "db", cfg.Name)
	return database, nil
}
