package db

import (
	"strconv"
	"strings"

	"github.com/zebee/manager-api/internal/config"
)

// DSN monta a string key=value do libpq, com aspas quando o valor exige.
func DSN(cfg config.DBConfig, user, password string) string {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}
	partes := []string{
		"host=" + valor(cfg.Host),
		"user=" + valor(user),
		"password=" + valor(password),
		"dbname=" + valor(cfg.Name),
		"port=" + strconv.Itoa(port),
	}
	if cfg.SSLMode != "" {
		partes = append(partes, "sslmode="+valor(cfg.SSLMode))
	}
	return strings.Join(partes, " ")
}

func valor(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
