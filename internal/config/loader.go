package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "ZEBEE_"
	envFileVar = "ZEBEE_CONFIG"
)

// Load monta a Config em camadas, da menor para a maior precedência:
//  1. padrões (New)
//  2. arquivo YAML, se ZEBEE_CONFIG estiver definido
//  3. variáveis ZEBEE_*; "__" separa níveis (ZEBEE_DB__HOST -> db.host)
//
// Um .env no diretório corrente é carregado antes, sem sobrescrever o ambiente.
func Load(_ context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", ErrLoadConfig, err)
	}

	k := koanf.New(".")

	if path := os.Getenv(envFileVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrLoadConfig, path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		if s == envFileVar {
			return ""
		}
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate acumula todos os problemas encontrados em um único erro.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Env != "development" && c.Env != "production" {
		add("env deve ser development ou production, recebido %q", c.Env)
	}
	if c.HTTP.Addr == "" {
		add("http.addr não pode ser vazio")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		add("log.level inválido %q", c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		add("log.format deve ser text ou json, recebido %q", c.Log.Format)
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		add("db.port fora do intervalo: %d", c.DB.Port)
	}
	if c.DB.Name == "" {
		add("db.name não pode ser vazio")
	}
	if (c.DB.User == "" || c.DB.Password == "") && c.DB.SecretID == "" && c.IsProduction() {
		add("db.user/db.password ou db.secret_id são obrigatórios em produção")
	}
	if c.Auth.KID == "" || c.Auth.Issuer == "" || c.Auth.Audience == "" {
		add("auth.kid, auth.issuer e auth.audience são obrigatórios")
	}
	if c.Auth.AccessTTL <= 0 || c.Auth.RefreshTTL <= c.Auth.AccessTTL {
		add("auth.refresh_ttl deve ser maior que auth.access_ttl (> 0)")
	}
	if c.IsProduction() && c.Auth.PrivateKeyPath == "" {
		add("auth.private_key_path é obrigatório em produção")
	}
	if (c.Auth.BootstrapUser == "") != (c.Auth.BootstrapPassword == "") {
		add("auth.bootstrap_user e auth.bootstrap_password devem ser definidos juntos")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		add("metrics.path deve começar com /")
	}
	return errors.Join(errs...)
}
