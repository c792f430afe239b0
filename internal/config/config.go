// Package config define a configuração do serviço e o carregamento em camadas
// (padrões, arquivo YAML opcional e variáveis de ambiente).
package config

import "time"

// Config agrupa toda a configuração do processo.
type Config struct {
	// Env é "development" ou "production".
	Env     string        `koanf:"env"`
	HTTP    HTTPConfig    `koanf:"http"`
	Log     LogConfig     `koanf:"log"`
	DB      DBConfig      `koanf:"db"`
	Auth    AuthConfig    `koanf:"auth"`
	Notify  NotifyConfig  `koanf:"notify"`
	Metrics MetricsConfig `koanf:"metrics"`
}

type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type LogConfig struct {
	// Level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format: text ou json.
	Format string `koanf:"format"`
}

// DBConfig descreve a conexão Postgres. Quando User/Password estão vazios as
// credenciais são buscadas no AWS Secrets Manager usando SecretID.
type DBConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Name     string `koanf:"name"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	SecretID string `koanf:"secret_id"`
	SSLMode  string `koanf:"ssl_mode"`
	Region   string `koanf:"region"`
}

type AuthConfig struct {
	PrivateKeyPath string        `koanf:"private_key_path"`
	KID            string        `koanf:"kid"`
	Issuer         string        `koanf:"issuer"`
	Audience       string        `koanf:"audience"`
	AccessTTL      time.Duration `koanf:"access_ttl"`
	RefreshTTL     time.Duration `koanf:"refresh_ttl"`
	CookieSecure   bool          `koanf:"cookie_secure"`

	// Superusuário criado na primeira subida quando a tabela de usuários está vazia.
	BootstrapUser     string `koanf:"bootstrap_user"`
	BootstrapPassword string `koanf:"bootstrap_password"`
}

type NotifyConfig struct {
	WebhookURL     string        `koanf:"webhook_url"`
	WebhookTimeout time.Duration `koanf:"webhook_timeout"`
	AMQPURL        string        `koanf:"amqp_url"`
	AMQPExchange   string        `koanf:"amqp_exchange"`
}

type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// New devolve a configuração padrão.
func New() *Config {
	return &Config{
		Env: "development",
		HTTP: HTTPConfig{
			Addr:              ":8080",
			CORSOrigins:       []string{"http://localhost:3000", "http://localhost:5173"},
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "zebee",
			SSLMode: "disable",
			Region:  "us-east-1",
		},
		Auth: AuthConfig{
			KID:        "zebee-1",
			Issuer:     "zebee-manager",
			Audience:   "zebee-dashboard",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Notify: NotifyConfig{
			WebhookTimeout: 5 * time.Second,
			AMQPExchange:   "zebee.clientes",
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// IsProduction indica se o processo roda em produção.
func (c *Config) IsProduction() bool { return c.Env == "production" }
