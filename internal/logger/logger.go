// Package logger encapsula log/slog com o nome do componente em cada registro.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger é um slog.Logger que carrega o componente de origem.
type Logger struct {
	*slog.Logger
	component string
}

type Config struct {
	Level     string
	Format    string
	Component string
	Output    io.Writer
}

// New cria o logger raiz. Format "json" usa slog.JSONHandler; qualquer outro valor usa texto.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	component := cfg.Component
	if component == "" {
		component = "app"
	}
	return &Logger{Logger: slog.New(h).With(FieldComponent, component), component: component}
}

// Nop descarta tudo; usado em testes e quando nenhum logger é injetado.
func Nop() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), component: "nop"}
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent devolve um logger filho com outro componente.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(FieldComponent, component), component: component}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), component: l.component}
}

func (l *Logger) Component() string { return l.component }

// SetDefault troca o logger global do slog.
func SetDefault(l *Logger) { slog.SetDefault(l.Logger) }

type ctxKey struct{}

// IntoContext guarda o logger no contexto da requisição.
func IntoContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext recupera o logger da requisição ou o fallback informado.
func FromContext(ctx context.Context, fallback *Logger) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return Nop()
	}
	return fallback
}
