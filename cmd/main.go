package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/config"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
	"github.com/zebee/manager-api/internal/notificacao"
	"github.com/zebee/manager-api/internal/squad"
	"github.com/zebee/manager-api/internal/usuario"
	"github.com/zebee/manager-api/internal/utils/db"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "erro:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "api"})
	logger.SetDefault(log)

	database, err := db.Conectar(ctx, cfg.DB, log.WithComponent("db"))
	if err != nil {
		return err
	}
	if err := migrar(database); err != nil {
		return err
	}
	if err := usuario.GarantirSuperusuario(ctx, database, usuario.NewRepository(), cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword, log); err != nil {
		return err
	}

	emissor, err := auth.NovoEmissorDeConfig(cfg.Auth, log.WithComponent("auth"))
	if err != nil {
		return err
	}

	var mopts []metrics.Option
	if cfg.Metrics.Enabled {
		mopts = append(mopts, metrics.WithRuntimeCollectors())
	}
	m := metrics.NewManager(mopts...)

	notificador, fechar := montarNotificador(cfg.Notify, log, m)
	defer fechar()

	handler := novoRoteador(dependencias{
		Config:      cfg,
		DB:          database,
		Log:         log,
		Metrics:     m,
		Emissor:     emissor,
		Notificador: notificador,
		Credenciais: usuario.NovoAutenticador(database),
		Refresh:     auth.NovoRefreshStore(database),
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("servidor iniciado", "addr", cfg.HTTP.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("encerrando servidor")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("servidor parado")
	return nil
}

func migrar(database *gorm.DB) error {
	for _, mig := range []func(*gorm.DB) error{
		squad.Migrate,
		cliente.Migrate,
		usuario.Migrate,
		auth.Migrate,
	} {
		if err := mig(database); err != nil {
			return fmt.Errorf("migração: %w", err)
		}
	}
	return nil
}

// montarNotificador liga webhook e AMQP conforme configurados. Falha ao
// conectar no broker só gera aviso; o serviço sobe sem esse canal.
func montarNotificador(cfg config.NotifyConfig, log *logger.Logger, m *metrics.Manager) (notificacao.Notificador, func()) {
	var canais notificacao.Multi
	fechar := func() {}
	if cfg.WebhookURL != "" {
		canais = append(canais, notificacao.NovoWebhook(cfg.WebhookURL, cfg.WebhookTimeout, log, m))
	}
	if cfg.AMQPURL != "" {
		a, err := notificacao.NovoAMQP(cfg.AMQPURL, cfg.AMQPExchange, log, m)
		if err != nil {
			log.Warn("notificação AMQP desativada", logger.FieldError, err)
		} else {
			canais = append(canais, a)
			fechar = func() { _ = a.Close() }
		}
	}
	if len(canais) == 0 {
		return notificacao.Nop{}, fechar
	}
	return canais, fechar
}
