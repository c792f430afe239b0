package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/config"
	"github.com/zebee/manager-api/internal/listagem"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
	"github.com/zebee/manager-api/internal/notificacao"
	"github.com/zebee/manager-api/internal/painel"
	"github.com/zebee/manager-api/internal/squad"
	"github.com/zebee/manager-api/internal/usuario"
)

type dependencias struct {
	Config      *config.Config
	DB          *gorm.DB
	Log         *logger.Logger
	Metrics     *metrics.Manager
	Emissor     *auth.Emissor
	Notificador notificacao.Notificador
	Credenciais auth.Credenciais
	Refresh     auth.RefreshStore
}

func novoRoteador(d dependencias) http.Handler {
	clienteHandler := cliente.NewHandler(d.DB, d.Notificador, d.Log)
	squadHandler := squad.NewHandler(d.DB, d.Log)
	usuarioHandler := usuario.NewHandler(d.DB, d.Log)
	painelHandler := painel.NewHandler(d.DB, d.Metrics, d.Log)
	listagemHandler := listagem.NewHandler(d.DB, d.Log)
	authServico := &auth.Servico{
		Emissor:      d.Emissor,
		Store:        d.Refresh,
		Credenciais:  d.Credenciais,
		Metrics:      d.Metrics,
		Log:          d.Log.WithComponent("auth"),
		RefreshTTL:   d.Config.Auth.RefreshTTL,
		CookieSecure: d.Config.Auth.CookieSecure,
	}
	super := func(f http.HandlerFunc) http.Handler { return auth.RequireSuperuser(f) }

	r := mux.NewRouter()
	r.Use(d.Metrics.Middleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if d.Config.Metrics.Enabled {
		r.Handle(d.Config.Metrics.Path, d.Metrics.Handler()).Methods(http.MethodGet)
	}
	r.HandleFunc("/.well-known/jwks.json", d.Emissor.JWKSHandler).Methods(http.MethodGet)

	// Rotas de autenticação públicas
	r.HandleFunc("/auth/login/", authServico.Login).Methods(http.MethodPost)
	r.HandleFunc("/auth/refresh/", authServico.Refresh).Methods(http.MethodPost)
	r.HandleFunc("/auth/logout/", authServico.Logout).Methods(http.MethodPost)

	api := r.PathPrefix("/").Subrouter()
	api.Use(d.Emissor.Middleware, auth.SessaoAtual(d.Credenciais))

	api.HandleFunc("/auth/user/", authServico.Usuario).Methods(http.MethodGet)

	// Rotas de clientes
	api.HandleFunc("/clients/", clienteHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/clients/", clienteHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/clients/search/", listagemHandler.Search).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id:[0-9]+}/", clienteHandler.GetByID).Methods(http.MethodGet)
	api.HandleFunc("/clients/{id:[0-9]+}/", clienteHandler.Update).Methods(http.MethodPut)
	api.HandleFunc("/clients/{id:[0-9]+}/", clienteHandler.Delete).Methods(http.MethodDelete)

	// Rotas de squads
	api.HandleFunc("/squads/", squadHandler.List).Methods(http.MethodGet)
	api.Handle("/squads/", super(squadHandler.Create)).Methods(http.MethodPost)
	api.HandleFunc("/squads/{id:[0-9]+}/", squadHandler.GetByID).Methods(http.MethodGet)
	api.Handle("/squads/{id:[0-9]+}/", super(squadHandler.Update)).Methods(http.MethodPut)
	api.Handle("/squads/{id:[0-9]+}/", super(squadHandler.Delete)).Methods(http.MethodDelete)

	// Rotas de usuários (somente superusuário)
	api.Handle("/users/", super(usuarioHandler.List)).Methods(http.MethodGet)
	api.Handle("/users/", super(usuarioHandler.Create)).Methods(http.MethodPost)
	api.Handle("/users/{id:[0-9]+}/", super(usuarioHandler.GetByID)).Methods(http.MethodGet)
	api.Handle("/users/{id:[0-9]+}/", super(usuarioHandler.Update)).Methods(http.MethodPut)
	api.Handle("/users/{id:[0-9]+}/", super(usuarioHandler.Delete)).Methods(http.MethodDelete)

	// Painel
	api.HandleFunc("/dashboard/", painelHandler.Dashboard).Methods(http.MethodGet)
	api.HandleFunc("/revenue-history/", painelHandler.HistoricoReceita).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   d.Config.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", logger.HeaderRequestID},
		ExposedHeaders:   []string{logger.HeaderRequestID},
		AllowCredentials: true,
	})
	return c.Handler(logger.Middleware(d.Log)(r))
}
