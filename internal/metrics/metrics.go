// Package metrics expõe os coletores Prometheus do serviço.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager registra e atualiza os coletores em um registry próprio.
type Manager struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	loginFailures       prometheus.Counter
	painelDuration      prometheus.Histogram
	painelClientes      prometheus.Gauge
	notificacoes        *prometheus.CounterVec
}

type Option func(*Manager)

func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

func WithHistogramBuckets(b []float64) Option {
	return func(m *Manager) {
		if len(b) > 0 {
			m.buckets = b
		}
	}
}

// WithRegistry troca o registry; útil em testes.
func WithRegistry(r *prometheus.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

// WithRuntimeCollectors registra os coletores de processo e do runtime Go.
func WithRuntimeCollectors() Option {
	return func(m *Manager) {
		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "zebee",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	auto := promauto.With(m.registry)
	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Requisições HTTP por rota, método e status.",
	}, []string{"method", "route", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Latência das requisições HTTP.",
		Buckets:   m.buckets,
	}, []string{"method", "route"})
	m.loginFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "auth",
		Name:      "login_failures_total",
		Help:      "Tentativas de login recusadas.",
	})
	m.painelDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "painel",
		Name:      "calculo_duration_seconds",
		Help:      "Tempo de cálculo do painel mensal.",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})
	m.painelClientes = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "painel",
		Name:      "clientes_ativos",
		Help:      "Clientes ativos no último cálculo do painel.",
	})
	m.notificacoes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "notificacao",
		Name:      "eventos_total",
		Help:      "Eventos de cliente enviados por canal e resultado.",
	}, []string{"canal", "resultado"})
	return m
}

// Nil-safe: um *Manager nil simplesmente não registra nada.

func (m *Manager) LoginFailed() {
	if m == nil {
		return
	}
	m.loginFailures.Inc()
}

func (m *Manager) ObservePainel(d time.Duration, ativos int) {
	if m == nil {
		return
	}
	m.painelDuration.Observe(d.Seconds())
	m.painelClientes.Set(float64(ativos))
}

func (m *Manager) Notificacao(canal string, err error) {
	if m == nil {
		return
	}
	res := "ok"
	if err != nil {
		res = "erro"
	}
	m.notificacoes.WithLabelValues(canal, res).Inc()
}

// Handler publica o registry no formato de exposição do Prometheus.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Manager) Registry() *prometheus.Registry { return m.registry }

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware instrumenta as rotas do mux usando o template do caminho como rótulo,
// evitando um rótulo por ID.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "desconhecida"
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
