package painel

import (
	"errors"
	"net/http"
	"time"
	_ "time/tzdata"

	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
	"github.com/zebee/manager-api/internal/squad"
	"github.com/zebee/manager-api/internal/utils"
)

const layoutData = "2006-01-02"

type Handler struct {
	DB       *gorm.DB
	Clientes cliente.Repository
	Squads   squad.Repository
	Metrics  *metrics.Manager
	Log      *logger.Logger
	Agora    func() time.Time
}

func NewHandler(db *gorm.DB, m *metrics.Manager, log *logger.Logger) *Handler {
	return &Handler{
		DB:       db,
		Clientes: cliente.NewRepository(),
		Squads:   squad.NewRepository(),
		Metrics:  m,
		Log:      log.WithComponent("painel"),
		Agora:    time.Now,
	}
}

func (h *Handler) conn(r *http.Request) *gorm.DB {
	if h.DB == nil {
		return nil
	}
	return h.DB.WithContext(r.Context())
}

var errIntervalo = errors.New("intervalo inválido")

// ParseIntervalo lê from/to (YYYY-MM-DD) e tz opcional. Sem from devolve nil.
func ParseIntervalo(from, to, tz string) (*Intervalo, error) {
	if from == "" {
		return nil, nil
	}
	loc := time.UTC
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return nil, errIntervalo
		}
		loc = l
	}
	de, err := time.ParseInLocation(layoutData, from, loc)
	if err != nil {
		return nil, errIntervalo
	}
	iv := &Intervalo{De: de}
	if to != "" {
		ate, err := time.ParseInLocation(layoutData, to, loc)
		if err != nil {
			return nil, errIntervalo
		}
		iv.Ate = ate
	}
	return iv, nil
}

// calcular carrega o retrato no escopo da sessão e roda o agregador.
func (h *Handler) calcular(w http.ResponseWriter, r *http.Request) (Resultado, bool) {
	sess, ok := auth.SessaoFromContext(r.Context())
	if !ok {
		http.Error(w, "não autenticado", http.StatusUnauthorized)
		return Resultado{}, false
	}
	q := r.URL.Query()
	iv, err := ParseIntervalo(q.Get("from"), q.Get("to"), q.Get("tz"))
	if err != nil {
		http.Error(w, "Parâmetros from/to devem estar no formato AAAA-MM-DD", http.StatusBadRequest)
		return Resultado{}, false
	}

	log := logger.FromContext(r.Context(), h.Log)
	esc := cliente.EscopoDaSessao(sess)
	clientes, err := h.Clientes.ListAll(h.conn(r), esc)
	if err != nil {
		log.Error("listar clientes", logger.FieldError, err)
		http.Error(w, "erro ao calcular painel", http.StatusInternalServerError)
		return Resultado{}, false
	}
	todos, err := h.Squads.ListAll(h.conn(r))
	if err != nil {
		log.Error("listar squads", logger.FieldError, err)
		http.Error(w, "erro ao calcular painel", http.StatusInternalServerError)
		return Resultado{}, false
	}
	var squads []squad.Squad
	for _, s := range todos {
		id := s.ID
		if esc.Permite(&id) {
			squads = append(squads, s)
		}
	}

	agora := time.Now
	if h.Agora != nil {
		agora = h.Agora
	}
	inicio := time.Now()
	res := Calcular(clientes, squads, iv, agora())
	h.Metrics.ObservePainel(time.Since(inicio), res.TotalClientesAtivos)
	log.Debug("painel calculado", "clientes", len(clientes), "meses", len(res.Meses), logger.FieldUserID, sess.UsuarioID)
	return res, true
}

// GET /dashboard/
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if res, ok := h.calcular(w, r); ok {
		utils.EscreverJSON(w, http.StatusOK, ToDTO(res))
	}
}

// GET /revenue-history/
func (h *Handler) HistoricoReceita(w http.ResponseWriter, r *http.Request) {
	if res, ok := h.calcular(w, r); ok {
		utils.EscreverJSON(w, http.StatusOK, MesesDTO(res.Meses))
	}
}
