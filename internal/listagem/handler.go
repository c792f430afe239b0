package listagem

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/utils"
)

const (
	TamanhoPaginaPadrao = 20
	TamanhoPaginaMaximo = 500
)

type Handler struct {
	DB         *gorm.DB
	Repository cliente.Repository
	Log        *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{DB: db, Repository: cliente.NewRepository(), Log: log.WithComponent("listagem")}
}

func (h *Handler) conn(r *http.Request) *gorm.DB {
	if h.DB == nil {
		return nil
	}
	return h.DB.WithContext(r.Context())
}

type MetricasDTO struct {
	Year  int    `json:"year"`
	Month string `json:"month"`
	Acos  string `json:"acos"`
	Tacos string `json:"tacos"`
}

type ItemDTO struct {
	cliente.Cliente
	LatestMetrics *MetricasDTO `json:"latest_metrics"`
}

type PaginaDTO struct {
	Results   []ItemDTO `json:"results"`
	Count     int       `json:"count"`
	PageCount int       `json:"page_count"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
}

// ParseFiltro lê a query string e acumula erros por campo.
func ParseFiltro(r *http.Request) (Filtro, utils.ErrosCampo) {
	q := r.URL.Query()
	erros := utils.ErrosCampo{}
	f := Filtro{Texto: q.Get("q"), Status: StatusFiltro(q.Get("status")), TamanhoPagina: TamanhoPaginaPadrao}

	if f.Status == "Todos" {
		f.Status = Todos
	}
	if !f.Status.Valido() {
		erros.Add("status", "Use Ativo, Inativo ou Todos.")
	}
	if s := q.Get("squad"); s != "" && s != "all" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil || id == 0 {
			erros.Add("squad", "Squad inválido.")
		} else {
			v := uint(id)
			f.Squad = &v
		}
	}
	data := func(campo string) *time.Time {
		s := q.Get(campo)
		if s == "" {
			return nil
		}
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			erros.Add(campo, "Use o formato AAAA-MM-DD.")
			return nil
		}
		return &t
	}
	f.De, f.Ate = data("from"), data("to")

	inteiro := func(campo string, destino *int, minimo, maximo int) {
		s := q.Get(campo)
		if s == "" {
			return
		}
		n, err := strconv.Atoi(s)
		if err != nil || n < minimo || n > maximo {
			erros.Add(campo, "Valor inválido.")
			return
		}
		*destino = n
	}
	inteiro("page", &f.Pagina, 0, math.MaxInt32)
	inteiro("page_size", &f.TamanhoPagina, 1, TamanhoPaginaMaximo)
	return f, erros
}

// GET /clients/search/
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessaoFromContext(r.Context())
	if !ok {
		http.Error(w, "não autenticado", http.StatusUnauthorized)
		return
	}
	f, erros := ParseFiltro(r)
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}

	list, err := h.Repository.ListAll(h.conn(r), cliente.EscopoDaSessao(sess))
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("listar clientes", logger.FieldError, err)
		http.Error(w, "erro ao listar clientes", http.StatusInternalServerError)
		return
	}
	p, err := Aplicar(list, f)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	out := PaginaDTO{Results: make([]ItemDTO, 0, len(p.Itens)), Count: p.Total, PageCount: p.Paginas, Page: f.Pagina, PageSize: f.TamanhoPagina}
	for _, c := range p.Itens {
		item := ItemDTO{Cliente: c}
		if m, ok := UltimasMetricas(c); ok {
			item.LatestMetrics = &MetricasDTO{
				Year:  m.Periodo.Ano,
				Month: cliente.NomeMes(m.Periodo.Mes),
				Acos:  string(m.Acos),
				Tacos: string(m.Tacos),
			}
		}
		out.Results = append(out.Results, item)
	}
	utils.EscreverJSON(w, http.StatusOK, out)
}
