package squad

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/utils"
)

type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Log        *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Log: log.WithComponent("squad")}
}

// GET /squads/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repository.ListAll(h.conn(r))
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("listar squads", logger.FieldError, err)
		http.Error(w, "erro ao listar squads", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Squad{}
	}
	utils.EscreverJSON(w, http.StatusOK, list)
}

// GET /squads/{id}/
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	s, err := h.Repository.FindByID(h.conn(r), id)
	if errors.Is(err, ErrNaoEncontrado) {
		http.Error(w, "squad não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "erro ao buscar squad", http.StatusInternalServerError)
		return
	}
	utils.EscreverJSON(w, http.StatusOK, s)
}

func validar(req SquadRequest) (string, utils.ErrosCampo) {
	erros := utils.ErrosCampo{}
	if req.Name == nil || strings.TrimSpace(*req.Name) == "" {
		erros.Add("name", "Este campo é obrigatório.")
		return "", erros
	}
	nome := strings.TrimSpace(*req.Name)
	if len(nome) > 100 {
		erros.Add("name", "Certifique-se de que este campo não tenha mais de 100 caracteres.")
	}
	return nome, erros
}

// POST /squads/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req SquadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	nome, erros := validar(req)
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}
	s := Squad{Name: nome}
	if err := h.Repository.Save(h.conn(r), &s); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	logger.FromContext(r.Context(), h.Log).Info("squad criado", logger.FieldSquadID, s.ID)
	utils.EscreverJSON(w, http.StatusCreated, s)
}

// PUT /squads/{id}/
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	var req SquadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	nome, erros := validar(req)
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}
	db := h.conn(r)
	if err := h.Repository.Update(db, &Squad{ID: id, Name: nome}); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	s, err := h.Repository.FindByID(db, id)
	if err != nil {
		http.Error(w, "erro ao buscar squad", http.StatusInternalServerError)
		return
	}
	utils.EscreverJSON(w, http.StatusOK, s)
}

// DELETE /squads/{id}/
// Clientes do squad ficam sem squad (ON DELETE SET NULL).
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := h.Repository.Delete(h.conn(r), id); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) responderErroEscrita(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNaoEncontrado):
		http.Error(w, "squad não encontrado", http.StatusNotFound)
	case errors.Is(err, ErrNomeDuplicado):
		utils.EscreverErrosCampo(w, utils.ErrosCampo{"name": {"squad com este name já existe."}})
	default:
		logger.FromContext(r.Context(), h.Log).Error("gravar squad", logger.FieldError, err)
		http.Error(w, "erro ao salvar squad", http.StatusInternalServerError)
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// conn amarra a conexão ao contexto da requisição; DB nil fica nil (testes com repositório falso).
func (h *Handler) conn(r *http.Request) *gorm.DB {
	if h.DB == nil {
		return nil
	}
	return h.DB.WithContext(r.Context())
}
