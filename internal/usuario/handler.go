package usuario

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/squad"
	"github.com/zebee/manager-api/internal/utils"
)

const tamanhoMinimoSenha = 8

// Handler administra contas. As rotas ficam atrás de auth.RequireSuperuser.
type Handler struct {
	DB         *gorm.DB
	Repository Repository
	Squads     squad.Repository
	Log        *logger.Logger
}

func NewHandler(db *gorm.DB, log *logger.Logger) *Handler {
	return &Handler{DB: db, Repository: NewRepository(), Squads: squad.NewRepository(), Log: log.WithComponent("usuario")}
}

func (h *Handler) conn(r *http.Request) *gorm.DB {
	if h.DB == nil {
		return nil
	}
	return h.DB.WithContext(r.Context())
}

func parseID(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return 0, false
	}
	return uint(id), true
}

// GET /users/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Repository.ListAll(h.conn(r))
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("listar usuários", logger.FieldError, err)
		http.Error(w, "erro ao listar usuários", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Usuario{}
	}
	utils.EscreverJSON(w, http.StatusOK, list)
}

// GET /users/{id}/
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := h.Repository.FindByID(h.conn(r), id)
	if errors.Is(err, ErrNaoEncontrado) {
		http.Error(w, "usuário não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "erro ao buscar usuário", http.StatusInternalServerError)
		return
	}
	utils.EscreverJSON(w, http.StatusOK, u)
}

// aplicar copia os campos presentes para u e valida o resultado.
func (h *Handler) aplicar(r *http.Request, u *Usuario, req UsuarioRequest, criando bool) (utils.ErrosCampo, error) {
	erros := utils.ErrosCampo{}
	if req.Username != nil {
		u.Username = strings.TrimSpace(*req.Username)
	}
	if u.Username == "" {
		erros.Add("username", "Este campo é obrigatório.")
	} else if len(u.Username) > 150 {
		erros.Add("username", "Certifique-se de que este campo não tenha mais de 150 caracteres.")
	}

	switch {
	case req.Password != nil && len(*req.Password) < tamanhoMinimoSenha:
		erros.Add("password", "A senha precisa ter pelo menos 8 caracteres.")
	case req.Password != nil:
		hash, err := utils.HashSenha(*req.Password)
		if err != nil {
			return erros, err
		}
		u.PasswordHash = hash
	case criando:
		erros.Add("password", "Este campo é obrigatório.")
	}

	if req.IsSuperuser != nil {
		u.IsSuperuser = *req.IsSuperuser
	}
	if req.Squad != nil {
		_, err := h.Squads.FindByID(h.conn(r), *req.Squad)
		switch {
		case errors.Is(err, squad.ErrNaoEncontrado):
			erros.Add("squad", `Pk inválido "`+strconv.FormatUint(uint64(*req.Squad), 10)+`" - objeto não existe.`)
		case err != nil:
			return erros, err
		default:
			u.SquadID = req.Squad
		}
	}
	return erros, nil
}

// POST /users/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req UsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	var u Usuario
	erros, err := h.aplicar(r, &u, req, true)
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("validar usuário", logger.FieldError, err)
		http.Error(w, "erro ao validar usuário", http.StatusInternalServerError)
		return
	}
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}
	if err := h.Repository.Save(h.conn(r), &u); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	logger.FromContext(r.Context(), h.Log).Info("usuário criado", logger.FieldUserID, u.ID)
	utils.EscreverJSON(w, http.StatusCreated, u)
}

// PUT /users/{id}/
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	u, err := h.Repository.FindByID(h.conn(r), id)
	if errors.Is(err, ErrNaoEncontrado) {
		http.Error(w, "usuário não encontrado", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "erro ao buscar usuário", http.StatusInternalServerError)
		return
	}
	var req UsuarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	erros, err := h.aplicar(r, u, req, false)
	if err != nil {
		http.Error(w, "erro ao validar usuário", http.StatusInternalServerError)
		return
	}
	if sess, ok := auth.SessaoFromContext(r.Context()); ok && sess.UsuarioID == u.ID && !u.IsSuperuser {
		erros.Add("is_superuser", "Você não pode remover o próprio acesso de superusuário.")
	}
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}
	u.Squad = nil
	if err := h.Repository.Update(h.conn(r), u); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	utils.EscreverJSON(w, http.StatusOK, u)
}

// DELETE /users/{id}/
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if sess, ok := auth.SessaoFromContext(r.Context()); ok && sess.UsuarioID == id {
		http.Error(w, "não é possível excluir o próprio usuário", http.StatusBadRequest)
		return
	}
	if err := h.Repository.Delete(h.conn(r), id); err != nil {
		h.responderErroEscrita(w, r, err)
		return
	}
	logger.FromContext(r.Context(), h.Log).Info("usuário excluído", logger.FieldUserID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) responderErroEscrita(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNaoEncontrado):
		http.Error(w, "usuário não encontrado", http.StatusNotFound)
	case errors.Is(err, ErrUsernameEmUso):
		erros := utils.ErrosCampo{}
		erros.Add("username", "Um usuário com este nome de usuário já existe.")
		utils.EscreverErrosCampo(w, erros)
	default:
		logger.FromContext(r.Context(), h.Log).Error("gravar usuário", logger.FieldError, err)
		http.Error(w, "erro ao gravar usuário", http.StatusInternalServerError)
	}
}
