package cliente

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/notificacao"
	"github.com/zebee/manager-api/internal/utils"
)

type Handler struct {
	DB          *gorm.DB
	Repository  Repository
	Notificador notificacao.Notificador
	Log         *logger.Logger
	Agora       func() time.Time
}

func NewHandler(db *gorm.DB, n notificacao.Notificador, log *logger.Logger) *Handler {
	if n == nil {
		n = notificacao.Nop{}
	}
	return &Handler{
		DB:          db,
		Repository:  NewRepository(),
		Notificador: n,
		Log:         log.WithComponent("cliente"),
		Agora:       time.Now,
	}
}

// EscopoDaSessao: superusuário vê todos; os demais só o próprio squad.
func EscopoDaSessao(s auth.Sessao) Escopo {
	return Escopo{Todos: s.Superusuario, SquadID: s.SquadID}
}

func (h *Handler) conn(r *http.Request) *gorm.DB {
	if h.DB == nil {
		return nil
	}
	return h.DB.WithContext(r.Context())
}

func (h *Handler) agora() time.Time {
	if h.Agora == nil {
		return time.Now()
	}
	return h.Agora()
}

func (h *Handler) escopo(w http.ResponseWriter, r *http.Request) (Escopo, auth.Sessao, bool) {
	s, ok := auth.SessaoFromContext(r.Context())
	if !ok {
		http.Error(w, "não autenticado", http.StatusUnauthorized)
		return Escopo{}, s, false
	}
	return EscopoDaSessao(s), s, true
}

// GET /clients/
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	esc, _, ok := h.escopo(w, r)
	if !ok {
		return
	}
	list, err := h.Repository.ListAll(h.conn(r), esc)
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("listar clientes", logger.FieldError, err)
		http.Error(w, "erro ao listar clientes", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Cliente{}
	}
	utils.EscreverJSON(w, http.StatusOK, list)
}

// carregar busca o cliente e responde 404 também quando ele está fora do escopo.
func (h *Handler) carregar(w http.ResponseWriter, r *http.Request, esc Escopo) (*Cliente, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "ID inválido", http.StatusBadRequest)
		return nil, false
	}
	c, err := h.Repository.FindByID(h.conn(r), uint(id))
	if errors.Is(err, ErrNaoEncontrado) || (err == nil && !esc.Permite(c.SquadID)) {
		http.Error(w, "cliente não encontrado", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.FromContext(r.Context(), h.Log).Error("buscar cliente", logger.FieldError, err)
		http.Error(w, "erro ao buscar cliente", http.StatusInternalServerError)
		return nil, false
	}
	return c, true
}

// GET /clients/{id}/
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	esc, _, ok := h.escopo(w, r)
	if !ok {
		return
	}
	if c, ok := h.carregar(w, r, esc); ok {
		utils.EscreverJSON(w, http.StatusOK, c)
	}
}

// validarSquad completa o squad de quem não é superusuário e confere existência.
func (h *Handler) validarSquad(r *http.Request, c *Cliente, req ClienteRequest, sess auth.Sessao, erros utils.ErrosCampo) error {
	if !sess.Superusuario {
		if !req.Squad.Presente || req.Squad.Valor == nil {
			c.SquadID = sess.SquadID
		}
		if !EscopoDaSessao(sess).Permite(c.SquadID) {
			erros.Add("squad", "Você só pode cadastrar clientes do seu squad.")
			return nil
		}
	}
	if c.SquadID == nil || erros["squad"] != nil {
		return nil
	}
	existe, err := h.Repository.SquadExists(h.conn(r), *c.SquadID)
	if err != nil {
		return err
	}
	if !existe {
		erros.Add("squad", `Pk inválido "`+strconv.FormatUint(uint64(*c.SquadID), 10)+`" - objeto não existe.`)
	}
	return nil
}

// POST /clients/
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	_, sess, ok := h.escopo(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context(), h.Log)

	var req ClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}

	var c Cliente
	erros := req.Aplicar(&c, true, h.agora())
	if err := h.validarSquad(r, &c, req, sess, erros); err != nil {
		log.Error("validar squad", logger.FieldError, err)
		http.Error(w, "erro ao validar squad", http.StatusInternalServerError)
		return
	}
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}

	if err := h.Repository.Save(h.conn(r), &c); err != nil {
		log.Error("salvar cliente", logger.FieldError, err)
		http.Error(w, "erro ao salvar cliente", http.StatusInternalServerError)
		return
	}
	log.Info("cliente criado", logger.FieldClienteID, c.ID, logger.FieldUserID, sess.UsuarioID)
	h.notificar(r.Context(), notificacao.ClienteCriado, &c)
	utils.EscreverJSON(w, http.StatusCreated, c)
}

// PUT /clients/{id}/
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	esc, sess, ok := h.escopo(w, r)
	if !ok {
		return
	}
	log := logger.FromContext(r.Context(), h.Log)

	c, ok := h.carregar(w, r, esc)
	if !ok {
		return
	}
	var req ClienteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}

	anterior := c.Status
	erros := req.Aplicar(c, false, h.agora())
	if err := h.validarSquad(r, c, req, sess, erros); err != nil {
		log.Error("validar squad", logger.FieldError, err)
		http.Error(w, "erro ao validar squad", http.StatusInternalServerError)
		return
	}
	if !erros.Vazio() {
		utils.EscreverErrosCampo(w, erros)
		return
	}

	if err := h.Repository.Update(h.conn(r), c); err != nil {
		log.Error("atualizar cliente", logger.FieldClienteID, c.ID, logger.FieldError, err)
		http.Error(w, "erro ao atualizar cliente", http.StatusInternalServerError)
		return
	}

	switch {
	case anterior == StatusAtivo && c.Status == StatusInativo:
		log.Info("churn registrado", logger.FieldClienteID, c.ID)
		h.notificar(r.Context(), notificacao.ClienteChurn, c)
	case anterior == StatusInativo && c.Status == StatusAtivo:
		h.notificar(r.Context(), notificacao.ClienteReativado, c)
	}
	utils.EscreverJSON(w, http.StatusOK, c)
}

// DELETE /clients/{id}/
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	esc, sess, ok := h.escopo(w, r)
	if !ok {
		return
	}
	c, ok := h.carregar(w, r, esc)
	if !ok {
		return
	}
	if err := h.Repository.Delete(h.conn(r), c.ID); err != nil {
		if errors.Is(err, ErrNaoEncontrado) {
			http.Error(w, "cliente não encontrado", http.StatusNotFound)
			return
		}
		logger.FromContext(r.Context(), h.Log).Error("excluir cliente", logger.FieldError, err)
		http.Error(w, "erro ao excluir cliente", http.StatusInternalServerError)
		return
	}
	logger.FromContext(r.Context(), h.Log).Info("cliente excluído", logger.FieldClienteID, c.ID, logger.FieldUserID, sess.UsuarioID)
	h.notificar(r.Context(), notificacao.ClienteRemovido, c)
	w.WriteHeader(http.StatusNoContent)
}

// notificar nunca falha a requisição.
func (h *Handler) notificar(ctx context.Context, tipo notificacao.Tipo, c *Cliente) {
	if h.Notificador == nil {
		return
	}
	e := notificacao.NovoEvento(tipo, c.ID, c.StoreName, c.SquadID, c.PlanValue.StringFixed(2), h.agora())
	if err := h.Notificador.Notificar(ctx, e); err != nil {
		logger.FromContext(ctx, h.Log).Warn("falha ao notificar", "tipo", tipo, logger.FieldClienteID, c.ID, logger.FieldError, err)
	}
}
