package cliente

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/notificacao"
)

type fakeRepo struct {
	nextID uint
	items  map[uint]Cliente
	squads map[uint]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: map[uint]Cliente{}, squads: map[uint]bool{1: true, 2: true}}
}

func (f *fakeRepo) ListAll(_ *gorm.DB, e Escopo) ([]Cliente, error) {
	var out []Cliente
	for _, c := range f.items {
		if e.Permite(c.SquadID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRepo) FindByID(_ *gorm.DB, id uint) (*Cliente, error) {
	c, ok := f.items[id]
	if !ok {
		return nil, ErrNaoEncontrado
	}
	return &c, nil
}

func (f *fakeRepo) Save(_ *gorm.DB, c *Cliente) error {
	f.nextID++
	c.ID = f.nextID
	f.items[c.ID] = *c
	return nil
}

func (f *fakeRepo) Update(_ *gorm.DB, c *Cliente) error {
	f.items[c.ID] = *c
	return nil
}

func (f *fakeRepo) Delete(_ *gorm.DB, id uint) error {
	if _, ok := f.items[id]; !ok {
		return ErrNaoEncontrado
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) SquadExists(_ *gorm.DB, id uint) (bool, error) { return f.squads[id], nil }

type gravador struct {
	mu      sync.Mutex
	eventos []notificacao.Evento
}

func (g *gravador) Notificar(_ context.Context, e notificacao.Evento) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.eventos = append(g.eventos, e)
	return nil
}

func (g *gravador) tipos() []notificacao.Tipo {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []notificacao.Tipo
	for _, e := range g.eventos {
		out = append(out, e.Tipo)
	}
	return out
}

func uptr(v uint) *uint { return &v }

var (
	super    = auth.Sessao{UsuarioID: 1, Superusuario: true}
	doSquad1 = auth.Sessao{UsuarioID: 2, SquadID: uptr(1)}
)

func setup() (*mux.Router, *fakeRepo, *gravador) {
	repo := newFakeRepo()
	g := &gravador{}
	h := &Handler{
		Repository:  repo,
		Notificador: g,
		Log:         logger.Nop(),
		Agora:       func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
	}
	r := mux.NewRouter()
	r.HandleFunc("/clients/", h.List).Methods(http.MethodGet)
	r.HandleFunc("/clients/", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/clients/{id}/", h.GetByID).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id}/", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/clients/{id}/", h.Delete).Methods(http.MethodDelete)
	return r, repo, g
}

func call(r http.Handler, s *auth.Sessao, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if s != nil {
		req = req.WithContext(auth.ComSessao(req.Context(), *s))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestClienteCicloDeVida(t *testing.T) {
	r, repo, g := setup()

	rr := call(r, &super, http.MethodPost, "/clients/", `{"squad":2,"seller_name":"Ana","store_name":"Acme Corp","plan_value":"500","client_commission_percentage":"10"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rr.Code, rr.Body.String())
	}
	var criado map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&criado)
	if criado["plan_value"] != "500" || criado["status"] != "Ativo" || criado["squad"] != float64(2) {
		t.Fatalf("criado = %v", criado)
	}

	rr = call(r, &super, http.MethodPut, "/clients/1/", `{"status":"Inativo"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rr.Code, rr.Body.String())
	}
	if c := repo.items[1]; c.Status != StatusInativo || c.StatusChangedAt == nil {
		t.Fatalf("churn não registrado: %+v", c)
	}

	if rr = call(r, &super, http.MethodPut, "/clients/1/", `{"status":"Ativo"}`); rr.Code != http.StatusOK {
		t.Fatalf("reativar: %d", rr.Code)
	}
	if rr = call(r, &super, http.MethodDelete, "/clients/1/", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
	if rr = call(r, &super, http.MethodGet, "/clients/1/", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("get após delete: %d", rr.Code)
	}

	want := []notificacao.Tipo{notificacao.ClienteCriado, notificacao.ClienteChurn, notificacao.ClienteReativado, notificacao.ClienteRemovido}
	got := g.tipos()
	if len(got) != len(want) {
		t.Fatalf("eventos = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("eventos = %v, want %v", got, want)
		}
	}
}

func TestClienteEscopoPorSquad(t *testing.T) {
	r, repo, _ := setup()
	repo.items[1] = Cliente{ID: 1, StoreName: "A", SquadID: uptr(1), Status: StatusAtivo}
	repo.items[2] = Cliente{ID: 2, StoreName: "B", SquadID: uptr(2), Status: StatusAtivo}
	repo.items[3] = Cliente{ID: 3, StoreName: "C", Status: StatusAtivo}

	rr := call(r, &doSquad1, http.MethodGet, "/clients/", "")
	var list []Cliente
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != 1 {
		t.Fatalf("escopo squad 1 = %+v", list)
	}

	rr = call(r, &super, http.MethodGet, "/clients/", "")
	list = nil
	_ = json.NewDecoder(rr.Body).Decode(&list)
	if len(list) != 3 {
		t.Fatalf("superusuário deveria ver 3, viu %d", len(list))
	}

	if rr = call(r, &doSquad1, http.MethodGet, "/clients/2/", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("cliente de outro squad: %d", rr.Code)
	}
	if rr = call(r, &doSquad1, http.MethodDelete, "/clients/2/", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("delete de outro squad: %d", rr.Code)
	}
	if _, ok := repo.items[2]; !ok {
		t.Fatal("cliente de outro squad foi removido")
	}

	// sem squad informado, o cliente cai no squad do usuário
	rr = call(r, &doSquad1, http.MethodPost, "/clients/", `{"seller_name":"Ana","store_name":"Nova"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create escopado: %d %s", rr.Code, rr.Body.String())
	}
	var c Cliente
	_ = json.NewDecoder(rr.Body).Decode(&c)
	if c.SquadID == nil || *c.SquadID != 1 {
		t.Fatalf("squad = %v", c.SquadID)
	}

	rr = call(r, &doSquad1, http.MethodPost, "/clients/", `{"seller_name":"Ana","store_name":"Outra","squad":2}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "squad") {
		t.Fatalf("create em outro squad: %d %s", rr.Code, rr.Body.String())
	}
}

func TestClienteValidacao(t *testing.T) {
	r, _, g := setup()

	rr := call(r, &super, http.MethodPost, "/clients/", `{"seller_name":"Ana","store_name":"Acme","squad":99}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("squad inexistente: %d", rr.Code)
	}
	var erros map[string][]string
	_ = json.NewDecoder(rr.Body).Decode(&erros)
	if len(erros["squad"]) != 1 {
		t.Fatalf("erros = %v", erros)
	}

	if rr = call(r, &super, http.MethodPost, "/clients/", `{`); rr.Code != http.StatusBadRequest {
		t.Fatalf("json quebrado: %d", rr.Code)
	}
	if rr = call(r, nil, http.MethodGet, "/clients/", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("sem sessão: %d", rr.Code)
	}
	if rr = call(r, &super, http.MethodGet, "/clients/x/", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("id inválido: %d", rr.Code)
	}
	if len(g.tipos()) != 0 {
		t.Fatalf("nenhum evento esperado, veio %v", g.tipos())
	}
}
