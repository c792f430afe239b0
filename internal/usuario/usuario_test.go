package usuario

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/squad"
	"github.com/zebee/manager-api/internal/utils"
)

type fakeRepo struct {
	nextID uint
	items  map[uint]Usuario
}

func newFakeRepo() *fakeRepo { return &fakeRepo{items: map[uint]Usuario{}} }

func (f *fakeRepo) ListAll(_ *gorm.DB) ([]Usuario, error) {
	var out []Usuario
	for _, u := range f.items {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeRepo) FindByID(_ *gorm.DB, id uint) (*Usuario, error) {
	u, ok := f.items[id]
	if !ok {
		return nil, ErrNaoEncontrado
	}
	if u.SquadID != nil && *u.SquadID == 4 {
		u.Squad = &squad.Squad{ID: 4, Name: "Alpha"}
	}
	return &u, nil
}

func (f *fakeRepo) FindByUsername(db *gorm.DB, username string) (*Usuario, error) {
	for id, u := range f.items {
		if strings.EqualFold(u.Username, username) {
			return f.FindByID(db, id)
		}
	}
	return nil, ErrNaoEncontrado
}

func (f *fakeRepo) Save(_ *gorm.DB, u *Usuario) error {
	for _, o := range f.items {
		if strings.EqualFold(o.Username, u.Username) {
			return ErrUsernameEmUso
		}
	}
	f.nextID++
	u.ID = f.nextID
	f.items[u.ID] = *u
	return nil
}

func (f *fakeRepo) Update(_ *gorm.DB, u *Usuario) error {
	f.items[u.ID] = *u
	return nil
}

func (f *fakeRepo) Delete(_ *gorm.DB, id uint) error {
	if _, ok := f.items[id]; !ok {
		return ErrNaoEncontrado
	}
	delete(f.items, id)
	return nil
}

func (f *fakeRepo) Count(_ *gorm.DB) (int64, error) { return int64(len(f.items)), nil }

type fakeSquads struct{ squad.Repository }

func (fakeSquads) FindByID(_ *gorm.DB, id uint) (*squad.Squad, error) {
	if id == 4 {
		return &squad.Squad{ID: 4, Name: "Alpha"}, nil
	}
	return nil, squad.ErrNaoEncontrado
}

func comUsuario(t *testing.T, repo *fakeRepo, nome, senha string, super bool, squadID *uint) *Usuario {
	t.Helper()
	hash, err := utils.HashSenha(senha)
	if err != nil {
		t.Fatal(err)
	}
	u := &Usuario{Username: nome, PasswordHash: hash, IsSuperuser: super, SquadID: squadID}
	if err := repo.Save(nil, u); err != nil {
		t.Fatal(err)
	}
	return u
}

func uptr(v uint) *uint { return &v }

func TestAutenticador(t *testing.T) {
	repo := newFakeRepo()
	u := comUsuario(t, repo, "ana", "s3nha-forte", false, uptr(4))
	a := &Autenticador{Repository: repo}
	ctx := context.Background()

	id, err := a.Autenticar(ctx, "ANA", "s3nha-forte")
	if err != nil {
		t.Fatalf("Autenticar: %v", err)
	}
	if id.ID != u.ID || id.Superusuario || id.SquadNome != "Alpha" || *id.SquadID != 4 {
		t.Errorf("identidade = %+v", id)
	}

	if _, err := a.Autenticar(ctx, "ana", "errada"); !errors.Is(err, auth.ErrCredenciaisInvalidas) {
		t.Errorf("senha errada: %v", err)
	}
	if _, err := a.Autenticar(ctx, "bruno", "s3nha-forte"); !errors.Is(err, auth.ErrCredenciaisInvalidas) {
		t.Errorf("usuário inexistente: %v", err)
	}

	if _, err := a.Buscar(ctx, 99); !errors.Is(err, auth.ErrUsuarioNaoEncontrado) {
		t.Errorf("Buscar inexistente: %v", err)
	}
	if got, err := a.Buscar(ctx, u.ID); err != nil || got.Username != "ana" {
		t.Errorf("Buscar = %+v, %v", got, err)
	}
}

func TestGarantirSuperusuario(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	if err := GarantirSuperusuario(ctx, nil, repo, "admin", "", logger.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(repo.items) != 1 || !repo.items[1].IsSuperuser {
		t.Fatalf("superusuário não criado: %+v", repo.items)
	}

	if err := GarantirSuperusuario(ctx, nil, repo, "outro", "x", logger.Nop()); err != nil {
		t.Fatal(err)
	}
	if len(repo.items) != 1 {
		t.Error("não deveria criar quando já existem usuários")
	}

	vazio := newFakeRepo()
	if err := GarantirSuperusuario(ctx, nil, vazio, "", "x", logger.Nop()); err != nil || len(vazio.items) != 0 {
		t.Error("username vazio deveria desligar o bootstrap")
	}
}

func roteador(h *Handler, sess auth.Sessao) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/users/", h.List).Methods(http.MethodGet)
	r.HandleFunc("/users/", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/", h.GetByID).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/", h.Update).Methods(http.MethodPut)
	r.HandleFunc("/users/{id}/", h.Delete).Methods(http.MethodDelete)
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.ServeHTTP(w, req.WithContext(auth.ComSessao(req.Context(), sess)))
	})
}

func chamar(srv http.Handler, method, url, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, strings.NewReader(body))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCRUD(t *testing.T) {
	repo := newFakeRepo()
	admin := comUsuario(t, repo, "admin", "s3nha-forte", true, nil)
	h := &Handler{Repository: repo, Squads: fakeSquads{}, Log: logger.Nop()}
	srv := roteador(h, auth.Sessao{UsuarioID: admin.ID, Superusuario: true})

	rr := chamar(srv, http.MethodPost, "/users/", `{"username":"bia","password":"12345678","squad":4}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("criar: %d %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Error("hash da senha não pode aparecer na resposta")
	}
	var criado Usuario
	_ = json.Unmarshal(rr.Body.Bytes(), &criado)
	if !utils.VerificarSenha(repo.items[criado.ID].PasswordHash, "12345678") {
		t.Error("senha não foi gravada como hash")
	}

	rr = chamar(srv, http.MethodPost, "/users/", `{"username":"BIA","password":"12345678"}`)
	if rr.Code != http.StatusBadRequest || !strings.Contains(rr.Body.String(), "username") {
		t.Errorf("duplicado: %d %s", rr.Code, rr.Body.String())
	}

	rr = chamar(srv, http.MethodPost, "/users/", `{"username":"","password":"123","squad":9}`)
	var erros map[string][]string
	_ = json.Unmarshal(rr.Body.Bytes(), &erros)
	for _, campo := range []string{"username", "password", "squad"} {
		if len(erros[campo]) == 0 {
			t.Errorf("faltou erro em %s: %v", campo, erros)
		}
	}

	rr = chamar(srv, http.MethodPut, "/users/2/", `{"is_superuser":true}`)
	if rr.Code != http.StatusOK || !repo.items[2].IsSuperuser || repo.items[2].Username != "bia" {
		t.Errorf("atualizar: %d %+v", rr.Code, repo.items[2])
	}

	rr = chamar(srv, http.MethodPut, "/users/1/", `{"is_superuser":false}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("auto rebaixamento deveria falhar: %d", rr.Code)
	}

	if rr = chamar(srv, http.MethodDelete, "/users/1/", ""); rr.Code != http.StatusBadRequest {
		t.Errorf("auto exclusão deveria falhar: %d", rr.Code)
	}
	if rr = chamar(srv, http.MethodDelete, "/users/2/", ""); rr.Code != http.StatusNoContent {
		t.Errorf("excluir: %d", rr.Code)
	}
	if rr = chamar(srv, http.MethodGet, "/users/2/", ""); rr.Code != http.StatusNotFound {
		t.Errorf("depois de excluir: %d", rr.Code)
	}
}
