package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func chaveTeste(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		k, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = k
	})
	return testKey
}

func novoEmissorTeste(t *testing.T, agora func() time.Time) *Emissor {
	t.Helper()
	e, err := NovoEmissor(chaveTeste(t), OpcoesEmissor{
		KID: "k1", Issuer: "zebee", Audience: "dash", Agora: agora,
	})
	if err != nil {
		t.Fatalf("NovoEmissor: %v", err)
	}
	return e
}

func uintPtr(v uint) *uint { return &v }

func TestTokenRoundTrip(t *testing.T) {
	e := novoEmissorTeste(t, nil)
	tok, err := e.GerarAccessToken(Identidade{ID: 7, Superusuario: false, SquadID: uintPtr(3)})
	if err != nil {
		t.Fatal(err)
	}
	c, err := e.Validar(tok)
	if err != nil {
		t.Fatalf("Validar: %v", err)
	}
	if c.UserID != 7 || c.Superusuario || c.SquadID == nil || *c.SquadID != 3 {
		t.Fatalf("claims inesperadas: %+v", c)
	}
	if c.Subject != "7" || c.ID == "" {
		t.Fatalf("sub/jti inesperados: %q %q", c.Subject, c.ID)
	}
}

func TestTokenExpirado(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	agora := base
	e := novoEmissorTeste(t, func() time.Time { return agora })
	tok, _ := e.GerarAccessToken(Identidade{ID: 1})

	agora = base.Add(DefaultAccessTTL + time.Second)
	if _, err := e.Validar(tok); !errors.Is(err, ErrTokenExpirado) {
		t.Fatalf("esperava ErrTokenExpirado, veio %v", err)
	}
}

func TestTokenAudienceEKid(t *testing.T) {
	e := novoEmissorTeste(t, nil)
	outro, _ := NovoEmissor(chaveTeste(t), OpcoesEmissor{KID: "k1", Issuer: "zebee", Audience: "outra"})
	tok, _ := outro.GerarAccessToken(Identidade{ID: 1})
	if _, err := e.Validar(tok); !errors.Is(err, ErrTokenInvalido) {
		t.Fatalf("audience errada deveria falhar: %v", err)
	}

	semKid, _ := NovoEmissor(chaveTeste(t), OpcoesEmissor{KID: "k2", Issuer: "zebee", Audience: "dash"})
	tok2, _ := semKid.GerarAccessToken(Identidade{ID: 1})
	if _, err := e.Validar(tok2); err == nil {
		t.Fatal("kid desconhecido deveria falhar")
	}
	e.AdicionarChavePublica("k2", &chaveTeste(t).PublicKey)
	if _, err := e.Validar(tok2); err != nil {
		t.Fatalf("kid registrado deveria validar: %v", err)
	}
}

func TestParseChavePrivadaPKCS8(t *testing.T) {
	der, err := x509.MarshalPKCS8PrivateKey(chaveTeste(t))
	if err != nil {
		t.Fatal(err)
	}
	k, err := ParseChavePrivada(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
	if err != nil || k.N.Cmp(chaveTeste(t).N) != 0 {
		t.Fatalf("PKCS8: %v", err)
	}
	pk1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(chaveTeste(t))})
	if _, err := ParseChavePrivada(pk1); err != nil {
		t.Fatalf("PKCS1: %v", err)
	}
	if _, err := ParseChavePrivada([]byte("lixo")); err == nil {
		t.Fatal("esperava erro para PEM inválido")
	}
}

func TestMiddleware(t *testing.T) {
	e := novoEmissorTeste(t, nil)
	var got Sessao
	h := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessaoFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/clients/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("sem token: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/clients/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("OPTIONS deveria passar: %d", rr.Code)
	}

	tok, _ := e.GerarAccessToken(Identidade{ID: 9, Superusuario: true})
	req := httptest.NewRequest(http.MethodGet, "/clients/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || got.UsuarioID != 9 || !got.Superusuario {
		t.Fatalf("code=%d sessao=%+v", rr.Code, got)
	}
}

func TestRequireSuperuser(t *testing.T) {
	h := RequireSuperuser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	cases := []struct {
		ctx  context.Context
		want int
	}{
		{context.Background(), http.StatusUnauthorized},
		{ComSessao(context.Background(), Sessao{UsuarioID: 1}), http.StatusForbidden},
		{ComSessao(context.Background(), Sessao{UsuarioID: 1, Superusuario: true}), http.StatusOK},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/squads/", nil).WithContext(tc.ctx))
		if rr.Code != tc.want {
			t.Errorf("code = %d, want %d", rr.Code, tc.want)
		}
	}
}

func TestSessaoAtualRecarregaSquad(t *testing.T) {
	e := novoEmissorTeste(t, nil)
	// token emitido quando ana estava no squad 9; o cadastro já diz squad 4
	tok, err := e.GerarAccessToken(Identidade{ID: 1, Username: "ana", SquadID: uintPtr(9), Superusuario: true})
	if err != nil {
		t.Fatal(err)
	}
	var got Sessao
	h := e.Middleware(SessaoAtual(fakeCredenciais{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = SessaoFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK || got.SquadID == nil || *got.SquadID != 4 || got.Superusuario {
		t.Fatalf("code=%d sessao=%+v", rr.Code, got)
	}

	removido, _ := e.GerarAccessToken(Identidade{ID: 2, Username: "bia"})
	req = httptest.NewRequest(http.MethodGet, "/dashboard/", nil)
	req.Header.Set("Authorization", "Bearer "+removido)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("usuário removido: code=%d", rr.Code)
	}
}

func TestSessaoAtualSemCredenciais(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rr := httptest.NewRecorder()
	SessaoAtual(nil)(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("code=%d", rr.Code)
	}
}

// fakes

type memStore struct {
	mu     sync.Mutex
	nextID uint
	byHash map[string]*RefreshToken
}

func newMemStore() *memStore { return &memStore{byHash: map[string]*RefreshToken{}} }

func (m *memStore) Criar(_ context.Context, rt *RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	rt.ID = m.nextID
	cp := *rt
	m.byHash[rt.Hash] = &cp
	return nil
}

func (m *memStore) BuscarPorHash(_ context.Context, hash string) (*RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rt, ok := m.byHash[hash]
	if !ok {
		return nil, ErrRefreshNaoEncontrado
	}
	cp := *rt
	return &cp, nil
}

func (m *memStore) Revogar(_ context.Context, id uint, em time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.byHash {
		if rt.ID == id && rt.RevokedAt == nil {
			rt.RevokedAt = &em
		}
	}
	return nil
}

func (m *memStore) RevogarFamilia(_ context.Context, fam string, em time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, rt := range m.byHash {
		if rt.FamilyID == fam && rt.RevokedAt == nil {
			rt.RevokedAt = &em
		}
	}
	return nil
}

func (m *memStore) ativos() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rt := range m.byHash {
		if rt.RevokedAt == nil {
			n++
		}
	}
	return n
}

type fakeCredenciais struct{}

func (fakeCredenciais) Autenticar(_ context.Context, u, p string) (Identidade, error) {
	if u == "ana" && p == "s3nha" {
		return Identidade{ID: 1, Username: "ana", SquadID: uintPtr(4), SquadNome: "Alpha"}, nil
	}
	return Identidade{}, ErrCredenciaisInvalidas
}

func (fakeCredenciais) Buscar(_ context.Context, id uint) (Identidade, error) {
	if id == 1 {
		return Identidade{ID: 1, Username: "ana", SquadID: uintPtr(4), SquadNome: "Alpha"}, nil
	}
	return Identidade{}, ErrUsuarioNaoEncontrado
}

func novoServicoTeste(t *testing.T) (*Servico, *memStore) {
	store := newMemStore()
	return &Servico{
		Emissor:     novoEmissorTeste(t, nil),
		Store:       store,
		Credenciais: fakeCredenciais{},
		Metrics:     metrics.NewManager(),
		Log:         logger.Nop(),
	}, store
}

func cookieRT(rr *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rr.Result().Cookies() {
		if c.Name == RefreshCookie {
			return c
		}
	}
	return nil
}

func TestLoginRefreshLogout(t *testing.T) {
	s, store := novoServicoTeste(t)

	rr := httptest.NewRecorder()
	s.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login/", strings.NewReader(`{"username":"ana","password":"s3nha"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: %d %s", rr.Code, rr.Body.String())
	}
	var tr tokenResponse
	if err := json.NewDecoder(rr.Body).Decode(&tr); err != nil {
		t.Fatal(err)
	}
	if tr.AccessToken == "" || tr.Access != tr.AccessToken || tr.TokenType != "Bearer" {
		t.Fatalf("resposta inesperada: %+v", tr)
	}
	rt := cookieRT(rr)
	if rt == nil || !rt.HttpOnly || rt.Path != "/auth" {
		t.Fatalf("cookie inesperado: %+v", rt)
	}

	// rotação
	req := httptest.NewRequest(http.MethodPost, "/auth/refresh/", nil)
	req.AddCookie(rt)
	rr2 := httptest.NewRecorder()
	s.Refresh(rr2, req)
	if rr2.Code != http.StatusOK {
		t.Fatalf("refresh: %d", rr2.Code)
	}
	novo := cookieRT(rr2)
	if novo == nil || novo.Value == rt.Value {
		t.Fatal("refresh deveria rotacionar o cookie")
	}
	if store.ativos() != 1 {
		t.Fatalf("esperava 1 refresh ativo, há %d", store.ativos())
	}

	// reuso do antigo revoga a família
	req = httptest.NewRequest(http.MethodPost, "/auth/refresh/", nil)
	req.AddCookie(rt)
	rr3 := httptest.NewRecorder()
	s.Refresh(rr3, req)
	if rr3.Code != http.StatusUnauthorized || store.ativos() != 0 {
		t.Fatalf("reuso: code=%d ativos=%d", rr3.Code, store.ativos())
	}

	rr4 := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/auth/logout/", nil)
	req.AddCookie(novo)
	s.Logout(rr4, req)
	if rr4.Code != http.StatusNoContent {
		t.Fatalf("logout: %d", rr4.Code)
	}
}

func TestLoginInvalido(t *testing.T) {
	s, _ := novoServicoTeste(t)
	rr := httptest.NewRecorder()
	s.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login/", strings.NewReader(`{"username":"ana","password":"x"}`)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("code = %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.Login(rr, httptest.NewRequest(http.MethodPost, "/auth/login/", strings.NewReader(`{`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("payload inválido: %d", rr.Code)
	}
}

func TestUsuario(t *testing.T) {
	s, _ := novoServicoTeste(t)
	req := httptest.NewRequest(http.MethodGet, "/auth/user/", nil)
	req = req.WithContext(ComSessao(req.Context(), Sessao{UsuarioID: 1}))
	rr := httptest.NewRecorder()
	s.Usuario(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("code = %d", rr.Code)
	}
	var body map[string]any
	_ = json.NewDecoder(rr.Body).Decode(&body)
	if body["username"] != "ana" || body["is_superuser"] != false || body["squad_name"] != "Alpha" {
		t.Fatalf("corpo inesperado: %v", body)
	}
}

func TestJWKS(t *testing.T) {
	e := novoEmissorTeste(t, nil)
	rr := httptest.NewRecorder()
	e.JWKSHandler(rr, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))
	var body struct {
		Keys []jwk `json:"keys"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Keys) != 1 || body.Keys[0].Kid != "k1" || body.Keys[0].E != "AQAB" {
		t.Fatalf("jwks inesperado: %+v", body.Keys)
	}
}
