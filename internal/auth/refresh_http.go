package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
)

const (
	DefaultRefreshTTL = 30 * 24 * time.Hour
	RefreshCookie     = "rt"
	cookiePath        = "/auth"
)

// Servico expõe login, refresh, logout e o usuário corrente.
type Servico struct {
	Emissor      *Emissor
	Store        RefreshStore
	Credenciais  Credenciais
	Metrics      *metrics.Manager
	Log          *logger.Logger
	RefreshTTL   time.Duration
	CookieSecure bool
	Agora        func() time.Time
}

func (s *Servico) agora() time.Time {
	if s.Agora != nil {
		return s.Agora()
	}
	return time.Now()
}

func (s *Servico) refreshTTL() time.Duration {
	if s.RefreshTTL > 0 {
		return s.RefreshTTL
	}
	return DefaultRefreshTTL
}

func genRaw() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func hashRaw(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

func (s *Servico) setRTCookie(w http.ResponseWriter, raw string, exp time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    raw,
		Path:     cookiePath,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  exp,
	})
}

func (s *Servico) clearRTCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    "",
		Path:     cookiePath,
		HttpOnly: true,
		Secure:   s.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Access      string `json:"access"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

func (s *Servico) escreverToken(w http.ResponseWriter, access string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(tokenResponse{
		AccessToken: access,
		Access:      access,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.Emissor.AccessTTL().Seconds()),
	})
}

// emitir gera access + refresh. familyID vazio inicia uma nova família.
func (s *Servico) emitir(r *http.Request, w http.ResponseWriter, id Identidade, familyID string) (string, error) {
	access, err := s.Emissor.GerarAccessToken(id)
	if err != nil {
		return "", err
	}
	raw, err := genRaw()
	if err != nil {
		return "", err
	}
	if familyID == "" {
		familyID = uuid.NewString()
	}
	rt := RefreshToken{
		UserID:       id.ID,
		FamilyID:     familyID,
		Hash:         hashRaw(raw),
		Superusuario: id.Superusuario,
		SquadID:      id.SquadID,
		ExpiresAt:    s.agora().Add(s.refreshTTL()),
	}
	if err := s.Store.Criar(r.Context(), &rt); err != nil {
		return "", err
	}
	s.setRTCookie(w, raw, rt.ExpiresAt)
	return access, nil
}

// POST /auth/login/
func (s *Servico) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.Log)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "payload inválido", http.StatusBadRequest)
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		http.Error(w, "usuário e senha são obrigatórios", http.StatusBadRequest)
		return
	}

	id, err := s.Credenciais.Autenticar(r.Context(), req.Username, req.Password)
	if err != nil {
		s.Metrics.LoginFailed()
		if errors.Is(err, ErrCredenciaisInvalidas) {
			log.Info("login recusado", "username", req.Username)
			http.Error(w, "credenciais inválidas", http.StatusUnauthorized)
			return
		}
		log.Error("falha ao autenticar", logger.FieldError, err)
		http.Error(w, "erro ao autenticar", http.StatusInternalServerError)
		return
	}

	access, err := s.emitir(r, w, id, "")
	if err != nil {
		log.Error("falha ao emitir tokens", logger.FieldUserID, id.ID, logger.FieldError, err)
		http.Error(w, "erro ao gerar tokens", http.StatusInternalServerError)
		return
	}
	log.Info("login", logger.FieldUserID, id.ID)
	s.escreverToken(w, access)
}

// POST /auth/refresh/
// Um refresh já revogado apresentado de novo indica vazamento: a família
// inteira é revogada.
func (s *Servico) Refresh(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.Log)

	c, err := r.Cookie(RefreshCookie)
	if err != nil || c.Value == "" {
		http.Error(w, "refresh ausente", http.StatusUnauthorized)
		return
	}
	cur, err := s.Store.BuscarPorHash(r.Context(), hashRaw(c.Value))
	if err != nil {
		s.clearRTCookie(w)
		http.Error(w, "refresh inválido", http.StatusUnauthorized)
		return
	}
	now := s.agora()
	if cur.RevokedAt != nil {
		_ = s.Store.RevogarFamilia(r.Context(), cur.FamilyID, now)
		log.Warn("refresh reutilizado, família revogada", logger.FieldUserID, cur.UserID)
		s.clearRTCookie(w)
		http.Error(w, "refresh inválido", http.StatusUnauthorized)
		return
	}
	if now.After(cur.ExpiresAt) {
		s.clearRTCookie(w)
		http.Error(w, "refresh expirado", http.StatusUnauthorized)
		return
	}
	if err := s.Store.Revogar(r.Context(), cur.ID, now); err != nil {
		log.Error("falha ao revogar refresh", logger.FieldError, err)
		http.Error(w, "erro", http.StatusInternalServerError)
		return
	}

	id := Identidade{ID: cur.UserID, Superusuario: cur.Superusuario, SquadID: cur.SquadID}
	if atual, err := s.Credenciais.Buscar(r.Context(), cur.UserID); err == nil {
		id = atual
	} else if errors.Is(err, ErrUsuarioNaoEncontrado) {
		s.clearRTCookie(w)
		http.Error(w, "usuário removido", http.StatusUnauthorized)
		return
	}

	access, err := s.emitir(r, w, id, cur.FamilyID)
	if err != nil {
		s.clearRTCookie(w)
		log.Error("falha ao emitir tokens", logger.FieldError, err)
		http.Error(w, "erro", http.StatusInternalServerError)
		return
	}
	s.escreverToken(w, access)
}

// POST /auth/logout/
func (s *Servico) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(RefreshCookie); err == nil && c.Value != "" {
		if rt, err := s.Store.BuscarPorHash(r.Context(), hashRaw(c.Value)); err == nil {
			_ = s.Store.RevogarFamilia(r.Context(), rt.FamilyID, s.agora())
		}
	}
	s.clearRTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

type usuarioResponse struct {
	ID          uint    `json:"id"`
	Username    string  `json:"username"`
	IsSuperuser bool    `json:"is_superuser"`
	SquadName   *string `json:"squad_name"`
}

// GET /auth/user/ (atrás do Middleware)
func (s *Servico) Usuario(w http.ResponseWriter, r *http.Request) {
	sess, ok := SessaoFromContext(r.Context())
	if !ok {
		http.Error(w, "não autenticado", http.StatusUnauthorized)
		return
	}
	id, err := s.Credenciais.Buscar(r.Context(), sess.UsuarioID)
	if errors.Is(err, ErrUsuarioNaoEncontrado) {
		http.Error(w, "usuário não encontrado", http.StatusUnauthorized)
		return
	}
	if err != nil {
		logger.FromContext(r.Context(), s.Log).Error("falha ao buscar usuário", logger.FieldError, err)
		http.Error(w, "erro ao buscar usuário", http.StatusInternalServerError)
		return
	}
	resp := usuarioResponse{ID: id.ID, Username: id.Username, IsSuperuser: id.Superusuario}
	if id.SquadNome != "" {
		nome := id.SquadNome
		resp.SquadName = &nome
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
