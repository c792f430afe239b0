package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// Sessao é o usuário da requisição corrente, injetado pelo Middleware.
type Sessao struct {
	UsuarioID    uint
	Superusuario bool
	SquadID      *uint
}

type ctxKey struct{}

func ComSessao(ctx context.Context, s Sessao) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func SessaoFromContext(ctx context.Context) (Sessao, bool) {
	s, ok := ctx.Value(ctxKey{}).(Sessao)
	return s, ok
}

// Middleware exige Bearer válido; OPTIONS passa direto para o preflight do CORS.
func (e *Emissor) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		h := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			http.Error(w, "Token ausente", http.StatusUnauthorized)
			return
		}
		claims, err := e.Validar(strings.TrimSpace(raw))
		if err != nil {
			msg := "Token inválido"
			if errors.Is(err, ErrTokenExpirado) {
				msg = "Token expirado"
			}
			http.Error(w, msg, http.StatusUnauthorized)
			return
		}
		ctx := ComSessao(r.Context(), Sessao{
			UsuarioID:    claims.UserID,
			Superusuario: claims.Superusuario,
			SquadID:      claims.SquadID,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessaoAtual recarrega squad e superusuário do cadastro a cada requisição,
// para que uma troca de squad valha antes do access token expirar. Vai
// depois do Middleware. Usuário removido recebe 401.
func SessaoAtual(cred Credenciais) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if cred == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, ok := SessaoFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			id, err := cred.Buscar(r.Context(), s.UsuarioID)
			switch {
			case errors.Is(err, ErrUsuarioNaoEncontrado):
				http.Error(w, "usuário não encontrado", http.StatusUnauthorized)
				return
			case err != nil:
				http.Error(w, "erro ao carregar usuário", http.StatusInternalServerError)
				return
			}
			s.Superusuario, s.SquadID = id.Superusuario, id.SquadID
			next.ServeHTTP(w, r.WithContext(ComSessao(r.Context(), s)))
		})
	}
}

func RequireSuperuser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessaoFromContext(r.Context())
		if !ok {
			http.Error(w, "não autenticado", http.StatusUnauthorized)
			return
		}
		if !s.Superusuario {
			http.Error(w, "acesso negado (somente superusuário)", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
