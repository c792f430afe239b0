package auth

import (
	"context"
	"errors"
)

var (
	ErrCredenciaisInvalidas = errors.New("credenciais inválidas")
	ErrUsuarioNaoEncontrado = errors.New("usuário não encontrado")
)

// Identidade é o usuário autenticado como o restante do serviço o enxerga.
type Identidade struct {
	ID           uint
	Username     string
	Superusuario bool
	SquadID      *uint
	SquadNome    string
}

// Credenciais resolve usuários para login e para GET /auth/user/.
type Credenciais interface {
	Autenticar(ctx context.Context, username, senha string) (Identidade, error)
	Buscar(ctx context.Context, id uint) (Identidade, error)
}
