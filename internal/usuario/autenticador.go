package usuario

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/auth"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/utils"
)

// Autenticador implementa auth.Credenciais sobre a tabela de usuários.
type Autenticador struct {
	DB         *gorm.DB
	Repository Repository
}

func NovoAutenticador(db *gorm.DB) *Autenticador {
	return &Autenticador{DB: db, Repository: NewRepository()}
}

var _ auth.Credenciais = (*Autenticador)(nil)

func (a *Autenticador) conn(ctx context.Context) *gorm.DB {
	if a.DB == nil {
		return nil
	}
	return a.DB.WithContext(ctx)
}

func identidade(u *Usuario) auth.Identidade {
	return auth.Identidade{
		ID:           u.ID,
		Username:     u.Username,
		Superusuario: u.IsSuperuser,
		SquadID:      u.SquadID,
		SquadNome:    u.SquadNome(),
	}
}

// Autenticar não distingue usuário inexistente de senha errada.
func (a *Autenticador) Autenticar(ctx context.Context, username, senha string) (auth.Identidade, error) {
	u, err := a.Repository.FindByUsername(a.conn(ctx), username)
	if errors.Is(err, ErrNaoEncontrado) {
		return auth.Identidade{}, auth.ErrCredenciaisInvalidas
	}
	if err != nil {
		return auth.Identidade{}, fmt.Errorf("buscar usuário: %w", err)
	}
	if !utils.VerificarSenha(u.PasswordHash, senha) {
		return auth.Identidade{}, auth.ErrCredenciaisInvalidas
	}
	return identidade(u), nil
}

func (a *Autenticador) Buscar(ctx context.Context, id uint) (auth.Identidade, error) {
	u, err := a.Repository.FindByID(a.conn(ctx), id)
	if errors.Is(err, ErrNaoEncontrado) {
		return auth.Identidade{}, auth.ErrUsuarioNaoEncontrado
	}
	if err != nil {
		return auth.Identidade{}, fmt.Errorf("buscar usuário: %w", err)
	}
	return identidade(u), nil
}

// GarantirSuperusuario cria o primeiro superusuário quando a tabela está
// vazia. Sem senha configurada gera uma temporária e a registra no log.
func GarantirSuperusuario(ctx context.Context, db *gorm.DB, repo Repository, username, senha string, log *logger.Logger) error {
	if username == "" {
		return nil
	}
	conn := db
	if db != nil {
		conn = db.WithContext(ctx)
	}
	n, err := repo.Count(conn)
	if err != nil {
		return fmt.Errorf("contar usuários: %w", err)
	}
	if n > 0 {
		return nil
	}
	gerada := senha == ""
	if gerada {
		if senha, err = utils.GerarSenhaTemporaria(16); err != nil {
			return fmt.Errorf("gerar senha: %w", err)
		}
	}
	hash, err := utils.HashSenha(senha)
	if err != nil {
		return err
	}
	u := &Usuario{Username: username, PasswordHash: hash, IsSuperuser: true}
	if err := repo.Save(conn, u); err != nil {
		return fmt.Errorf("criar superusuário: %w", err)
	}
	if gerada {
		log.Warn("superusuário inicial criado com senha temporária", "username", username, "senha", senha)
	} else {
		log.Info("superusuário inicial criado", "username", username)
	}
	return nil
}
