package apiclient

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/squad"
)

// Snapshot é imutável depois de publicado; mudanças geram um novo valor.
type Snapshot struct {
	Clientes []cliente.Cliente
	Squads   []squad.Squad
	Em       time.Time
}

// Visiveis aplica o escopo do usuário: quem não é superusuário vê apenas o
// squad cujo nome coincide com squad_name.
func (s *Snapshot) Visiveis(u UsuarioAtual) []cliente.Cliente {
	if s == nil {
		return nil
	}
	if u.IsSuperuser {
		return s.Clientes
	}
	if u.SquadName == nil {
		return []cliente.Cliente{}
	}
	var alvo *uint
	for i := range s.Squads {
		if s.Squads[i].Name == *u.SquadName {
			alvo = &s.Squads[i].ID
			break
		}
	}
	out := []cliente.Cliente{}
	if alvo == nil {
		return out
	}
	for _, c := range s.Clientes {
		if c.SquadID != nil && *c.SquadID == *alvo {
			out = append(out, c)
		}
	}
	return out
}

// Atualizar busca clientes e squads em paralelo e publica o par de uma vez.
// Em erro o retrato anterior continua valendo.
func (c *Client) Atualizar(ctx context.Context) (*Snapshot, error) {
	var (
		clientes []cliente.Cliente
		squads   []squad.Squad
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clientes, err = c.Clientes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		squads, err = c.Squads(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	s := &Snapshot{Clientes: clientes, Squads: squads, Em: c.agora()}
	c.snap.Store(s)
	return s, nil
}

// Snapshot devolve o último retrato publicado, ou nil.
func (c *Client) Snapshot() *Snapshot { return c.snap.Load() }

func (c *Client) removerLocal(id uint) {
	for {
		atual := c.snap.Load()
		if atual == nil {
			return
		}
		novo := &Snapshot{Squads: atual.Squads, Em: atual.Em, Clientes: make([]cliente.Cliente, 0, len(atual.Clientes))}
		for _, cl := range atual.Clientes {
			if cl.ID != id {
				novo.Clientes = append(novo.Clientes, cl)
			}
		}
		if c.snap.CompareAndSwap(atual, novo) {
			return
		}
	}
}
