// Package listagem reduz a coleção de clientes à página exibida:
// filtro, ordenação e paginação, sem I/O.
package listagem

import (
	"errors"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/zebee/manager-api/internal/cliente"
)

var ErrTamanhoPaginaInvalido = errors.New("tamanho de página deve ser maior que zero")

type StatusFiltro string

const (
	Todos   StatusFiltro = ""
	Ativo   StatusFiltro = StatusFiltro(cliente.StatusAtivo)
	Inativo StatusFiltro = StatusFiltro(cliente.StatusInativo)
)

func (s StatusFiltro) Valido() bool { return s == Todos || s == Ativo || s == Inativo }

// Filtro combina os critérios da tela de listagem. Campos zero não filtram.
type Filtro struct {
	Texto         string
	Status        StatusFiltro
	Squad         *uint
	De            *time.Time
	Ate           *time.Time
	Pagina        int
	TamanhoPagina int
}

type Pagina struct {
	Itens   []cliente.Cliente
	Total   int
	Paginas int
}

type predicado func(*cliente.Cliente) bool

// predicados na ordem fixa texto, status, squad, de, ate.
func (f Filtro) predicados() []predicado {
	var ps []predicado
	if q := strings.TrimSpace(f.Texto); q != "" {
		q = cases.Fold().String(q)
		ps = append(ps, func(c *cliente.Cliente) bool {
			return strings.Contains(cases.Fold().String(c.StoreName), q)
		})
	}
	if f.Status != Todos {
		st := cliente.Status(f.Status)
		ps = append(ps, func(c *cliente.Cliente) bool { return c.Status == st })
	}
	if f.Squad != nil {
		id := *f.Squad
		ps = append(ps, func(c *cliente.Cliente) bool { return c.SquadID != nil && *c.SquadID == id })
	}
	if f.De != nil {
		y, m, d := f.De.Date()
		de := time.Date(y, m, d, 0, 0, 0, 0, f.De.Location())
		ps = append(ps, func(c *cliente.Cliente) bool { return !c.CreatedAt.Before(de) })
	}
	if f.Ate != nil {
		y, m, d := f.Ate.Date()
		ate := time.Date(y, m, d+1, 0, 0, 0, 0, f.Ate.Location())
		ps = append(ps, func(c *cliente.Cliente) bool { return c.CreatedAt.Before(ate) })
	}
	return ps
}

// Aplicar não altera a fatia recebida. Página fora do intervalo volta vazia
// com os totais corretos.
func Aplicar(clientes []cliente.Cliente, f Filtro) (Pagina, error) {
	if f.TamanhoPagina <= 0 {
		return Pagina{}, ErrTamanhoPaginaInvalido
	}
	ps := f.predicados()
	filtrados := make([]cliente.Cliente, 0, len(clientes))
	for i := range clientes {
		if passa(&clientes[i], ps) {
			filtrados = append(filtrados, clientes[i])
		}
	}
	Ordenar(filtrados)

	total, n := len(filtrados), f.TamanhoPagina
	p := Pagina{
		Itens:   []cliente.Cliente{},
		Total:   total,
		Paginas: total / n,
	}
	if total%n != 0 {
		p.Paginas++
	}
	if f.Pagina < 0 || f.Pagina >= p.Paginas {
		return p, nil
	}
	// Pagina < Paginas garante ini < total, então nada aqui transborda.
	ini := f.Pagina * n
	fim := total
	if total-ini > n {
		fim = ini + n
	}
	p.Itens = filtrados[ini:fim]
	return p, nil
}

func passa(c *cliente.Cliente, ps []predicado) bool {
	for _, p := range ps {
		if !p(c) {
			return false
		}
	}
	return true
}

// Ordenar por store_name sem diferenciar caixa, desempate por id. Cada nome
// é dobrado uma vez só.
func Ordenar(cs []cliente.Cliente) {
	fold := cases.Fold()
	type chave struct {
		nome string
		c    cliente.Cliente
	}
	ks := make([]chave, len(cs))
	for i := range cs {
		ks[i] = chave{nome: fold.String(cs[i].StoreName), c: cs[i]}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].nome != ks[j].nome {
			return ks[i].nome < ks[j].nome
		}
		return ks[i].c.ID < ks[j].c.ID
	})
	for i := range ks {
		cs[i] = ks[i].c
	}
}

// Metricas é o último mês com ACOS ou TACOS preenchido.
type Metricas struct {
	Periodo cliente.Periodo
	Acos    cliente.Numero
	Tacos   cliente.Numero
}

// UltimasMetricas devolve ok=false quando nenhum mês tem ACOS nem TACOS.
func UltimasMetricas(c cliente.Cliente) (Metricas, bool) {
	for _, p := range c.MonthlyData.Periodos() {
		d, _ := c.MonthlyData.Lookup(p.Ano, p.Mes)
		if !d.Acos.Vazio() || !d.Tacos.Vazio() {
			return Metricas{Periodo: p, Acos: d.Acos, Tacos: d.Tacos}, true
		}
	}
	return Metricas{}, false
}
