// Package painel calcula os números do painel mensal: receita recorrente,
// comissão, churn e uma estimativa de LTV, sobre um retrato em memória dos
// clientes. Nenhuma função daqui faz I/O.
package painel

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/squad"
)

var cem = decimal.NewFromInt(100)

type MesResumo struct {
	Inicio   time.Time
	Rotulo   string
	Periodo  string
	Receita  decimal.Decimal
	Comissao decimal.Decimal
	Churn    decimal.Decimal
}

type SquadResumo struct {
	SquadID        uint
	Nome           string
	Receita        decimal.Decimal
	ClientesAtivos int
	Novos          int
	Churns         int
}

// LTV é uma projeção heurística, não um valor financeiro garantido: depende
// do tamanho do intervalo e deve ser recalculada sempre que ele mudar.
type LTV struct {
	VidaMediaMeses   decimal.Decimal
	RecorrenciaMedia decimal.Decimal
	NovosPorMes      decimal.Decimal
	Valor            decimal.Decimal
}

type Resultado struct {
	TotalClientesAtivos int
	NovosNoPeriodo      int
	CanceladosNoPeriodo int
	PerdaChurn          decimal.Decimal
	// TaxaChurn em porcentagem; zero quando não há clientes ativos.
	TaxaChurn     decimal.Decimal
	Entradas      decimal.Decimal
	ReceitaTotal  decimal.Decimal
	ComissaoTotal decimal.Decimal
	LTV           LTV

	Meses  []MesResumo
	Squads []SquadResumo
	// ReceitaSemSquad soma clientes sem squad ou com squad fora da lista.
	ReceitaSemSquad decimal.Decimal
}

func vazio() Resultado {
	return Resultado{Meses: []MesResumo{}, Squads: []SquadResumo{}}
}

// ativoNoMes: criado até o fim do mês e ativo agora, ou com mudança de
// status depois do início do mês.
func ativoNoMes(c *cliente.Cliente, ini, fim time.Time) bool {
	if c.CreatedAt.After(fim) {
		return false
	}
	return c.Status == cliente.StatusAtivo || (c.StatusChangedAt != nil && c.StatusChangedAt.After(ini))
}

// comissaoDoMes aplica o modo especial: só a receita estritamente acima do
// piso é comissionável.
func comissaoDoMes(c *cliente.Cliente, d cliente.Desempenho) decimal.Decimal {
	receita := d.Revenue.Decimal()
	if !receita.IsPositive() {
		return decimal.Zero
	}
	base := receita
	if c.HasSpecialCommission {
		if !receita.GreaterThan(c.SpecialCommissionThreshold) {
			return decimal.Zero
		}
		base = receita.Sub(c.SpecialCommissionThreshold)
	}
	return base.Mul(c.ClientCommissionPercentage).Div(cem)
}

func churnouEntre(c *cliente.Cliente, ini, fim time.Time) bool {
	return c.Status == cliente.StatusInativo && c.StatusChangedAt != nil && dentro(*c.StatusChangedAt, ini, fim)
}

// Calcular é uma função pura dos argumentos; agora só entra na vida média do LTV.
func Calcular(clientes []cliente.Cliente, squads []squad.Squad, iv *Intervalo, agora time.Time) Resultado {
	if iv == nil || iv.De.IsZero() {
		return vazio()
	}
	loc := iv.De.Location()
	de := iv.De
	ate := iv.Ate
	if ate.IsZero() {
		ate = de
	}
	ate = ate.In(loc)
	if ate.Before(de) {
		return vazio()
	}
	ivIni, ivFim := inicioDia(de), fimDia(ate)

	res := vazio()
	res.PerdaChurn, res.Entradas, res.ReceitaTotal, res.ComissaoTotal = decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	res.ReceitaSemSquad = decimal.Zero

	idx := make(map[uint]int, len(squads))
	for _, s := range squads {
		if _, dup := idx[s.ID]; dup {
			continue
		}
		idx[s.ID] = len(res.Squads)
		res.Squads = append(res.Squads, SquadResumo{SquadID: s.ID, Nome: s.Name, Receita: decimal.Zero})
	}
	squadDe := func(c *cliente.Cliente) *SquadResumo {
		if c.SquadID == nil {
			return nil
		}
		if i, ok := idx[*c.SquadID]; ok {
			return &res.Squads[i]
		}
		return nil
	}

	meses := mesesDoIntervalo(ivIni, ivFim)
	for _, m := range meses {
		ini, fim := m, fimMes(m)
		mr := MesResumo{
			Inicio:   m,
			Rotulo:   rotuloMes(m.Month()),
			Periodo:  m.Format("2006-01"),
			Receita:  decimal.Zero,
			Comissao: decimal.Zero,
			Churn:    decimal.Zero,
		}
		for i := range clientes {
			c := &clientes[i]
			d, temDados := c.MonthlyData.Lookup(m.Year(), m.Month())

			if ativoNoMes(c, ini, fim) {
				if !temDados || !d.WaiveMonthlyFee {
					mr.Receita = mr.Receita.Add(c.PlanValue)
					if s := squadDe(c); s != nil {
						s.Receita = s.Receita.Add(c.PlanValue)
					} else {
						res.ReceitaSemSquad = res.ReceitaSemSquad.Add(c.PlanValue)
					}
				}
				if temDados && !d.WaiveCommission {
					mr.Comissao = mr.Comissao.Add(comissaoDoMes(c, d))
				}
			}
			if churnouEntre(c, ini, fim) {
				mr.Churn = mr.Churn.Add(c.PlanValue)
			}
		}
		res.ReceitaTotal = res.ReceitaTotal.Add(mr.Receita)
		res.ComissaoTotal = res.ComissaoTotal.Add(mr.Comissao)
		res.Meses = append(res.Meses, mr)
	}

	somaVida := 0
	somaAtivos := decimal.Zero
	for i := range clientes {
		c := &clientes[i]
		s := squadDe(c)

		if c.Status == cliente.StatusAtivo {
			res.TotalClientesAtivos++
			somaAtivos = somaAtivos.Add(c.PlanValue)
			if s != nil {
				s.ClientesAtivos++
			}
		}
		if dentro(c.CreatedAt, ivIni, ivFim) {
			res.NovosNoPeriodo++
			res.Entradas = res.Entradas.Add(c.PlanValue)
			if s != nil {
				s.Novos++
			}
		}
		if churnouEntre(c, ivIni, ivFim) {
			res.CanceladosNoPeriodo++
			res.PerdaChurn = res.PerdaChurn.Add(c.PlanValue)
			if s != nil {
				s.Churns++
			}
		}

		fim := agora
		if c.Status == cliente.StatusInativo && c.StatusChangedAt != nil {
			fim = *c.StatusChangedAt
		}
		somaVida += mesesEntre(c.CreatedAt, fim)
	}

	res.TaxaChurn = decimal.Zero
	if res.TotalClientesAtivos > 0 {
		res.TaxaChurn = decimal.NewFromInt(int64(res.CanceladosNoPeriodo)).
			Div(decimal.NewFromInt(int64(res.TotalClientesAtivos))).Mul(cem)
	}

	res.LTV = LTV{VidaMediaMeses: decimal.Zero, RecorrenciaMedia: decimal.Zero, NovosPorMes: decimal.Zero, Valor: decimal.Zero}
	if n := len(clientes); n > 0 {
		res.LTV.VidaMediaMeses = decimal.NewFromInt(int64(somaVida)).Div(decimal.NewFromInt(int64(n)))
	}
	if res.TotalClientesAtivos > 0 {
		res.LTV.RecorrenciaMedia = somaAtivos.Div(decimal.NewFromInt(int64(res.TotalClientesAtivos)))
	}
	if len(meses) > 0 {
		res.LTV.NovosPorMes = decimal.NewFromInt(int64(res.NovosNoPeriodo)).Div(decimal.NewFromInt(int64(len(meses))))
	}
	res.LTV.Valor = res.LTV.RecorrenciaMedia.Mul(res.LTV.NovosPorMes).Mul(res.LTV.VidaMediaMeses)
	return res
}
