package cliente

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zebee/manager-api/internal/utils"
)

// Numero guarda o texto digitado no formulário. Aceita string ou número JSON
// e é interpretado só na leitura (malformado vale zero).
type Numero string

func (n *Numero) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*n = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Numero(s)
	default:
		var num json.Number
		if err := json.Unmarshal(b, &num); err != nil {
			return fmt.Errorf("valor numérico inválido: %s", b)
		}
		*n = Numero(num.String())
	}
	return nil
}

func (n Numero) Decimal() decimal.Decimal { return utils.ParseDecimalOrZero(string(n)) }

func (n Numero) Vazio() bool { return len(bytes.TrimSpace([]byte(n))) == 0 }

// Desempenho é o registro mensal de um cliente.
type Desempenho struct {
	Revenue         Numero `json:"revenue"`
	Acos            Numero `json:"acos"`
	Tacos           Numero `json:"tacos"`
	WaiveMonthlyFee bool   `json:"waiveMonthlyFee"`
	WaiveCommission bool   `json:"waiveCommission"`
}

// DadosMensais indexa Desempenho por ano e mês. Ausência significa "sem
// registro", distinto de um registro com zeros.
type DadosMensais map[int]map[time.Month]Desempenho

// Lookup é o único caminho de leitura: ok=false quando não há registro.
func (d DadosMensais) Lookup(ano int, mes time.Month) (Desempenho, bool) {
	if d == nil {
		return Desempenho{}, false
	}
	meses, ok := d[ano]
	if !ok {
		return Desempenho{}, false
	}
	v, ok := meses[mes]
	return v, ok
}

func (d *DadosMensais) Set(ano int, mes time.Month, v Desempenho) {
	if *d == nil {
		*d = DadosMensais{}
	}
	if (*d)[ano] == nil {
		(*d)[ano] = map[time.Month]Desempenho{}
	}
	(*d)[ano][mes] = v
}

// Periodo identifica um mês de um ano.
type Periodo struct {
	Ano int
	Mes time.Month
}

// Periodos lista os meses com registro, do mais recente para o mais antigo.
func (d DadosMensais) Periodos() []Periodo {
	var out []Periodo
	for ano, meses := range d {
		for m := range meses {
			out = append(out, Periodo{Ano: ano, Mes: m})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Ano != out[j].Ano {
			return out[i].Ano > out[j].Ano
		}
		return out[i].Mes > out[j].Mes
	})
	return out
}

func (d DadosMensais) MarshalJSON() ([]byte, error) {
	wire := make(map[string]map[string]Desempenho, len(d))
	for ano, meses := range d {
		m := make(map[string]Desempenho, len(meses))
		for mes, v := range meses {
			m[NomeMes(mes)] = v
		}
		wire[strconv.Itoa(ano)] = m
	}
	return json.Marshal(wire)
}

func (d *DadosMensais) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*d = DadosMensais{}
		return nil
	}
	var wire map[string]map[string]Desempenho
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	out := make(DadosMensais, len(wire))
	for anoStr, meses := range wire {
		ano, err := strconv.Atoi(anoStr)
		if err != nil || ano < 1000 || ano > 9999 {
			return fmt.Errorf("ano inválido %q", anoStr)
		}
		if out[ano] == nil {
			out[ano] = make(map[time.Month]Desempenho, len(meses))
		}
		for nome, v := range meses {
			mes, err := ParseMes(nome)
			if err != nil {
				return fmt.Errorf("%d: %w", ano, err)
			}
			out[ano][mes] = v
		}
	}
	*d = out
	return nil
}
