package painel

import "time"

// Intervalo fechado [De, Ate]. Ate zero vale De.
type Intervalo struct {
	De  time.Time
	Ate time.Time
}

func inicioMes(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func fimMes(t time.Time) time.Time {
	return inicioMes(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func inicioDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func fimDia(t time.Time) time.Time {
	return inicioDia(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func dentro(t, de, ate time.Time) bool {
	return !t.Before(de) && !t.After(ate)
}

// mesesDoIntervalo enumera o primeiro instante de cada mês tocado pelo intervalo.
func mesesDoIntervalo(de, ate time.Time) []time.Time {
	var out []time.Time
	for m := inicioMes(de); !m.After(ate); m = m.AddDate(0, 1, 0) {
		out = append(out, m)
	}
	return out
}

// mesesEntre conta meses de calendário completos entre a e b, nunca negativo.
func mesesEntre(a, b time.Time) int {
	if !b.After(a) {
		return 0
	}
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	n := (by-ay)*12 + int(bm-am)
	if bd < ad {
		n--
	}
	if n < 0 {
		return 0
	}
	return n
}

var rotulosPtBR = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// rotuloMes é a abreviação pt-BR usada nos gráficos.
func rotuloMes(m time.Month) string { return rotulosPtBR[m-1] }
