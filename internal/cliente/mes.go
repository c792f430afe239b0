package cliente

import (
	"fmt"
	"strings"
	"time"
)

// Chaves de mês aceitas em monthly_data. A busca é sempre por time.Month;
// o nome só existe na serialização.
var nomesMes = [12]string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

// NomeMes devolve a chave canônica ("march") de um mês.
func NomeMes(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return nomesMes[m-1]
}

// ParseMes aceita a chave canônica sem diferenciar maiúsculas e ignorando espaços.
// Qualquer outra grafia é erro, nunca "sem dados".
func ParseMes(s string) (time.Month, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for i, n := range nomesMes {
		if n == k {
			return time.Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("mês desconhecido %q", s)
}
