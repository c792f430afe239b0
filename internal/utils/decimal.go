package utils

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrDecimalInvalido = errors.New("valor numérico inválido")
	ErrForaDeEscala    = errors.New("valor numérico fora da escala aceita")
)

// Limites de escala aceitos. Acima deles a comparação e a multiplicação de
// decimais passam a materializar inteiros gigantes ("1e50000000").
const (
	maxTamanhoTexto    = 64
	maxExpoente        = 30
	maxBitsCoeficiente = 128
)

// ParseDecimalOrZero converte texto em decimal. Aceita vírgula como separador
// decimal ("1.234,56" e "1234,56") e devolve zero para qualquer valor malformado
// ou fora de escala.
func ParseDecimalOrZero(s string) decimal.Decimal {
	d, ok := ParseDecimal(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseDecimal é a versão estrita: ok=false quando o texto não é numérico
// ou está fora dos limites de escala.
func ParseDecimal(s string) (decimal.Decimal, bool) {
	d, err := ConverterDecimal(s)
	return d, err == nil
}

// ConverterDecimal distingue texto malformado (ErrDecimalInvalido) de número
// fora de escala (ErrForaDeEscala).
func ConverterDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrDecimalInvalido
	}
	if len(s) > maxTamanhoTexto {
		return decimal.Zero, ErrForaDeEscala
	}
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrDecimalInvalido
	}
	if e := d.Exponent(); e > maxExpoente || e < -maxExpoente || d.Coefficient().BitLen() > maxBitsCoeficiente {
		return decimal.Zero, ErrForaDeEscala
	}
	return d, nil
}
