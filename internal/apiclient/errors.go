package apiclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrNaoAutenticado = errors.New("sessão expirada ou ausente, faça login novamente")

// ValidationError carrega as mensagens por campo de uma resposta 400.
type ValidationError struct {
	Campos map[string][]string
}

func (e *ValidationError) Error() string {
	chaves := make([]string, 0, len(e.Campos))
	for k := range e.Campos {
		chaves = append(chaves, k)
	}
	sort.Strings(chaves)
	partes := make([]string, 0, len(chaves))
	for _, k := range chaves {
		partes = append(partes, k+": "+strings.Join(e.Campos[k], " "))
	}
	return "validação: " + strings.Join(partes, "; ")
}

// HTTPError é qualquer outra resposta fora de 2xx.
type HTTPError struct {
	Status   int
	Mensagem string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Mensagem)
}
