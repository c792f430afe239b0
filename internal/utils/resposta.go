package utils

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
)

// ErrosCampo é o corpo de erro de validação: campo -> mensagens.
type ErrosCampo map[string][]string

func (e ErrosCampo) Add(campo, msg string) {
	e[campo] = append(e[campo], msg)
}

func (e ErrosCampo) Vazio() bool { return len(e) == 0 }

// Error permite devolver ErrosCampo como error.
func (e ErrosCampo) Error() string {
	campos := make([]string, 0, len(e))
	for c := range e {
		campos = append(campos, c)
	}
	sort.Strings(campos)
	partes := make([]string, 0, len(campos))
	for _, c := range campos {
		partes = append(partes, c+": "+strings.Join(e[c], "; "))
	}
	return "validação: " + strings.Join(partes, ", ")
}

// EscreverJSON serializa v com o status informado.
func EscreverJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// EscreverErrosCampo responde 400 com o mapa de erros por campo.
func EscreverErrosCampo(w http.ResponseWriter, erros ErrosCampo) {
	EscreverJSON(w, http.StatusBadRequest, erros)
}
