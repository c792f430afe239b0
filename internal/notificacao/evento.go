// Package notificacao publica eventos do ciclo de vida de clientes
// (criação, churn, reativação e remoção) para sistemas externos.
package notificacao

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Tipo string

const (
	ClienteCriado    Tipo = "cliente.criado"
	ClienteChurn     Tipo = "cliente.churn"
	ClienteReativado Tipo = "cliente.reativado"
	ClienteRemovido  Tipo = "cliente.removido"
)

type Evento struct {
	ID        string    `json:"id"`
	Tipo      Tipo      `json:"tipo"`
	ClienteID uint      `json:"cliente_id"`
	StoreName string    `json:"store_name"`
	SquadID   *uint     `json:"squad_id,omitempty"`
	PlanValue string    `json:"plan_value"`
	Em        time.Time `json:"em"`
}

func NovoEvento(tipo Tipo, clienteID uint, storeName string, squadID *uint, planValue string, em time.Time) Evento {
	return Evento{
		ID:        uuid.NewString(),
		Tipo:      tipo,
		ClienteID: clienteID,
		StoreName: storeName,
		SquadID:   squadID,
		PlanValue: planValue,
		Em:        em.UTC(),
	}
}

func (e Evento) ToJSON() ([]byte, error) { return json.Marshal(e) }

func FromJSON(b []byte) (Evento, error) {
	var e Evento
	err := json.Unmarshal(b, &e)
	return e, err
}

// Notificador entrega um evento. Erros são do chamador decidir; os handlers
// apenas registram em log.
type Notificador interface {
	Notificar(ctx context.Context, e Evento) error
}

type Nop struct{}

func (Nop) Notificar(context.Context, Evento) error { return nil }

// Multi entrega para todos e junta os erros.
type Multi []Notificador

func (m Multi) Notificar(ctx context.Context, e Evento) error {
	var errs []error
	for _, n := range m {
		if err := n.Notificar(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
