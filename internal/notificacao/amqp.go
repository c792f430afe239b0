package notificacao

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
)

// publicador é o subconjunto de *amqp091.Channel usado aqui.
type publicador interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// AMQP publica eventos numa exchange direct usando o Tipo como routing key.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	ch       publicador
	exchange string
	log      *logger.Logger
	metrics  *metrics.Manager
}

func NovoAMQP(url, exchange string, log *logger.Logger, m *metrics.Manager) (*AMQP, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("abrir canal: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declarar exchange: %w", err)
	}
	a := novoAMQPCom(ch, exchange, log, m)
	a.conn = conn
	return a, nil
}

func novoAMQPCom(p publicador, exchange string, log *logger.Logger, m *metrics.Manager) *AMQP {
	return &AMQP{ch: p, exchange: exchange, log: log.WithComponent("amqp"), metrics: m}
}

func (a *AMQP) Notificar(ctx context.Context, e Evento) (err error) {
	defer func() { a.metrics.Notificacao("amqp", err) }()

	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a.mu.Lock()
	defer a.mu.Unlock()
	err = a.ch.PublishWithContext(ctx, a.exchange, string(e.Tipo), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    e.ID,
		Type:         string(e.Tipo),
		Timestamp:    e.Em,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publicar evento: %w", err)
	}
	a.log.InfoContext(ctx, "evento publicado", "tipo", e.Tipo, logger.FieldClienteID, e.ClienteID, "exchange", a.exchange)
	return nil
}

func (a *AMQP) Close() error {
	if a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
