package notificacao

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/metrics"
)

// Webhook faz POST do evento em JSON numa URL fixa.
type Webhook struct {
	URL     string
	Client  *http.Client
	Log     *logger.Logger
	Metrics *metrics.Manager
}

func NovoWebhook(url string, timeout time.Duration, log *logger.Logger, m *metrics.Manager) *Webhook {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Webhook{
		URL:     url,
		Client:  &http.Client{Timeout: timeout},
		Log:     log.WithComponent("webhook"),
		Metrics: m,
	}
}

func (w *Webhook) Notificar(ctx context.Context, e Evento) (err error) {
	defer func() { w.Metrics.Notificacao("webhook", err) }()

	body, err := e.ToJSON()
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("montar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Evento", string(e.Tipo))

	resp, err := w.Client.Do(req)
	if err != nil {
		return fmt.Errorf("enviar webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook respondeu %d", resp.StatusCode)
	}
	w.Log.DebugContext(ctx, "webhook enviado", "tipo", e.Tipo, logger.FieldClienteID, e.ClienteID)
	return nil
}
