// Package apiclient é a camada de acesso do painel à API: recebe o
// SessionProvider na construção, anexa o Bearer e mantém um retrato
// em memória trocado de forma atômica.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/zebee/manager-api/internal/cliente"
	"github.com/zebee/manager-api/internal/logger"
	"github.com/zebee/manager-api/internal/painel"
	"github.com/zebee/manager-api/internal/squad"
)

const timeoutPadrao = 15 * time.Second

type Client struct {
	base   *url.URL
	http   *http.Client
	sessao SessionProvider
	log    *logger.Logger
	agora  func() time.Time

	snap atomic.Pointer[Snapshot]
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l.WithComponent("apiclient")
		}
	}
}

// New não faz I/O; chame sessao.Load antes se o token vem de disco.
func New(baseURL string, sessao SessionProvider, opts ...Option) (*Client, error) {
	if sessao == nil {
		return nil, errors.New("apiclient: session provider obrigatório")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("apiclient: url base inválida %q", baseURL)
	}
	c := &Client{
		base:   u,
		http:   &http.Client{Timeout: timeoutPadrao},
		sessao: sessao,
		log:    logger.Nop(),
		agora:  time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// do executa uma chamada. Sem retries: toda falha é final para a ação.
func (c *Client) do(ctx context.Context, method, path string, q url.Values, in, out any) error {
	u := c.base.ResolveReference(&url.URL{Path: strings.TrimPrefix(path, "/")})
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.sessao.Get(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Debug("api", logger.FieldMethod, method, logger.FieldPath, path, logger.FieldStatus, resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.sessao.Clear(); err != nil {
			c.log.Warn("falha ao limpar sessão", logger.FieldError, err)
		}
		return ErrNaoAutenticado
	case resp.StatusCode == http.StatusBadRequest:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		var campos map[string][]string
		if json.Unmarshal(b, &campos) == nil && len(campos) > 0 {
			return &ValidationError{Campos: campos}
		}
		return &HTTPError{Status: resp.StatusCode, Mensagem: strings.TrimSpace(string(b))}
	case resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return &HTTPError{Status: resp.StatusCode, Mensagem: strings.TrimSpace(string(b))}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decodificar %s: %w", path, err)
	}
	return nil
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	Access      string `json:"access"`
	ExpiresIn   int    `json:"expires_in"`
}

// Login grava o token no provider quando ele implementa SessionWriter.
func (c *Client) Login(ctx context.Context, username, senha string) (string, error) {
	var tr tokenResponse
	in := map[string]string{"username": username, "password": senha}
	if err := c.do(ctx, http.MethodPost, "auth/login/", nil, in, &tr); err != nil {
		return "", err
	}
	tok := tr.AccessToken
	if tok == "" {
		tok = tr.Access
	}
	if tok == "" {
		return "", errors.New("resposta de login sem token")
	}
	if w, ok := c.sessao.(SessionWriter); ok {
		if err := w.Set(tok); err != nil {
			return "", fmt.Errorf("gravar sessão: %w", err)
		}
	}
	return tok, nil
}

// Logout sempre limpa a sessão local, mesmo se o servidor falhar.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "auth/logout/", nil, nil, nil)
	c.snap.Store(nil)
	if cerr := c.sessao.Clear(); cerr != nil && err == nil {
		err = cerr
	}
	if errors.Is(err, ErrNaoAutenticado) {
		return nil
	}
	return err
}

// UsuarioAtual é o {id, isSuperuser, squadName} exposto pela API.
type UsuarioAtual struct {
	ID          uint    `json:"id"`
	Username    string  `json:"username"`
	IsSuperuser bool    `json:"is_superuser"`
	SquadName   *string `json:"squad_name"`
}

func (c *Client) Usuario(ctx context.Context) (UsuarioAtual, error) {
	var u UsuarioAtual
	err := c.do(ctx, http.MethodGet, "auth/user/", nil, nil, &u)
	return u, err
}

func (c *Client) Clientes(ctx context.Context) ([]cliente.Cliente, error) {
	var list []cliente.Cliente
	err := c.do(ctx, http.MethodGet, "clients/", nil, nil, &list)
	return list, err
}

func (c *Client) Squads(ctx context.Context) ([]squad.Squad, error) {
	var list []squad.Squad
	err := c.do(ctx, http.MethodGet, "squads/", nil, nil, &list)
	return list, err
}

// CriarCliente envia o payload do formulário como está.
func (c *Client) CriarCliente(ctx context.Context, payload any) (cliente.Cliente, error) {
	var out cliente.Cliente
	err := c.do(ctx, http.MethodPost, "clients/", nil, payload, &out)
	return out, err
}

func (c *Client) AtualizarCliente(ctx context.Context, id uint, payload any) (cliente.Cliente, error) {
	var out cliente.Cliente
	err := c.do(ctx, http.MethodPut, "clients/"+strconv.FormatUint(uint64(id), 10)+"/", nil, payload, &out)
	return out, err
}

// ExcluirCliente só remove do retrato local depois da confirmação do servidor.
func (c *Client) ExcluirCliente(ctx context.Context, id uint) error {
	if err := c.do(ctx, http.MethodDelete, "clients/"+strconv.FormatUint(uint64(id), 10)+"/", nil, nil, nil); err != nil {
		return err
	}
	c.removerLocal(id)
	return nil
}

// Dashboard pede ao servidor o painel já calculado. from vazio devolve zeros.
func (c *Client) Dashboard(ctx context.Context, from, to string) (painel.ResultadoDTO, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}
	var out painel.ResultadoDTO
	err := c.do(ctx, http.MethodGet, "dashboard/", q, nil, &out)
	return out, err
}
