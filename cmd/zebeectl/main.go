// zebeectl é o cliente de linha de comando do painel ZeBee.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/zebee/manager-api/internal/apiclient"
	"github.com/zebee/manager-api/internal/logger"
)

const uso = `uso: zebeectl [-api URL] [-session-dir DIR] <comando> [flags]

comandos:
  login -u USUARIO      autentica e grava o token
  logout                encerra a sessão
  whoami                mostra o usuário atual
  dashboard             painel do período (-from, -to, -local)
  clients               lista clientes com filtros (-q, -status, -squad, -from, -to, -page, -page-size)
  import ARQUIVO.json   cadastra clientes a partir de um array JSON
  delete ID             exclui um cliente
`

type app struct {
	api    *apiclient.Client
	sessao *apiclient.FileSession
	out    io.Writer
	in     *os.File
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, apiclient.ErrNaoAutenticado) {
			fmt.Fprintln(os.Stderr, "sessão inválida: rode zebeectl login")
		} else {
			fmt.Fprintln(os.Stderr, "erro:", err)
		}
		stop()
		os.Exit(1)
	}
}

func diretorioPadrao() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "zebee")
	}
	return "."
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("zebeectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	apiURL := fs.String("api", envOr("ZEBEE_API_URL", "http://localhost:8080"), "URL base da API")
	dir := fs.String("session-dir", envOr("ZEBEE_SESSION_DIR", diretorioPadrao()), "diretório do token")
	verbose := fs.Bool("v", false, "log das chamadas HTTP")
	if err := fs.Parse(args); err != nil {
		fmt.Fprint(out, uso)
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprint(out, uso)
		return errors.New("nenhum comando informado")
	}

	sessao := apiclient.NovaFileSession(*dir)
	if err := sessao.Load(); err != nil {
		return fmt.Errorf("ler sessão: %w", err)
	}
	nivel := "warn"
	if *verbose {
		nivel = "debug"
	}
	log := logger.New(logger.Config{Level: nivel, Component: "zebeectl", Output: os.Stderr})
	api, err := apiclient.New(*apiURL, sessao, apiclient.WithLogger(log))
	if err != nil {
		return err
	}
	a := &app{api: api, sessao: sessao, out: out, in: os.Stdin}

	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "dashboard":
		return a.dashboard(ctx, rest)
	case "clients":
		return a.clients(ctx, rest)
	case "import":
		return a.importar(ctx, rest)
	case "delete":
		return a.excluir(ctx, rest)
	default:
		fmt.Fprint(out, uso)
		return fmt.Errorf("comando desconhecido %q", cmd)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
