package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/zebee/manager-api/internal/apiclient"
	"github.com/zebee/manager-api/internal/listagem"
	"github.com/zebee/manager-api/internal/painel"
)

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	user := fs.String("u", "", "usuário")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" {
		return errors.New("informe -u USUARIO")
	}
	senha, err := a.lerSenha()
	if err != nil {
		return err
	}
	if _, err := a.api.Login(ctx, *user, senha); err != nil {
		if errors.Is(err, apiclient.ErrNaoAutenticado) {
			return errors.New("usuário ou senha inválidos")
		}
		return err
	}
	fmt.Fprintf(a.out, "sessão gravada em %s\n", a.sessao.Path())
	return nil
}

// lerSenha usa ZEBEE_PASSWORD ou o terminal sem eco; fora de um terminal lê uma linha.
func (a *app) lerSenha() (string, error) {
	if s := os.Getenv("ZEBEE_PASSWORD"); s != "" {
		return s, nil
	}
	fd := int(a.in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(os.Stderr, "senha: ")
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		return string(b), err
	}
	linha, err := bufio.NewReader(a.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(linha, "\r\n"), nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "sessão encerrada")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	u, err := a.api.Usuario(ctx)
	if err != nil {
		return err
	}
	squad := "-"
	if u.SquadName != nil {
		squad = *u.SquadName
	}
	fmt.Fprintf(a.out, "%s (id %d) superusuário=%t squad=%s\n", u.Username, u.ID, u.IsSuperuser, squad)
	return nil
}

func (a *app) dashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	from := fs.String("from", time.Now().AddDate(0, -5, 0).Format("2006-01")+"-01", "início AAAA-MM-DD")
	to := fs.String("to", time.Now().Format("2006-01-02"), "fim AAAA-MM-DD")
	local := fs.Bool("local", false, "calcula sobre o retrato local em vez de pedir ao servidor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var dto painel.ResultadoDTO
	if *local {
		iv, err := painel.ParseIntervalo(*from, *to, "")
		if err != nil {
			return err
		}
		u, err := a.api.Usuario(ctx)
		if err != nil {
			return err
		}
		snap, err := a.api.Atualizar(ctx)
		if err != nil {
			return err
		}
		dto = painel.ToDTO(painel.Calcular(snap.Visiveis(u), snap.Squads, iv, time.Now()))
	} else {
		var err error
		if dto, err = a.api.Dashboard(ctx, *from, *to); err != nil {
			return err
		}
	}
	imprimirPainel(a.out, dto)
	return nil
}

func imprimirPainel(out io.Writer, d painel.ResultadoDTO) {
	fmt.Fprintf(out, "Clientes ativos: %d (+%d novos)\n", d.TotalActiveClients, d.NewClientsInPeriod)
	fmt.Fprintf(out, "Cancelamentos: %d  Perdas (churn): R$ %.2f  Taxa: %.2f%%\n", d.CancelledClientsInPeriod, d.TotalChurnRevenueLoss, d.ChurnRate)
	fmt.Fprintf(out, "Receita total: R$ %.2f  Comissão total: R$ %.2f  Entradas: R$ %.2f\n", d.TotalRevenue, d.TotalCommission, d.Entries)
	fmt.Fprintf(out, "LTV estimado: R$ %.2f\n\n", d.LTV.Value)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MÊS\tPERÍODO\tRECEITA\tCOMISSÃO\tCHURN")
	for _, m := range d.CompanyHistoryData {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.2f\n", m.Month, m.Period, m.Revenue, m.Commission, m.Churn)
	}
	fmt.Fprintln(tw, "\nSQUAD\tRECEITA\tATIVOS\tNOVOS\tCHURNS")
	for i, s := range d.SquadRevenueData {
		fmt.Fprintf(tw, "%s\t%.2f\t%d\t%d\t%d\n", s.Name, s.Revenue,
			d.ActiveClientsBySquadData[i].Value, d.SquadAcquisitionChurn[i].NewClients, d.SquadAcquisitionChurn[i].Churns)
	}
	_ = tw.Flush()
}

func (a *app) clients(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("clients", flag.ContinueOnError)
	q := fs.String("q", "", "texto no nome da loja")
	status := fs.String("status", "", "Ativo, Inativo ou vazio")
	squad := fs.Uint("squad", 0, "id do squad")
	from := fs.String("from", "", "criado a partir de AAAA-MM-DD")
	to := fs.String("to", "", "criado até AAAA-MM-DD")
	page := fs.Int("page", 0, "página, a partir de 0")
	size := fs.Int("page-size", listagem.TamanhoPaginaPadrao, "itens por página")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f := listagem.Filtro{Texto: *q, Status: listagem.StatusFiltro(*status), Pagina: *page, TamanhoPagina: *size}
	if !f.Status.Valido() {
		return fmt.Errorf("status inválido %q", *status)
	}
	if *squad != 0 {
		id := *squad
		f.Squad = &id
	}
	var err error
	if f.De, err = dataOpcional(*from); err != nil {
		return err
	}
	if f.Ate, err = dataOpcional(*to); err != nil {
		return err
	}

	u, err := a.api.Usuario(ctx)
	if err != nil {
		return err
	}
	snap, err := a.api.Atualizar(ctx)
	if err != nil {
		return err
	}
	p, err := listagem.Aplicar(snap.Visiveis(u), f)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOJA\tSTATUS\tPLANO\tACOS/TACOS")
	for _, c := range p.Itens {
		metricas := "-"
		if m, ok := listagem.UltimasMetricas(c); ok {
			metricas = fmt.Sprintf("%s/%s (%02d/%d)", vazioTraco(string(m.Acos)), vazioTraco(string(m.Tacos)), m.Periodo.Mes, m.Periodo.Ano)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.StoreName, c.Status, c.PlanValue.StringFixed(2), metricas)
	}
	_ = tw.Flush()
	fmt.Fprintf(a.out, "\npágina %d de %d, %d clientes\n", *page+1, max(p.Paginas, 1), p.Total)
	return nil
}

func dataOpcional(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("data inválida %q", s)
	}
	return &t, nil
}

func vazioTraco(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// importar envia um cliente por vez. Erros de validação não interrompem o lote.
func (a *app) importar(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: zebeectl import ARQUIVO.json")
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var itens []json.RawMessage
	if err := json.Unmarshal(b, &itens); err != nil {
		return fmt.Errorf("%s: esperado um array JSON: %w", args[0], err)
	}

	bar := progressbar.Default(int64(len(itens)), "importando")
	var falhas []string
	for i, item := range itens {
		_, err := a.api.CriarCliente(ctx, item)
		_ = bar.Add(1)
		var ve *apiclient.ValidationError
		switch {
		case errors.As(err, &ve):
			falhas = append(falhas, fmt.Sprintf("item %d: %s", i, ve.Error()))
		case err != nil:
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	fmt.Fprintf(a.out, "%d importados, %d rejeitados\n", len(itens)-len(falhas), len(falhas))
	for _, f := range falhas {
		fmt.Fprintln(a.out, "  "+f)
	}
	return nil
}

func (a *app) excluir(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("uso: zebeectl delete ID")
	}
	id, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("id inválido %q", args[0])
	}
	if err := a.api.ExcluirCliente(ctx, uint(id)); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "cliente %d excluído\n", id)
	return nil
}
