package listagem

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/zebee/manager-api/internal/cliente"
)

func uptr(v uint) *uint { return &v }

func dia(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 15, 0, 0, 0, time.UTC) }

func amostra() []cliente.Cliente {
	return []cliente.Cliente{
		{ID: 1, StoreName: "Widgets Inc", Status: cliente.StatusAtivo, SquadID: uptr(1), CreatedAt: dia(2024, 1, 5)},
		{ID: 2, StoreName: "Acme Corp", Status: cliente.StatusAtivo, SquadID: uptr(2), CreatedAt: dia(2024, 2, 10)},
		{ID: 3, StoreName: "acme filial", Status: cliente.StatusInativo, SquadID: uptr(1), CreatedAt: dia(2024, 3, 1)},
		{ID: 4, StoreName: "Beta Store", Status: cliente.StatusInativo, CreatedAt: dia(2024, 3, 31)},
		{ID: 5, StoreName: "Acme Corp", Status: cliente.StatusAtivo, SquadID: uptr(1), CreatedAt: dia(2024, 4, 1)},
	}
}

func ids(cs []cliente.Cliente) []uint {
	out := make([]uint, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.ID)
	}
	return out
}

func TestAplicarFiltros(t *testing.T) {
	convey.Convey("Given a mixed client list", t, func() {
		cs := amostra()

		convey.Convey("Text matches case-insensitive substrings of store_name", func() {
			p, err := Aplicar(cs, Filtro{Texto: "  Acme ", TamanhoPagina: 10})
			convey.So(err, convey.ShouldBeNil)
			convey.So(ids(p.Itens), convey.ShouldResemble, []uint{2, 5, 3})
			for _, c := range p.Itens {
				convey.So(c.StoreName, convey.ShouldNotEqual, "Widgets Inc")
			}
		})
		convey.Convey("Active and inactive partition the full set", func() {
			at, _ := Aplicar(cs, Filtro{Status: Ativo, TamanhoPagina: 100})
			in, _ := Aplicar(cs, Filtro{Status: Inativo, TamanhoPagina: 100})
			all, _ := Aplicar(cs, Filtro{TamanhoPagina: 100})
			convey.So(at.Total+in.Total, convey.ShouldEqual, len(cs))
			convey.So(all.Total, convey.ShouldEqual, len(cs))
			visto := map[uint]int{}
			for _, c := range append(at.Itens, in.Itens...) {
				visto[c.ID]++
			}
			convey.So(visto, convey.ShouldHaveLength, len(cs))
		})
		convey.Convey("Squad filter keeps only that squad", func() {
			p, _ := Aplicar(cs, Filtro{Squad: uptr(1), TamanhoPagina: 10})
			convey.So(ids(p.Itens), convey.ShouldResemble, []uint{5, 3, 1})
		})
		convey.Convey("Date bounds are inclusive whole days", func() {
			de, ate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
			p, _ := Aplicar(cs, Filtro{De: &de, Ate: &ate, TamanhoPagina: 10})
			convey.So(ids(p.Itens), convey.ShouldResemble, []uint{3, 4})
		})
		convey.Convey("Filters commute with each other", func() {
			f := Filtro{Texto: "acme", Status: Ativo, Squad: uptr(1), TamanhoPagina: 10}
			p, _ := Aplicar(cs, f)
			convey.So(ids(p.Itens), convey.ShouldResemble, []uint{5})
		})
		convey.Convey("The input slice is left untouched", func() {
			_, _ = Aplicar(cs, Filtro{TamanhoPagina: 2})
			convey.So(ids(cs), convey.ShouldResemble, []uint{1, 2, 3, 4, 5})
		})
	})
}

func TestAplicarPaginacao(t *testing.T) {
	convey.Convey("Given 23 clients", t, func() {
		var cs []cliente.Cliente
		for i := 1; i <= 23; i++ {
			cs = append(cs, cliente.Cliente{ID: uint(i), StoreName: fmt.Sprintf("Loja %02d", i)})
		}

		convey.Convey("Pages add up to the filtered count for any size", func() {
			for size := 1; size <= 25; size++ {
				first, err := Aplicar(cs, Filtro{TamanhoPagina: size})
				convey.So(err, convey.ShouldBeNil)
				convey.So(first.Paginas, convey.ShouldEqual, (23+size-1)/size)
				soma := 0
				for pg := 0; pg < first.Paginas; pg++ {
					p, _ := Aplicar(cs, Filtro{TamanhoPagina: size, Pagina: pg})
					soma += len(p.Itens)
				}
				convey.So(soma, convey.ShouldEqual, 23)
			}
		})
		convey.Convey("An out of range page is empty but keeps the counts", func() {
			for _, pg := range []int{3, 99, -1} {
				p, err := Aplicar(cs, Filtro{TamanhoPagina: 10, Pagina: pg})
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Itens, convey.ShouldBeEmpty)
				convey.So(p.Total, convey.ShouldEqual, 23)
				convey.So(p.Paginas, convey.ShouldEqual, 3)
			}
		})
		convey.Convey("The last page holds the remainder", func() {
			p, _ := Aplicar(cs, Filtro{TamanhoPagina: 10, Pagina: 2})
			convey.So(ids(p.Itens), convey.ShouldResemble, []uint{21, 22, 23})
		})
		convey.Convey("A page size near MaxInt yields one page with everything", func() {
			for _, size := range []int{math.MaxInt, math.MaxInt - 1, math.MaxInt32} {
				p, err := Aplicar(cs, Filtro{TamanhoPagina: size})
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Paginas, convey.ShouldEqual, 1)
				convey.So(len(p.Itens), convey.ShouldEqual, 23)
			}
			p, _ := Aplicar(cs, Filtro{TamanhoPagina: math.MaxInt, Pagina: 1})
			convey.So(p.Itens, convey.ShouldBeEmpty)
		})
		convey.Convey("A non positive page size fails fast", func() {
			_, err := Aplicar(cs, Filtro{TamanhoPagina: 0})
			convey.So(err, convey.ShouldEqual, ErrTamanhoPaginaInvalido)
		})
	})

	convey.Convey("Given nothing to list", t, func() {
		p, err := Aplicar(nil, Filtro{TamanhoPagina: 20})
		convey.So(err, convey.ShouldBeNil)
		convey.So(p.Total, convey.ShouldEqual, 0)
		convey.So(p.Paginas, convey.ShouldEqual, 0)
		convey.So(p.Itens, convey.ShouldNotBeNil)
	})
}

func TestOrdenar(t *testing.T) {
	convey.Convey("Given names that differ only in case", t, func() {
		cs := []cliente.Cliente{
			{ID: 4, StoreName: "beta"},
			{ID: 3, StoreName: "ACME"},
			{ID: 1, StoreName: "Beta"},
			{ID: 2, StoreName: "acme"},
		}
		Ordenar(cs)
		convey.So(ids(cs), convey.ShouldResemble, []uint{2, 3, 1, 4})
		convey.So(cs[0].StoreName, convey.ShouldEqual, "acme")
	})
}

func TestUltimasMetricas(t *testing.T) {
	convey.Convey("Given monthly records", t, func() {
		var c cliente.Cliente
		c.MonthlyData.Set(2023, time.December, cliente.Desempenho{Acos: "8"})
		c.MonthlyData.Set(2024, time.February, cliente.Desempenho{Tacos: "4.5"})
		c.MonthlyData.Set(2024, time.March, cliente.Desempenho{Revenue: "100"})

		convey.Convey("The newest month with ACOS or TACOS wins", func() {
			m, ok := UltimasMetricas(c)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(m.Periodo, convey.ShouldResemble, cliente.Periodo{Ano: 2024, Mes: time.February})
			convey.So(string(m.Tacos), convey.ShouldEqual, "4.5")
		})
		convey.Convey("No metrics at all reports absence", func() {
			_, ok := UltimasMetricas(cliente.Cliente{})
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}
