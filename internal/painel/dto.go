package painel

import "github.com/shopspring/decimal"

// Os nomes seguem as séries que o front-end já consome nos gráficos.

type MesDTO struct {
	Month      string  `json:"month"`
	Period     string  `json:"period"`
	Revenue    float64 `json:"revenue"`
	Commission float64 `json:"commission"`
	Churn      float64 `json:"churn"`
}

type SquadReceitaDTO struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Revenue float64 `json:"revenue"`
}

type SquadAtivosDTO struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type SquadAquisicaoDTO struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	NewClients int    `json:"newClients"`
	Churns     int    `json:"churns"`
}

type LTVDTO struct {
	AverageLifespanMonths float64 `json:"averageLifespanMonths"`
	AverageRecurrence     float64 `json:"averageRecurrence"`
	AvgNewClientsPerMonth float64 `json:"avgNewClientsPerMonth"`
	Value                 float64 `json:"value"`
}

type ResultadoDTO struct {
	TotalActiveClients       int                 `json:"totalActiveClients"`
	NewClientsInPeriod       int                 `json:"newClientsInPeriod"`
	CancelledClientsInPeriod int                 `json:"cancelledClientsInPeriod"`
	TotalChurnRevenueLoss    float64             `json:"totalChurnRevenueLoss"`
	ChurnRate                float64             `json:"churnRate"`
	Entries                  float64             `json:"entries"`
	TotalRevenue             float64             `json:"totalRevenue"`
	TotalCommission          float64             `json:"totalCommission"`
	UnassignedRevenue        float64             `json:"unassignedRevenue"`
	LTV                      LTVDTO              `json:"ltv"`
	CompanyHistoryData       []MesDTO            `json:"companyHistoryData"`
	SquadRevenueData         []SquadReceitaDTO   `json:"squadRevenueData"`
	ActiveClientsBySquadData []SquadAtivosDTO    `json:"activeClientsBySquadData"`
	SquadAcquisitionChurn    []SquadAquisicaoDTO `json:"squadAcquisitionChurnData"`
}

func f(d decimal.Decimal) float64 {
	v, _ := d.Round(2).Float64()
	return v
}

func MesesDTO(meses []MesResumo) []MesDTO {
	out := make([]MesDTO, 0, len(meses))
	for _, m := range meses {
		out = append(out, MesDTO{
			Month:      m.Rotulo,
			Period:     m.Periodo,
			Revenue:    f(m.Receita),
			Commission: f(m.Comissao),
			Churn:      f(m.Churn),
		})
	}
	return out
}

func ToDTO(r Resultado) ResultadoDTO {
	dto := ResultadoDTO{
		TotalActiveClients:       r.TotalClientesAtivos,
		NewClientsInPeriod:       r.NovosNoPeriodo,
		CancelledClientsInPeriod: r.CanceladosNoPeriodo,
		TotalChurnRevenueLoss:    f(r.PerdaChurn),
		ChurnRate:                f(r.TaxaChurn),
		Entries:                  f(r.Entradas),
		TotalRevenue:             f(r.ReceitaTotal),
		TotalCommission:          f(r.ComissaoTotal),
		UnassignedRevenue:        f(r.ReceitaSemSquad),
		LTV: LTVDTO{
			AverageLifespanMonths: f(r.LTV.VidaMediaMeses),
			AverageRecurrence:     f(r.LTV.RecorrenciaMedia),
			AvgNewClientsPerMonth: f(r.LTV.NovosPorMes),
			Value:                 f(r.LTV.Valor),
		},
		CompanyHistoryData:       MesesDTO(r.Meses),
		SquadRevenueData:         make([]SquadReceitaDTO, 0, len(r.Squads)),
		ActiveClientsBySquadData: make([]SquadAtivosDTO, 0, len(r.Squads)),
		SquadAcquisitionChurn:    make([]SquadAquisicaoDTO, 0, len(r.Squads)),
	}
	for _, s := range r.Squads {
		dto.SquadRevenueData = append(dto.SquadRevenueData, SquadReceitaDTO{ID: s.SquadID, Name: s.Nome, Revenue: f(s.Receita)})
		dto.ActiveClientsBySquadData = append(dto.ActiveClientsBySquadData, SquadAtivosDTO{ID: s.SquadID, Name: s.Nome, Value: s.ClientesAtivos})
		dto.SquadAcquisitionChurn = append(dto.SquadAcquisitionChurn, SquadAquisicaoDTO{ID: s.SquadID, Name: s.Nome, NewClients: s.Novos, Churns: s.Churns})
	}
	return dto
}
