package cliente

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zebee/manager-api/internal/utils"
)

// Os campos abaixo nunca falham no UnmarshalJSON: guardam o problema para
// que a validação devolva erro por campo em vez de "payload inválido".

// CampoDecimal aceita número, string numérica, "" ou null (zero).
type CampoDecimal struct {
	Valor    decimal.Decimal
	Presente bool
	Invalido bool
}

func (c *CampoDecimal) UnmarshalJSON(b []byte) error {
	c.Presente = true
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		c.Valor = decimal.Zero
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			c.Invalido = true
			return nil
		}
		if strings.TrimSpace(s) == "" {
			c.Valor = decimal.Zero
			return nil
		}
		d, ok := utils.ParseDecimal(s)
		c.Valor, c.Invalido = d, !ok
		return nil
	}
	d, ok := utils.ParseDecimal(string(b))
	c.Valor, c.Invalido = d, !ok
	return nil
}

// CampoData aceita RFC 3339 ou "2006-01-02"; null limpa.
type CampoData struct {
	Valor    *time.Time
	Presente bool
	Invalido bool
}

var layoutsData = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func (c *CampoData) UnmarshalJSON(b []byte) error {
	c.Presente = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		c.Valor = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		c.Invalido = true
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		c.Valor = nil
		return nil
	}
	for _, l := range layoutsData {
		if t, err := time.Parse(l, s); err == nil {
			c.Valor = &t
			return nil
		}
	}
	c.Invalido = true
	return nil
}

// CampoSquad aceita um ID ou null (sem squad).
type CampoSquad struct {
	Valor    *uint
	Presente bool
	Invalido bool
}

func (c *CampoSquad) UnmarshalJSON(b []byte) error {
	c.Presente = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		c.Valor = nil
		return nil
	}
	var id uint
	if err := json.Unmarshal(b, &id); err != nil || id == 0 {
		c.Invalido = true
		return nil
	}
	c.Valor = &id
	return nil
}

type CampoDadosMensais struct {
	Valor    DadosMensais
	Presente bool
	Erro     error
}

func (c *CampoDadosMensais) UnmarshalJSON(b []byte) error {
	c.Presente = true
	c.Erro = c.Valor.UnmarshalJSON(b)
	return nil
}

// ClienteRequest é o corpo de POST /clients/ e PUT /clients/{id}/.
// Campos ausentes no PUT mantêm o valor atual.
type ClienteRequest struct {
	Squad                      CampoSquad        `json:"squad"`
	SellerName                 *string           `json:"seller_name"`
	StoreName                  *string           `json:"store_name"`
	SellerID                   *string           `json:"seller_id"`
	SellerEmail                *string           `json:"seller_email"`
	PhoneNumber                *string           `json:"phone_number"`
	ContractedPlan             *string           `json:"contracted_plan"`
	Status                     *Status           `json:"status"`
	PlanValue                  CampoDecimal      `json:"plan_value"`
	ClientCommissionPercentage CampoDecimal      `json:"client_commission_percentage"`
	HasSpecialCommission       *bool             `json:"has_special_commission"`
	SpecialCommissionThreshold CampoDecimal      `json:"special_commission_threshold"`
	MonthlyData                CampoDadosMensais `json:"monthly_data"`
	CreatedAt                  CampoData         `json:"created_at"`
	StatusChangedAt            CampoData         `json:"status_changed_at"`
}

const (
	msgObrigatorio = "Este campo é obrigatório."
	msgNumero      = "Um número válido é necessário."
	msgData        = "Formato inválido para data e hora."
)

var (
	limiteValor   = decimal.RequireFromString("99999999.99")
	limitePercent = decimal.NewFromInt(100)
)

// foraDoLimite aponta valores mensais numéricos com módulo acima de max ou
// fora da escala do decimal.
// Texto não numérico continua aceito e vale zero na leitura.
func foraDoLimite(d DadosMensais, max decimal.Decimal) []string {
	var msgs []string
	for _, p := range d.Periodos() {
		v, _ := d.Lookup(p.Ano, p.Mes)
		for _, campo := range []struct {
			nome string
			n    Numero
		}{{"revenue", v.Revenue}, {"acos", v.Acos}, {"tacos", v.Tacos}} {
			if campo.n.Vazio() {
				continue
			}
			x, err := utils.ConverterDecimal(string(campo.n))
			if errors.Is(err, utils.ErrForaDeEscala) || (err == nil && x.Abs().GreaterThan(max)) {
				msgs = append(msgs, fmt.Sprintf("%d/%s: %s deve estar entre -%s e %s.", p.Ano, NomeMes(p.Mes), campo.nome, max, max))
			}
		}
	}
	return msgs
}

func texto(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// Aplicar valida o request e grava os campos em c. Em criação c chega zerado.
// Não confere a existência do squad: isso fica com quem tem acesso ao banco.
func (req ClienteRequest) Aplicar(c *Cliente, criando bool, agora time.Time) utils.ErrosCampo {
	erros := utils.ErrosCampo{}

	strCampo := func(nome string, p *string, dst *string, obrigatorio bool, max int) {
		if p == nil {
			if criando && obrigatorio {
				erros.Add(nome, msgObrigatorio)
			}
			return
		}
		v := texto(p)
		switch {
		case obrigatorio && v == "":
			erros.Add(nome, "Este campo não pode ser em branco.")
		case len(v) > max:
			erros.Add(nome, "Certifique-se de que este campo não tenha mais caracteres que o permitido.")
		default:
			*dst = v
		}
	}
	strCampo("seller_name", req.SellerName, &c.SellerName, true, 255)
	strCampo("store_name", req.StoreName, &c.StoreName, true, 255)
	strCampo("seller_id", req.SellerID, &c.SellerID, false, 100)
	strCampo("phone_number", req.PhoneNumber, &c.PhoneNumber, false, 30)
	strCampo("contracted_plan", req.ContractedPlan, &c.ContractedPlan, false, 100)

	if req.SellerEmail != nil {
		v := texto(req.SellerEmail)
		if v != "" {
			if addr, err := mail.ParseAddress(v); err != nil || addr.Address != v {
				erros.Add("seller_email", "Insira um endereço de email válido.")
			}
		}
		c.SellerEmail = v
	}

	decCampo := func(nome string, f CampoDecimal, dst *decimal.Decimal, max decimal.Decimal) {
		if !f.Presente {
			return
		}
		switch {
		case f.Invalido:
			erros.Add(nome, msgNumero)
		case f.Valor.IsNegative():
			erros.Add(nome, "Certifique-se de que este valor seja maior ou igual a 0.")
		case f.Valor.GreaterThan(max):
			erros.Add(nome, "Certifique-se de que este valor seja menor ou igual a "+max.String()+".")
		default:
			*dst = f.Valor.Round(2)
		}
	}
	decCampo("plan_value", req.PlanValue, &c.PlanValue, limiteValor)
	decCampo("client_commission_percentage", req.ClientCommissionPercentage, &c.ClientCommissionPercentage, limitePercent)
	decCampo("special_commission_threshold", req.SpecialCommissionThreshold, &c.SpecialCommissionThreshold, limiteValor)

	if req.HasSpecialCommission != nil {
		c.HasSpecialCommission = *req.HasSpecialCommission
	}

	if req.Squad.Presente {
		if req.Squad.Invalido {
			erros.Add("squad", "Tipo incorreto. Esperado valor pk.")
		} else {
			c.SquadID = req.Squad.Valor
		}
	}

	if req.MonthlyData.Presente {
		switch {
		case req.MonthlyData.Erro != nil:
			erros.Add("monthly_data", req.MonthlyData.Erro.Error())
		default:
			if msgs := foraDoLimite(req.MonthlyData.Valor, limiteValor); len(msgs) > 0 {
				for _, m := range msgs {
					erros.Add("monthly_data", m)
				}
			} else {
				c.MonthlyData = req.MonthlyData.Valor
			}
		}
	}
	if c.MonthlyData == nil {
		c.MonthlyData = DadosMensais{}
	}

	if req.CreatedAt.Presente {
		switch {
		case req.CreatedAt.Invalido:
			erros.Add("created_at", msgData)
		case req.CreatedAt.Valor != nil:
			c.CreatedAt = *req.CreatedAt.Valor
		}
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = agora
	}

	novo := c.Status
	if req.Status != nil {
		if !req.Status.Valido() {
			erros.Add("status", `"`+string(*req.Status)+`" não é um escolha válido.`)
		} else {
			novo = *req.Status
		}
	}
	if novo == "" {
		novo = StatusAtivo
	}

	var explicita *time.Time
	if req.StatusChangedAt.Presente {
		if req.StatusChangedAt.Invalido {
			erros.Add("status_changed_at", msgData)
		} else {
			explicita = req.StatusChangedAt.Valor
		}
	}
	c.TransicionarStatus(novo, explicita, agora)

	if err := c.Consistente(); err != nil && erros["status_changed_at"] == nil && erros["created_at"] == nil {
		erros.Add("status_changed_at", "A data de mudança de status não pode ser anterior à data de criação.")
	}
	return erros
}
