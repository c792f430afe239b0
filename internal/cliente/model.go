package cliente

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zebee/manager-api/internal/squad"
)

type Status string

const (
	StatusAtivo   Status = "Ativo"
	StatusInativo Status = "Inativo"
)

func (s Status) Valido() bool { return s == StatusAtivo || s == StatusInativo }

// Cliente é um lojista com contrato ativo ou encerrado.
type Cliente struct {
	ID      uint         `gorm:"primaryKey" json:"id"`
	SquadID *uint        `gorm:"index" json:"squad"`
	Squad   *squad.Squad `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`

	SellerName     string `gorm:"size:255;not null" json:"seller_name"`
	StoreName      string `gorm:"size:255;not null;index" json:"store_name"`
	SellerID       string `gorm:"size:100" json:"seller_id"`
	SellerEmail    string `gorm:"size:254" json:"seller_email"`
	PhoneNumber    string `gorm:"size:30" json:"phone_number"`
	ContractedPlan string `gorm:"size:100" json:"contracted_plan"`

	Status Status `gorm:"size:10;not null;default:Ativo;index" json:"status"`

	PlanValue                  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"plan_value"`
	ClientCommissionPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"client_commission_percentage"`
	HasSpecialCommission       bool            `gorm:"not null;default:false" json:"has_special_commission"`
	SpecialCommissionThreshold decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"special_commission_threshold"`

	MonthlyData DadosMensais `gorm:"type:jsonb;serializer:json" json:"monthly_data"`

	CreatedAt       time.Time  `json:"created_at"`
	StatusChangedAt *time.Time `json:"status_changed_at"`
	UpdatedAt       time.Time  `json:"-"`
}

func (Cliente) TableName() string { return "clientes" }

var ErrChurnAntesDaCriacao = errors.New("status_changed_at anterior a created_at")

// TransicionarStatus aplica o ciclo de vida do status:
//   - para Ativo: limpa status_changed_at;
//   - para Inativo: usa a data explícita, senão mantém a já registrada,
//     senão carimba agora.
func (c *Cliente) TransicionarStatus(novo Status, explicita *time.Time, agora time.Time) {
	c.Status = novo
	switch {
	case novo == StatusAtivo:
		c.StatusChangedAt = nil
	case explicita != nil:
		t := *explicita
		c.StatusChangedAt = &t
	case c.StatusChangedAt == nil:
		t := agora
		c.StatusChangedAt = &t
	}
}

// Consistente confere a regra de qualidade: inativo tem data de churn não anterior à criação.
func (c *Cliente) Consistente() error {
	if c.Status != StatusInativo {
		return nil
	}
	if c.StatusChangedAt == nil {
		return fmt.Errorf("cliente inativo sem status_changed_at")
	}
	if c.StatusChangedAt.Before(c.CreatedAt) {
		return ErrChurnAntesDaCriacao
	}
	return nil
}
