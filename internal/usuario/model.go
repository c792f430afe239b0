package usuario

import (
	"time"

	"github.com/zebee/manager-api/internal/squad"
)

type Usuario struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	Username     string       `gorm:"size:150;uniqueIndex;not null" json:"username"`
	PasswordHash string       `gorm:"size:100;not null" json:"-"`
	IsSuperuser  bool         `gorm:"not null;default:false" json:"is_superuser"`
	SquadID      *uint        `gorm:"index" json:"squad"`
	Squad        *squad.Squad `gorm:"foreignKey:SquadID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"-"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"-"`
}

func (Usuario) TableName() string { return "usuarios" }

// SquadNome devolve o nome do squad carregado, ou vazio.
func (u *Usuario) SquadNome() string {
	if u.Squad == nil {
		return ""
	}
	return u.Squad.Name
}

// UsuarioRequest: campos nulos mantêm o valor atual no PUT.
type UsuarioRequest struct {
	Username    *string `json:"username"`
	Password    *string `json:"password"`
	IsSuperuser *bool   `json:"is_superuser"`
	Squad       *uint   `json:"squad"`
}
