package squad

import "time"

// Squad é o time ao qual um cliente é atribuído.
type Squad struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
	// ActiveClients é calculado na listagem, não existe como coluna.
	ActiveClients int64     `gorm:"->;-:migration" json:"active_clients"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"-"`
}

type SquadRequest struct {
	Name *string `json:"name"`
}
