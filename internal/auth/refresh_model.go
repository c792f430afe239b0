package auth

import "time"

// RefreshToken guarda apenas o hash do valor entregue no cookie. Tokens da
// mesma família descendem do mesmo login.
type RefreshToken struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"index;not null"`
	FamilyID     string `gorm:"size:36;index;not null"`
	Hash         string `gorm:"size:64;uniqueIndex;not null"`
	Superusuario bool
	SquadID      *uint
	ExpiresAt    time.Time `gorm:"index"`
	RevokedAt    *time.Time
	CreatedAt    time.Time
}

func (RefreshToken) TableName() string { return "auth_refresh_tokens" }
