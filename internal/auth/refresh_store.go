package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var ErrRefreshNaoEncontrado = errors.New("refresh token não encontrado")

// RefreshStore persiste refresh tokens.
type RefreshStore interface {
	Criar(ctx context.Context, rt *RefreshToken) error
	BuscarPorHash(ctx context.Context, hash string) (*RefreshToken, error)
	Revogar(ctx context.Context, id uint, em time.Time) error
	RevogarFamilia(ctx context.Context, familyID string, em time.Time) error
}

type gormRefreshStore struct {
	db *gorm.DB
}

func NovoRefreshStore(db *gorm.DB) RefreshStore {
	return &gormRefreshStore{db: db}
}

func (s *gormRefreshStore) Criar(ctx context.Context, rt *RefreshToken) error {
	return s.db.WithContext(ctx).Create(rt).Error
}

func (s *gormRefreshStore) BuscarPorHash(ctx context.Context, hash string) (*RefreshToken, error) {
	var rt RefreshToken
	err := s.db.WithContext(ctx).Where("hash = ?", hash).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshNaoEncontrado
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

func (s *gormRefreshStore) Revogar(ctx context.Context, id uint, em time.Time) error {
	return s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", em).Error
}

func (s *gormRefreshStore) RevogarFamilia(ctx context.Context, familyID string, em time.Time) error {
	return s.db.WithContext(ctx).Model(&RefreshToken{}).
		Where("family_id = ? AND revoked_at IS NULL", familyID).
		Update("revoked_at", em).Error
}

// Migrate cria a tabela de refresh tokens.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&RefreshToken{})
}
