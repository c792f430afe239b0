package usuario

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNaoEncontrado = errors.New("usuário não encontrado")
	ErrUsernameEmUso = errors.New("username já está em uso")
)

type Repository interface {
	ListAll(db *gorm.DB) ([]Usuario, error)
	FindByID(db *gorm.DB, id uint) (*Usuario, error)
	FindByUsername(db *gorm.DB, username string) (*Usuario, error)
	Save(db *gorm.DB, u *Usuario) error
	Update(db *gorm.DB, u *Usuario) error
	Delete(db *gorm.DB, id uint) error
	Count(db *gorm.DB) (int64, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Usuario, error) {
	var list []Usuario
	err := db.Order("username").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Usuario, error) {
	var u Usuario
	err := db.Preload("Squad").First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNaoEncontrado
	}
	return &u, err
}

func (r *repositoryImpl) FindByUsername(db *gorm.DB, username string) (*Usuario, error) {
	var u Usuario
	err := db.Preload("Squad").Where("LOWER(username) = ?", strings.ToLower(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNaoEncontrado
	}
	return &u, err
}

func (r *repositoryImpl) Save(db *gorm.DB, u *Usuario) error {
	return traduzir(db.Omit("Squad").Create(u).Error)
}

func (r *repositoryImpl) Update(db *gorm.DB, u *Usuario) error {
	return traduzir(db.Omit("Squad").Save(u).Error)
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Usuario{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

func (r *repositoryImpl) Count(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&Usuario{}).Count(&n).Error
	return n, err
}

func traduzir(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "SQLSTATE 23505") {
		return ErrUsernameEmUso
	}
	return err
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Usuario{})
}
