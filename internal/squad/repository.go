package squad

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNaoEncontrado = errors.New("squad não encontrado")
	ErrNomeDuplicado = errors.New("squad com este nome já existe")
)

type Repository interface {
	ListAll(db *gorm.DB) ([]Squad, error)
	FindByID(db *gorm.DB, id uint) (*Squad, error)
	Save(db *gorm.DB, s *Squad) error
	Update(db *gorm.DB, s *Squad) error
	Delete(db *gorm.DB, id uint) error
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

const selectComAtivos = `squads.*, (SELECT COUNT(*) FROM clientes c WHERE c.squad_id = squads.id AND c.status = 'Ativo') AS active_clients`

func (r *repositoryImpl) ListAll(db *gorm.DB) ([]Squad, error) {
	var list []Squad
	err := db.Model(&Squad{}).Select(selectComAtivos).Order("name").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Squad, error) {
	var s Squad
	err := db.Model(&Squad{}).Select(selectComAtivos).Where("squads.id = ?", id).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNaoEncontrado
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, s *Squad) error {
	return traduzir(db.Create(s).Error)
}

func (r *repositoryImpl) Update(db *gorm.DB, s *Squad) error {
	res := db.Model(&Squad{}).Where("id = ?", s.ID).Update("name", s.Name)
	if res.Error != nil {
		return traduzir(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Squad{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

func traduzir(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "SQLSTATE 23505") {
		return ErrNomeDuplicado
	}
	return err
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Squad{})
}
