package cliente

import (
	"errors"

	"gorm.io/gorm"

	"github.com/zebee/manager-api/internal/squad"
)

var ErrNaoEncontrado = errors.New("cliente não encontrado")

// Escopo limita os clientes visíveis. Todos ignora SquadID; sem Todos e sem
// SquadID nada é visível.
type Escopo struct {
	Todos   bool
	SquadID *uint
}

// Permite diz se um cliente do squad informado está no escopo.
func (e Escopo) Permite(squadID *uint) bool {
	if e.Todos {
		return true
	}
	return e.SquadID != nil && squadID != nil && *e.SquadID == *squadID
}

type Repository interface {
	ListAll(db *gorm.DB, escopo Escopo) ([]Cliente, error)
	FindByID(db *gorm.DB, id uint) (*Cliente, error)
	Save(db *gorm.DB, c *Cliente) error
	Update(db *gorm.DB, c *Cliente) error
	Delete(db *gorm.DB, id uint) error
	SquadExists(db *gorm.DB, id uint) (bool, error)
}

type repositoryImpl struct{}

func NewRepository() Repository {
	return &repositoryImpl{}
}

func (r *repositoryImpl) ListAll(db *gorm.DB, escopo Escopo) ([]Cliente, error) {
	q := db.Model(&Cliente{})
	if !escopo.Todos {
		if escopo.SquadID == nil {
			return []Cliente{}, nil
		}
		q = q.Where("squad_id = ?", *escopo.SquadID)
	}
	var list []Cliente
	err := q.Order("store_name").Order("id").Find(&list).Error
	return list, err
}

func (r *repositoryImpl) FindByID(db *gorm.DB, id uint) (*Cliente, error) {
	var c Cliente
	err := db.First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNaoEncontrado
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repositoryImpl) Save(db *gorm.DB, c *Cliente) error {
	return db.Omit("Squad").Create(c).Error
}

func (r *repositoryImpl) Update(db *gorm.DB, c *Cliente) error {
	return db.Omit("Squad").Save(c).Error
}

// Delete remove o registro de vez; não há exclusão lógica.
func (r *repositoryImpl) Delete(db *gorm.DB, id uint) error {
	res := db.Delete(&Cliente{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

func (r *repositoryImpl) SquadExists(db *gorm.DB, id uint) (bool, error) {
	var n int64
	err := db.Model(&squad.Squad{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Cliente{})
}
