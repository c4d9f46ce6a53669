package orders

import (
	"context"

	"github.com/andra1/bagelbot/pkg/db"
	"github.com/andra1/bagelbot/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the append-only order ledger. Rows are inserted once at
// successful checkout and never updated or deleted.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// Insert writes the record, reporting false when a row for the same
	// cart id already exists. The existing row is never overwritten.
	Insert(ctx context.Context, record *models.OrderRecord) (bool, error)
	FindByID(ctx context.Context, id string) (*models.OrderRecord, error)
	ListRecent(ctx context.Context, limit int) ([]models.OrderRecord, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Insert(ctx context.Context, record *models.OrderRecord) (bool, error) {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		if db.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListRecent(ctx context.Context, limit int) ([]models.OrderRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []models.OrderRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
