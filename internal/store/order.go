package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

// Orders persists order rows and their item snapshots. Orders are never
// deleted.
type Orders struct {
	DB *gorm.DB
}

func (r *Orders) WithTx(tx *gorm.DB) *Orders {
	return &Orders{DB: tx}
}

func (r *Orders) Create(ctx context.Context, order *models.Order) error {
	return wrap(r.DB.WithContext(ctx).Create(order).Error)
}

func (r *Orders) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrOrderNotFound, id)
		}
		return nil, wrap(err)
	}
	return &order, nil
}

func (r *Orders) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, wrap(err)
	}
	return orders, nil
}

func (r *Orders) ListAll(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, wrap(err)
	}
	return orders, nil
}

func (r *Orders) Save(ctx context.Context, order *models.Order) error {
	return wrap(r.DB.WithContext(ctx).Save(order).Error)
}
