package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

// Cart is the per-user cart repository. One row per (user, product), quantity
// always >= 1.
type Cart struct {
	DB *gorm.DB
}

func (r *Cart) WithTx(tx *gorm.DB) *Cart {
	return &Cart{DB: tx}
}

func (r *Cart) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, wrap(err)
	}
	return items, nil
}

// AddItem merges qty into an existing line or creates one. The merged
// quantity may never exceed the product's current stock.
func (r *Cart) AddItem(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", domain.ErrValidation)
	}

	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID)
			}
			return err
		}

		res := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item)
		switch {
		case res.Error == nil:
			item.Quantity += qty
		case errors.Is(res.Error, gorm.ErrRecordNotFound):
			item = models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
		default:
			return res.Error
		}

		if item.Quantity > product.Stock {
			return fmt.Errorf("%w: only %d of %q available", domain.ErrInsufficientStock, product.Stock, product.Name)
		}
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return &item, nil
}

// UpdateItem sets the line quantity. qty <= 0 removes the line.
func (r *Cart) UpdateItem(ctx context.Context, userID, productID uint, qty int) (*models.CartItem, error) {
	var item models.CartItem
	removed := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: no cart line for product %d", domain.ErrNotFound, productID)
			}
			return err
		}

		if qty <= 0 {
			removed = true
			return tx.Delete(&item).Error
		}

		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, productID)
			}
			return err
		}
		if qty > product.Stock {
			return fmt.Errorf("%w: only %d of %q available", domain.ErrInsufficientStock, product.Stock, product.Name)
		}

		item.Quantity = qty
		return tx.Save(&item).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	if removed {
		return nil, nil
	}
	return &item, nil
}

func (r *Cart) RemoveItem(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: no cart line for product %d", domain.ErrNotFound, productID)
	}
	return nil
}

// ClearCart is idempotent: clearing an empty cart succeeds.
func (r *Cart) ClearCart(ctx context.Context, userID uint) error {
	return wrap(r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItem{}).Error)
}
