package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

// Catalog is the product/category repository. Stock is mutated only through
// AdjustStock.
type Catalog struct {
	DB *gorm.DB
}

// WithTx rebinds the repository to a running transaction.
func (r *Catalog) WithTx(tx *gorm.DB) *Catalog {
	return &Catalog{DB: tx}
}

// ProductFilter is the enumerated replacement for the stringly-typed query
// building the old API did. Only these fields can constrain a listing.
type ProductFilter struct {
	CategoryID *uint
	Featured   *bool
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

var productSortColumns = map[string]string{
	"price":       "price ASC",
	"-price":      "price DESC",
	"name":        "name ASC",
	"-name":       "name DESC",
	"sold":        "sold ASC",
	"-sold":       "sold DESC",
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
}

// ResolveSort validates a sort key against the whitelist. Empty input falls
// back to newest-first.
func ResolveSort(sort string) (string, error) {
	if sort == "" {
		return productSortColumns["-created_at"], nil
	}
	col, ok := productSortColumns[sort]
	if !ok {
		return "", fmt.Errorf("%w: unknown sort %q", domain.ErrValidation, sort)
	}
	return col, nil
}

func (r *Catalog) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
		}
		return nil, wrap(err)
	}
	return &product, nil
}

func (r *Catalog) ListProducts(ctx context.Context, f ProductFilter, sort string, offset, limit int) (int64, []models.Product, error) {
	order, err := ResolveSort(sort)
	if err != nil {
		return 0, nil, err
	}

	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, wrap(err)
	}

	items := make([]models.Product, 0, limit)
	if err := q.Order(order).Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, wrap(err)
	}
	return total, items, nil
}

func (r *Catalog) CreateProduct(ctx context.Context, prod *models.Product) error {
	return wrap(r.DB.WithContext(ctx).Create(prod).Error)
}

func (r *Catalog) SaveProduct(ctx context.Context, prod *models.Product) error {
	return wrap(r.DB.WithContext(ctx).Save(prod).Error)
}

func (r *Catalog) DeleteProduct(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Product{}, id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
	}
	return nil
}

// AdjustStock moves stock by delta and the sold counter by soldDelta in a
// single conditional UPDATE. The `stock + delta >= 0` predicate is the
// compare-and-swap: of two concurrent orders racing over the last units,
// exactly one statement matches the row. Zero affected rows means either the
// product is gone or the remaining stock cannot cover the delta.
func (r *Catalog) AdjustStock(ctx context.Context, id uint, delta, soldDelta int) error {
	res := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Updates(map[string]any{
			"stock": gorm.Expr("stock + ?", delta),
			"sold":  gorm.Expr("sold + ?", soldDelta),
		})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return wrap(err)
		}
		if n == 0 {
			return fmt.Errorf("%w: id %d", domain.ErrProductNotFound, id)
		}
		return fmt.Errorf("%w: product %d", domain.ErrInsufficientStock, id)
	}
	return nil
}

func (r *Catalog) GetCategory(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: category %d", domain.ErrNotFound, id)
		}
		return nil, wrap(err)
	}
	return &cat, nil
}

func (r *Catalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&cats).Error; err != nil {
		return nil, wrap(err)
	}
	return cats, nil
}

func (r *Catalog) CreateCategory(ctx context.Context, cat *models.Category) error {
	if err := r.validateParentChain(ctx, cat.ID, cat.ParentID); err != nil {
		return err
	}
	return wrap(r.DB.WithContext(ctx).Create(cat).Error)
}

func (r *Catalog) SaveCategory(ctx context.Context, cat *models.Category) error {
	if err := r.validateParentChain(ctx, cat.ID, cat.ParentID); err != nil {
		return err
	}
	return wrap(r.DB.WithContext(ctx).Save(cat).Error)
}

func (r *Catalog) DeleteCategory(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.Category{}, id)
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: category %d", domain.ErrNotFound, id)
	}
	return nil
}

const maxCategoryDepth = 32

// validateParentChain walks up from the proposed parent and rejects cycles
// and absurdly deep trees before they hit the table.
func (r *Catalog) validateParentChain(ctx context.Context, selfID uint, parentID *uint) error {
	seen := map[uint]bool{}
	if selfID != 0 {
		seen[selfID] = true
	}
	for depth := 0; parentID != nil; depth++ {
		if depth >= maxCategoryDepth {
			return fmt.Errorf("%w: category tree too deep", domain.ErrValidation)
		}
		if seen[*parentID] {
			return fmt.Errorf("%w: category parent chain cycles", domain.ErrValidation)
		}
		seen[*parentID] = true

		var parent models.Category
		if err := r.DB.WithContext(ctx).First(&parent, *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: parent category %d", domain.ErrNotFound, *parentID)
			}
			return wrap(err)
		}
		parentID = parent.ParentID
	}
	return nil
}
