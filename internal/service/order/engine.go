package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/logging"
	"github.com/velmart/storefront/internal/models"
	"github.com/velmart/storefront/internal/store"
)

// Pricing is the server-side pricing policy. Client-supplied monetary fields
// are never consulted.
type Pricing struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
}

func DefaultPricing() Pricing {
	return Pricing{
		TaxRate:               decimal.NewFromFloat(0.10),
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
	}
}

// Breakdown is a computed price split for a cart.
type Breakdown struct {
	ItemsPrice    decimal.Decimal
	TaxPrice      decimal.Decimal
	ShippingPrice decimal.Decimal
	TotalPrice    decimal.Decimal
}

// Compute derives the full breakdown from the items subtotal. Each figure is
// rounded half-up to 2 places.
func (p Pricing) Compute(itemsPrice decimal.Decimal) Breakdown {
	items := itemsPrice.Round(2)
	tax := items.Mul(p.TaxRate).Round(2)
	shipping := p.FlatShippingFee
	if items.GreaterThan(p.FreeShippingThreshold) {
		shipping = decimal.Zero
	}
	shipping = shipping.Round(2)
	return Breakdown{
		ItemsPrice:    items,
		TaxPrice:      tax,
		ShippingPrice: shipping,
		TotalPrice:    items.Add(tax).Add(shipping).Round(2),
	}
}

// Engine owns the cart-to-order transition: validation, pricing, the atomic
// stock decrement + snapshot insert + cart clear, and the order lifecycle
// afterwards (status updates, cancellation with stock restore).
type Engine struct {
	DB      *gorm.DB
	Catalog *store.Catalog
	Cart    *store.Cart
	Orders  *store.Orders
	Pricing Pricing
}

func NewEngine(db *gorm.DB, pricing Pricing) *Engine {
	return &Engine{
		DB:      db,
		Catalog: &store.Catalog{DB: db},
		Cart:    &store.Cart{DB: db},
		Orders:  &store.Orders{DB: db},
		Pricing: pricing,
	}
}

// PlaceOrder turns the user's cart into an order. Everything that mutates
// state runs in one transaction: per-line stock decrement (guarded by the
// catalog's compare-and-swap), sold increment, order + snapshot insert, cart
// clear. Any failure rolls the whole thing back and leaves the cart as it was.
func (e *Engine) PlaceOrder(ctx context.Context, userID uint, addr models.ShippingAddress, paymentMethod string) (*models.Order, error) {
	if err := validateShipping(addr, paymentMethod); err != nil {
		return nil, err
	}

	items, err := e.Cart.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: nothing to order", domain.ErrEmptyCart)
	}

	var order *models.Order
	txErr := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := e.Catalog.WithTx(tx)

		itemsPrice := decimal.Zero
		lines := make([]models.OrderItem, 0, len(items))
		for _, it := range items {
			product, err := catalog.GetProduct(ctx, it.ProductID)
			if err != nil {
				return err
			}
			if product.Stock < it.Quantity {
				return fmt.Errorf("%w: only %d of %q available", domain.ErrInsufficientStock, product.Stock, product.Name)
			}

			unit := product.UnitPrice()
			itemsPrice = itemsPrice.Add(unit.Mul(decimal.NewFromInt(int64(it.Quantity))))
			lines = append(lines, models.OrderItem{
				ProductID: product.ID,
				Name:      product.Name,
				UnitPrice: models.NewMoney(unit),
				Quantity:  it.Quantity,
				Image:     product.Images.First(),
			})

			if err := catalog.AdjustStock(ctx, product.ID, -it.Quantity, it.Quantity); err != nil {
				return err
			}
		}

		bd := e.Pricing.Compute(itemsPrice)
		order = &models.Order{
			OrderNumber:     newOrderNumber(),
			UserID:          userID,
			Items:           lines,
			ShippingAddress: addr,
			PaymentMethod:   paymentMethod,
			ItemsPrice:      models.NewMoney(bd.ItemsPrice),
			TaxPrice:        models.NewMoney(bd.TaxPrice),
			ShippingPrice:   models.NewMoney(bd.ShippingPrice),
			TotalPrice:      models.NewMoney(bd.TotalPrice),
			Status:          models.OrderStatusProcessing,
		}
		if err := e.Orders.WithTx(tx).Create(ctx, order); err != nil {
			return err
		}
		return e.Cart.WithTx(tx).ClearCart(ctx, userID)
	})
	if txErr != nil {
		return nil, txErr
	}

	logging.FromContext(ctx).Info("order_placed",
		"order_number", order.OrderNumber,
		"user_id", userID,
		"total", order.TotalPrice.StringFixed(2),
	)
	return order, nil
}

// GetOrder returns an order to its owner or an admin.
func (e *Engine) GetOrder(ctx context.Context, orderID, actingUserID uint, actingRole string) (*models.Order, error) {
	order, err := e.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actingUserID && actingRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not your order", domain.ErrForbidden)
	}
	return order, nil
}

func (e *Engine) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return e.Orders.ListByUser(ctx, userID)
}

func (e *Engine) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return e.Orders.ListAll(ctx)
}

var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	// delivered and cancelled are terminal
}

func transitionAllowed(from, to models.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves an order along the lifecycle. Admin only. Moving to
// cancelled restores stock exactly like CancelOrder does.
func (e *Engine) UpdateStatus(ctx context.Context, orderID uint, next models.OrderStatus, actingRole string) (*models.Order, error) {
	if actingRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: admin only", domain.ErrForbidden)
	}
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, next)
	}

	order, err := e.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(order.Status, next) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, next)
	}

	if next == models.OrderStatusCancelled {
		return order, e.cancel(ctx, order)
	}

	updates := map[string]any{"status": next}
	if next == models.OrderStatusDelivered {
		now := time.Now()
		updates["is_delivered"] = true
		updates["delivered_at"] = now
		order.IsDelivered = true
		order.DeliveredAt = &now
	}
	if err := wrapTx(e.DB.WithContext(ctx).Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error); err != nil {
		return nil, err
	}
	order.Status = next

	logging.FromContext(ctx).Info("order_status_updated", "order_id", order.ID, "status", next)
	return order, nil
}

// CancelOrder cancels for the owning user or an admin, restoring every
// line's stock.
func (e *Engine) CancelOrder(ctx context.Context, orderID, actingUserID uint, actingRole string) (*models.Order, error) {
	order, err := e.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != actingUserID && actingRole != models.RoleAdmin {
		return nil, fmt.Errorf("%w: not your order", domain.ErrForbidden)
	}
	switch order.Status {
	case models.OrderStatusDelivered:
		return nil, fmt.Errorf("%w: order %d", domain.ErrAlreadyDelivered, order.ID)
	case models.OrderStatusCancelled:
		return nil, fmt.Errorf("%w: order %d already cancelled", domain.ErrInvalidTransition, order.ID)
	}

	if err := e.cancel(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// cancel restores stock for every snapshot line and flips the status, in one
// transaction, the inverse of PlaceOrder's mutation step. The status guard on
// the flip makes cancellation first-writer-wins: when two racers both loaded
// the order open, the loser's UPDATE matches no row and its stock restore
// rolls back with the transaction.
func (e *Engine) cancel(ctx context.Context, order *models.Order) error {
	txErr := e.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		catalog := e.Catalog.WithTx(tx)
		for _, line := range order.Items {
			if err := catalog.AdjustStock(ctx, line.ProductID, line.Quantity, -line.Quantity); err != nil {
				return err
			}
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status NOT IN ?", order.ID,
				[]models.OrderStatus{models.OrderStatusCancelled, models.OrderStatusDelivered}).
			Update("status", models.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %d already closed", domain.ErrInvalidTransition, order.ID)
		}
		return nil
	})
	if txErr != nil {
		return wrapTx(txErr)
	}
	order.Status = models.OrderStatusCancelled

	logging.FromContext(ctx).Info("order_cancelled", "order_id", order.ID)
	return nil
}

func validateShipping(addr models.ShippingAddress, paymentMethod string) error {
	switch {
	case strings.TrimSpace(addr.Address) == "":
		return fmt.Errorf("%w: shipping address required", domain.ErrValidation)
	case strings.TrimSpace(addr.City) == "":
		return fmt.Errorf("%w: shipping city required", domain.ErrValidation)
	case strings.TrimSpace(paymentMethod) == "":
		return fmt.Errorf("%w: payment method required", domain.ErrValidation)
	}
	return nil
}

func newOrderNumber() string {
	return "ORD-" + uuid.NewString()
}

func wrapTx(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
