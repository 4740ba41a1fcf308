package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/models"
)

func TestAddItemCreatesLine(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)

	item, err := cart.AddItem(context.Background(), 1, p.ID, 2)
	require.NoError(t, err)
	require.Equal(t, 2, item.Quantity)

	items, err := cart.GetCart(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, p.ID, items[0].ProductID)
}

func TestAddItemMergesExistingLine(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	item, err := cart.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	require.Equal(t, 5, item.Quantity)

	// Still a single line for the pair.
	items, err := cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestAddItemMergedQuantityCappedByStock(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 4)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 3)
	require.NoError(t, err)
	_, err = cart.AddItem(ctx, 1, p.ID, 2)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// The failed merge must leave the original line untouched.
	items, err := cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 3, items[0].Quantity)
}

func TestAddItemUnknownProduct(t *testing.T) {
	cart := &Cart{DB: newTestDB(t)}
	_, err := cart.AddItem(context.Background(), 1, 42, 1)
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)

	_, err := cart.AddItem(context.Background(), 1, p.ID, 0)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	_, err = cart.AddItem(ctx, 2, p.ID, 5)
	require.NoError(t, err)

	items, err := cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, 2, items[0].Quantity)

	items, err = cart.GetCart(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, 5, items[0].Quantity)
}

func TestUpdateItemSetsQuantity(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	item, err := cart.UpdateItem(ctx, 1, p.ID, 7)
	require.NoError(t, err)
	require.Equal(t, 7, item.Quantity)
}

func TestUpdateItemZeroRemovesLine(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	item, err := cart.UpdateItem(ctx, 1, p.ID, 0)
	require.NoError(t, err)
	require.Nil(t, item)

	items, err := cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestUpdateItemOverStock(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 3)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	_, err = cart.UpdateItem(ctx, 1, p.ID, 4)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestUpdateItemMissingLine(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	seedProduct(t, db, "mug", "12.50", 10)

	_, err := cart.UpdateItem(context.Background(), 1, 1, 2)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemoveItem(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)
	require.NoError(t, cart.RemoveItem(ctx, 1, p.ID))

	err = cart.RemoveItem(ctx, 1, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClearCartIdempotent(t *testing.T) {
	db := newTestDB(t)
	cart := &Cart{DB: db}
	p := seedProduct(t, db, "mug", "12.50", 10)
	ctx := context.Background()

	_, err := cart.AddItem(ctx, 1, p.ID, 2)
	require.NoError(t, err)

	require.NoError(t, cart.ClearCart(ctx, 1))
	require.NoError(t, cart.ClearCart(ctx, 1))

	items, err := cart.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, items)

	var all []models.CartItem
	require.NoError(t, db.Find(&all).Error)
	require.Empty(t, all)
}
