package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/logging"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
	"github.com/velmart/storefront/internal/mykafka"
	"github.com/velmart/storefront/internal/store"
)

type CartHandler struct {
	Cart     *store.Cart
	Producer *mykafka.Producer
	Timeout  time.Duration
}

func (h *CartHandler) GetCart(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	items, err := h.Cart.GetCart(ctx, mwauth.UserID(c))
	if err != nil {
		return err
	}
	return respondList(c, len(items), items)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	userID := mwauth.UserID(c)

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}
	if req.ProductID == 0 {
		return fmt.Errorf("%w: product_id required", domain.ErrValidation)
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	item, err := h.Cart.AddItem(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})
	return respond(c, http.StatusOK, item)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID := mwauth.UserID(c)
	productID, err := parseProductID(c)
	if err != nil {
		return err
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	item, err := h.Cart.UpdateItem(ctx, userID, productID, req.Quantity)
	if err != nil {
		return err
	}

	if item == nil {
		h.publish(c, map[string]any{
			"type":      "cart_item_removed",
			"userID":    userID,
			"productID": productID,
		})
		return respondMessage(c, http.StatusOK, "item removed")
	}
	h.publish(c, map[string]any{
		"type":      "cart_item_updated",
		"userID":    userID,
		"productID": productID,
		"quantity":  item.Quantity,
	})
	return respond(c, http.StatusOK, item)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID := mwauth.UserID(c)
	productID, err := parseProductID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Cart.RemoveItem(ctx, userID, productID); err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_removed",
		"userID":    userID,
		"productID": productID,
	})
	return respondMessage(c, http.StatusOK, "item removed")
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID := mwauth.UserID(c)

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Cart.ClearCart(ctx, userID); err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return respondMessage(c, http.StatusOK, "cart cleared")
}

func parseProductID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("productId"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: productId must be a positive integer", domain.ErrValidation)
	}
	return uint(id), nil
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "cart_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}
