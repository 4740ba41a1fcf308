package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/logging"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
	"github.com/velmart/storefront/internal/models"
	"github.com/velmart/storefront/internal/mykafka"
	"github.com/velmart/storefront/internal/service/order"
)

type OrderHandler struct {
	Engine   *order.Engine
	Producer *mykafka.Producer
	Timeout  time.Duration
}

// CreateOrder places an order from the caller's cart. The request carries
// only the shipping address and payment method; every monetary figure is
// computed server-side.
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	userID := mwauth.UserID(c)

	var req struct {
		ShippingAddress models.ShippingAddress `json:"shipping_address"`
		PaymentMethod   string                 `json:"payment_method"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	o, err := h.Engine.PlaceOrder(ctx, userID, req.ShippingAddress, req.PaymentMethod)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":        "order_created",
		"userID":      userID,
		"orderID":     o.ID,
		"orderNumber": o.OrderNumber,
		"total":       o.TotalPrice.StringFixed(2),
	})
	return respond(c, http.StatusCreated, o)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	o, err := h.Engine.GetOrder(ctx, id, mwauth.UserID(c), mwauth.Role(c))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, o)
}

func (h *OrderHandler) MyOrders(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	orders, err := h.Engine.ListOrders(ctx, mwauth.UserID(c))
	if err != nil {
		return err
	}
	return respondList(c, len(orders), orders)
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	orders, err := h.Engine.ListAllOrders(ctx)
	if err != nil {
		return err
	}
	return respondList(c, len(orders), orders)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Status models.OrderStatus `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	o, err := h.Engine.UpdateStatus(ctx, id, req.Status, mwauth.Role(c))
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"userID":  o.UserID,
		"orderID": o.ID,
		"status":  o.Status,
	})
	return respond(c, http.StatusOK, o)
}

func (h *OrderHandler) CancelOrder(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	o, err := h.Engine.CancelOrder(ctx, id, mwauth.UserID(c), mwauth.Role(c))
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"userID":  o.UserID,
		"orderID": o.ID,
	})
	return respond(c, http.StatusOK, o)
}

func (h *OrderHandler) publish(c echo.Context, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "order_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}
