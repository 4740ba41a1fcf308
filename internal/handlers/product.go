package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/logging"
	"github.com/velmart/storefront/internal/models"
	"github.com/velmart/storefront/internal/mykafka"
	"github.com/velmart/storefront/internal/service/search"
	"github.com/velmart/storefront/internal/store"
	"github.com/velmart/storefront/internal/util"
)

type ProductHandler struct {
	Catalog  *store.Catalog
	Producer *mykafka.Producer
	Search   *search.Service
	Timeout  time.Duration
}

type productRequest struct {
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price"`
	Stock           *int             `json:"stock"`
	CategoryID      uint             `json:"category_id"`
	Images          models.ImageList `json:"images"`
	Featured        *bool            `json:"featured"`
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	filter, err := parseProductFilter(c)
	if err != nil {
		return err
	}

	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	total, items, err := h.Catalog.ListProducts(ctx, filter, c.QueryParam("sort"), offset, limit)
	if err != nil {
		return err
	}

	count := len(items)
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Count:   &count,
		Data: map[string]any{
			"items": items,
			"meta": map[string]any{
				"page":        page,
				"size":        limit,
				"total":       total,
				"total_pages": (total + int64(limit) - 1) / int64(limit),
			},
		},
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	product, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}
	if err := validateProduct(&req, true); err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       models.NewMoney(*req.Price),
		CategoryID:  req.CategoryID,
		Images:      req.Images,
	}
	if req.DiscountedPrice != nil {
		dp := models.NewMoney(*req.DiscountedPrice)
		prod.DiscountedPrice = &dp
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.Featured != nil {
		prod.Featured = *req.Featured
	}

	if err := h.Catalog.CreateProduct(ctx, &prod); err != nil {
		return err
	}

	h.Search.IndexProduct(ctx, &prod)
	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	logging.FromContext(ctx).Info("product_created", "product_id", prod.ID)
	return respond(c, http.StatusCreated, prod)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}
	if err := validateProduct(&req, false); err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	prod, err := h.Catalog.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if req.Name != "" {
		prod.Name = req.Name
	}
	if req.Description != "" {
		prod.Description = req.Description
	}
	if req.Price != nil {
		prod.Price = models.NewMoney(*req.Price)
	}
	if req.DiscountedPrice != nil {
		dp := models.NewMoney(*req.DiscountedPrice)
		prod.DiscountedPrice = &dp
	}
	if req.Stock != nil {
		prod.Stock = *req.Stock
	}
	if req.CategoryID != 0 {
		prod.CategoryID = req.CategoryID
	}
	if req.Images != nil {
		prod.Images = req.Images
	}
	if req.Featured != nil {
		prod.Featured = *req.Featured
	}
	if prod.DiscountedPrice != nil && prod.DiscountedPrice.GreaterThan(prod.Price.Decimal) {
		return fmt.Errorf("%w: discounted price exceeds price", domain.ErrValidation)
	}
	if prod.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}

	if err := h.Catalog.SaveProduct(ctx, prod); err != nil {
		return err
	}

	h.Search.IndexProduct(ctx, prod)
	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	return respond(c, http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Catalog.DeleteProduct(ctx, id); err != nil {
		return err
	}

	h.Search.DeleteProduct(ctx, id)
	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return respondMessage(c, http.StatusOK, "product deleted")
}

func validateProduct(req *productRequest, creating bool) error {
	if creating {
		if req.Name == "" {
			return fmt.Errorf("%w: name required", domain.ErrValidation)
		}
		if req.Price == nil {
			return fmt.Errorf("%w: price required", domain.ErrValidation)
		}
		if req.CategoryID == 0 {
			return fmt.Errorf("%w: category_id required", domain.ErrValidation)
		}
	}
	if req.Price != nil && req.Price.IsNegative() {
		return fmt.Errorf("%w: price cannot be negative", domain.ErrValidation)
	}
	if req.DiscountedPrice != nil {
		if req.DiscountedPrice.IsNegative() {
			return fmt.Errorf("%w: discounted price cannot be negative", domain.ErrValidation)
		}
		if req.Price != nil && req.DiscountedPrice.GreaterThan(*req.Price) {
			return fmt.Errorf("%w: discounted price exceeds price", domain.ErrValidation)
		}
	}
	if req.Stock != nil && *req.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", domain.ErrValidation)
	}
	return nil
}

func parseProductFilter(c echo.Context) (store.ProductFilter, error) {
	var f store.ProductFilter
	if v := c.QueryParam("category"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			return f, fmt.Errorf("%w: category must be a positive integer", domain.ErrValidation)
		}
		u := uint(id)
		f.CategoryID = &u
	}
	if v := c.QueryParam("featured"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: featured must be a boolean", domain.ErrValidation)
		}
		f.Featured = &b
	}
	if v := c.QueryParam("min_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%w: min_price must be a number", domain.ErrValidation)
		}
		f.MinPrice = &d
	}
	if v := c.QueryParam("max_price"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return f, fmt.Errorf("%w: max_price must be a number", domain.ErrValidation)
		}
		f.MaxPrice = &d
	}
	return f, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}
