package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/logging"
	"github.com/velmart/storefront/internal/models"
	"github.com/velmart/storefront/internal/store"
)

type CategoryHandler struct {
	Catalog *store.Catalog
	Timeout time.Duration
}

type categoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	ParentID    *uint  `json:"parent_id"`
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	cats, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	return respondList(c, len(cats), cats)
}

func (h *CategoryHandler) GetCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	cat, err := h.Catalog.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, cat)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name required", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	cat := models.Category{
		Name:        req.Name,
		Description: req.Description,
		Image:       req.Image,
		ParentID:    req.ParentID,
	}
	if err := h.Catalog.CreateCategory(ctx, &cat); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("category_created", "category_id", cat.ID, "name", cat.Name)
	return respond(c, http.StatusCreated, cat)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	cat, err := h.Catalog.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if req.Name != "" {
		cat.Name = req.Name
	}
	cat.Description = req.Description
	cat.Image = req.Image
	cat.ParentID = req.ParentID

	if err := h.Catalog.SaveCategory(ctx, cat); err != nil {
		return err
	}
	return respond(c, http.StatusOK, cat)
}

func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Catalog.DeleteCategory(ctx, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "category deleted")
}

func parseID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id must be a positive integer", domain.ErrValidation)
	}
	return uint(id), nil
}
