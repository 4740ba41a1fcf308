package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/service/search"
	"github.com/velmart/storefront/internal/util"
)

type SearchHandler struct {
	Search *search.Service
}

func (h *SearchHandler) SearchProducts(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return fmt.Errorf("%w: query parameter q required", domain.ErrValidation)
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	from, size := util.Calculate(page, size)

	total, products, err := h.Search.Search(c.Request().Context(), q, from, size)
	if err != nil {
		return err
	}

	count := len(products)
	return c.JSON(http.StatusOK, Envelope{
		Success: true,
		Count:   &count,
		Data:    map[string]any{"total": total, "items": products},
	})
}
