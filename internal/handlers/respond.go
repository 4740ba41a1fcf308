package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Envelope is the response shape every endpoint returns. Collections also
// carry a count.
type Envelope struct {
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, Envelope{Success: true, Data: data})
}

func respondList(c echo.Context, count int, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Count: &count, Data: data})
}

func respondMessage(c echo.Context, code int, msg string) error {
	return c.JSON(code, Envelope{Success: true, Message: msg})
}

const defaultStoreTimeout = 5 * time.Second

// boundCtx derives a deadline-bounded context for store calls so no request
// can hang on the database.
func boundCtx(c echo.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(c.Request().Context(), timeout)
}
