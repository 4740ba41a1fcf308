package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/hash"
	"github.com/velmart/storefront/internal/logging"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
	"github.com/velmart/storefront/internal/models"
)

type UserHandler struct {
	DB      *gorm.DB
	Timeout time.Duration
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	var users []models.User
	if err := h.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return err
	}
	return respondList(c, len(users), users)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return fmt.Errorf("%w: invalid user id", domain.ErrValidation)
	}
	if uint(id) == mwauth.UserID(c) {
		return fmt.Errorf("%w: cannot delete own account", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	res := h.DB.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %d", domain.ErrNotFound, id)
	}

	logging.FromContext(ctx).Info("user_deleted", "user_id", id, "by", mwauth.UserID(c))
	return respondMessage(c, http.StatusOK, "user deleted")
}

// UpdateMe changes the caller's profile fields and, when both password fields
// are supplied, the password.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	var req struct {
		FirstName       *string `json:"first_name"`
		LastName        *string `json:"last_name"`
		CurrentPassword string  `json:"current_password"`
		NewPassword     string  `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, mwauth.UserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.NewPassword != "" {
		if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			return fmt.Errorf("%w: current password incorrect", domain.ErrUnauthenticated)
		}
		if len(req.NewPassword) < 6 {
			return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
		}
		pwHash, err := hash.HashPassword(req.NewPassword)
		if err != nil {
			return fmt.Errorf("cannot hash password: %w", err)
		}
		user.PasswordHash = pwHash
	}

	if err := h.DB.WithContext(ctx).Save(&user).Error; err != nil {
		return err
	}
	return respond(c, http.StatusOK, user)
}
