package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/velmart/storefront/internal/domain"
	"github.com/velmart/storefront/internal/hash"
	"github.com/velmart/storefront/internal/logging"
	mwauth "github.com/velmart/storefront/internal/middleware/auth"
	"github.com/velmart/storefront/internal/models"
	"github.com/velmart/storefront/internal/mykafka"
	"github.com/velmart/storefront/internal/service/token"
)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.Service
	Producer *mykafka.Producer
	Timeout  time.Duration
}

type credentialsResponse struct {
	User   *models.User `json:"user"`
	Tokens *token.Pair  `json:"tokens"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_register")

	var req struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}
	if strings.TrimSpace(req.Username) == "" {
		return fmt.Errorf("%w: username required", domain.ErrValidation)
	}
	if !strings.Contains(req.Email, "@") {
		return fmt.Errorf("%w: valid email required", domain.ErrValidation)
	}
	if len(req.Password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("cannot hash password: %w", err)
	}

	var existing models.User
	err = h.DB.WithContext(ctx).
		Where("username = ? OR email = ?", req.Username, req.Email).
		First(&existing).Error
	if err == nil {
		return fmt.Errorf("%w: user already exists", domain.ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         models.RoleUser,
	}
	if err := h.DB.WithContext(ctx).Create(&user).Error; err != nil {
		return err
	}

	pair, err := h.Tokens.IssuePair(ctx, user.ID, user.Role)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})
	l.Info("register_success", "user_id", user.ID)
	return respond(c, http.StatusCreated, credentialsResponse{User: &user, Tokens: pair})
}

func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_login")

	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return fmt.Errorf("%w: invalid body", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	var user models.User
	if err := h.DB.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		l.Warn("login_failed", "reason", "unknown_email")
		return fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		l.Warn("login_failed", "reason", "bad_password", "user_id", user.ID)
		return fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}

	pair, err := h.Tokens.IssuePair(ctx, user.ID, user.Role)
	if err != nil {
		return err
	}

	h.publish(c, map[string]any{
		"type":     "user_logged_in",
		"userID":   user.ID,
		"username": user.Username,
	})
	l.Info("login_success", "user_id", user.ID)
	return respond(c, http.StatusOK, credentialsResponse{User: &user, Tokens: pair})
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fmt.Errorf("%w: refresh_token required", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	pair, err := h.Tokens.Rotate(ctx, req.RefreshToken)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, pair)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return fmt.Errorf("%w: refresh_token required", domain.ErrValidation)
	}

	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	if err := h.Tokens.Revoke(ctx, req.RefreshToken); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, "logged out")
}

func (h *AuthHandler) Me(c echo.Context) error {
	ctx, cancel := boundCtx(c, h.Timeout)
	defer cancel()

	var user models.User
	if err := h.DB.WithContext(ctx).First(&user, mwauth.UserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return err
	}
	return respond(c, http.StatusOK, user)
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx := c.Request().Context()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka_publish_failed", "error", err)
	}
}
