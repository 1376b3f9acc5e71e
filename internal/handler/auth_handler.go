package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hospital-management-api/internal/apierr"
	"hospital-management-api/internal/auth"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

type registerRequest struct {
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func (r *registerRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = normEmail(r.Email)
	if r.Username == "" {
		return apierr.NewValidationError("username", "required")
	}
	if err := checkEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < auth.MinPasswordLen {
		return apierr.NewValidationError("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLen))
	}
	if r.Role == "" {
		r.Role = model.RoleDoctor
	}
	if !r.Role.Valid() {
		return apierr.NewValidationError("role", "must be admin or doctor")
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userInfo struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	Email    string     `json:"email"`
	Role     model.Role `json:"role"`
}

type loginResponse struct {
	Message string   `json:"message"`
	Token   string   `json:"token"`
	User    userInfo `json:"user"`
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func checkEmail(email string) error {
	if email == "" {
		return apierr.NewValidationError("email", "required")
	}
	at := strings.IndexByte(email, '@')
	if at < 1 || at == len(email)-1 {
		return apierr.NewValidationError("email", "invalid")
	}
	return nil
}

func (h *Handler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.store.UserByEmail(ctx, req.Email); err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	} else if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	// the unique index catches a concurrent registration
	if err := h.store.CreateUser(ctx, u); err != nil {
		return err
	}

	h.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Msg("user registered")
	return c.JSON(http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Email = normEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return apierr.NewValidationError("", "email and password required")
	}

	badCreds := echo.NewHTTPError(http.StatusBadRequest, "Invalid credentials")

	u, err := h.store.UserByEmail(c.Request().Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		return badCreds
	} else if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return badCreds
	}

	tok, err := auth.MakeToken(u.ID, u.Role, h.secret, h.ttl)
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   tok,
		User:    userInfo{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
	})
}

// Me returns the caller's profile.
func (h *Handler) Me(c echo.Context) error {
	u, err := h.store.UserByID(c.Request().Context(), middleware.UserID(c))
	if errors.Is(err, store.ErrNotFound) {
		// token outlived its user
		return echo.NewHTTPError(http.StatusUnauthorized, "Token invalid")
	} else if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
