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
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

type doctorRequest struct {
	Name           string     `json:"name"`
	Specialization string     `json:"specialization"`
	ContactNumber  flexString `json:"contactNumber"`
	Email          string     `json:"email"`
	Password       string     `json:"password"`
}

func (r *doctorRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Specialization = strings.TrimSpace(r.Specialization)
	r.Email = normEmail(r.Email)
	switch {
	case r.Name == "":
		return apierr.NewValidationError("name", "required")
	case r.Specialization == "":
		return apierr.NewValidationError("specialization", "required")
	case r.ContactNumber == "":
		return apierr.NewValidationError("contactNumber", "required")
	}
	if err := checkEmail(r.Email); err != nil {
		return err
	}
	if len(r.Password) < auth.MinPasswordLen {
		return apierr.NewValidationError("password", fmt.Sprintf("must be at least %d characters", auth.MinPasswordLen))
	}
	return nil
}

func doctorConflict(err error, prefix string) error {
	switch {
	case errors.Is(err, store.ErrContactTaken):
		return echo.NewHTTPError(http.StatusBadRequest, prefix+" with this contact number already exists")
	case errors.Is(err, store.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	}
	return notFound(err, "Doctor")
}

// CreateDoctor registers the doctor's login and directory entry together.
func (h *Handler) CreateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.New().String(),
		Username:     req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleDoctor,
	}
	d := &model.Doctor{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Specialization: req.Specialization,
		ContactNumber:  req.ContactNumber.String(),
		Email:          req.Email,
	}
	if err := h.store.CreateDoctor(c.Request().Context(), u, d); err != nil {
		return doctorConflict(err, "Doctor")
	}

	h.log.Info().Str("doctor_id", d.ID).Str("user_id", u.ID).Msg("doctor created")
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	ds, err := h.store.ListDoctors(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.store.GetDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err, "Doctor")
	}
	return c.JSON(http.StatusOK, d)
}

// UpdateDoctor keeps stored values for empty fields. A new email is mirrored
// onto the doctor's login.
func (h *Handler) UpdateDoctor(c echo.Context) error {
	var req doctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	d, err := h.store.GetDoctor(ctx, c.Param("id"))
	if err != nil {
		return notFound(err, "Doctor")
	}

	if v := strings.TrimSpace(req.Name); v != "" {
		d.Name = v
	}
	if v := strings.TrimSpace(req.Specialization); v != "" {
		d.Specialization = v
	}
	if v := req.ContactNumber.String(); v != "" {
		d.ContactNumber = v
	}
	if v := normEmail(req.Email); v != "" {
		if err := checkEmail(v); err != nil {
			return err
		}
		d.Email = v
	}

	if err := h.store.UpdateDoctor(ctx, d); err != nil {
		return doctorConflict(err, "Another doctor")
	}
	return c.JSON(http.StatusOK, d)
}

// DeleteDoctor removes the doctor, their login and their appointments.
func (h *Handler) DeleteDoctor(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteDoctor(c.Request().Context(), id); err != nil {
		return notFound(err, "Doctor")
	}
	h.log.Info().Str("doctor_id", id).Msg("doctor deleted")
	return c.JSON(http.StatusOK, map[string]string{"message": "Doctor deleted successfully"})
}
