package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"hospital-management-api/internal/apierr"
	"hospital-management-api/internal/model"
	"hospital-management-api/internal/store"
)

// patientRequest serves both create and update. On update empty fields keep
// the stored value.
type patientRequest struct {
	Name           string     `json:"name"`
	Age            flexString `json:"age"`
	Gender         string     `json:"gender"`
	Address        string     `json:"address"`
	ContactNumber  flexString `json:"contactNumber"`
	MedicalHistory string     `json:"medicalHistory"`
}

func (r *patientRequest) age() (int, bool, error) {
	n, ok, err := r.Age.Int()
	if err != nil || n < 0 {
		return 0, false, apierr.NewValidationError("age", "must be a non-negative number")
	}
	return n, ok, nil
}

func (r *patientRequest) toPatient() (*model.Patient, error) {
	p := &model.Patient{
		Name:           strings.TrimSpace(r.Name),
		Gender:         strings.TrimSpace(r.Gender),
		Address:        strings.TrimSpace(r.Address),
		ContactNumber:  r.ContactNumber.String(),
		MedicalHistory: r.MedicalHistory,
	}
	age, ok, err := r.age()
	if err != nil {
		return nil, err
	}
	switch {
	case p.Name == "":
		return nil, apierr.NewValidationError("name", "required")
	case !ok:
		return nil, apierr.NewValidationError("age", "required")
	case p.Gender == "":
		return nil, apierr.NewValidationError("gender", "required")
	case p.Address == "":
		return nil, apierr.NewValidationError("address", "required")
	case p.ContactNumber == "":
		return nil, apierr.NewValidationError("contactNumber", "required")
	}
	p.Age = age
	return p, nil
}

// merge applies the non-empty fields onto p.
func (r *patientRequest) merge(p *model.Patient) error {
	age, ok, err := r.age()
	if err != nil {
		return err
	}
	if ok && age > 0 {
		p.Age = age
	}
	if v := strings.TrimSpace(r.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(r.Gender); v != "" {
		p.Gender = v
	}
	if v := strings.TrimSpace(r.Address); v != "" {
		p.Address = v
	}
	if v := r.ContactNumber.String(); v != "" {
		p.ContactNumber = v
	}
	if r.MedicalHistory != "" {
		p.MedicalHistory = r.MedicalHistory
	}
	return nil
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	p, err := req.toPatient()
	if err != nil {
		return err
	}
	p.ID = uuid.New().String()

	if err := h.store.CreatePatient(c.Request().Context(), p); err != nil {
		if errors.Is(err, store.ErrContactTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "Patient with this contact number already exists")
		}
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	ps, err := h.store.ListPatients(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ps)
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.store.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return notFound(err, "Patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	var req patientRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	p, err := h.store.GetPatient(ctx, c.Param("id"))
	if err != nil {
		return notFound(err, "Patient")
	}
	if err := req.merge(p); err != nil {
		return err
	}

	if err := h.store.UpdatePatient(ctx, p); err != nil {
		if errors.Is(err, store.ErrContactTaken) {
			return echo.NewHTTPError(http.StatusBadRequest, "Another patient with this contact number already exists")
		}
		return notFound(err, "Patient")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.store.DeletePatient(c.Request().Context(), c.Param("id")); err != nil {
		return notFound(err, "Patient")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}
