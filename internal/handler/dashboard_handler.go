package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"hospital-management-api/internal/model"
)

const recentActivity = 5

type dashboardResponse struct {
	Counts   model.Counts     `json:"counts"`
	Activity []model.Activity `json:"activity"`
}

type searchResponse struct {
	Patients []model.Patient `json:"patients"`
	Doctors  []model.Doctor  `json:"doctors"`
}

func (h *Handler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	from, to := h.booking.Today()

	counts, err := h.store.Counts(ctx, from, to)
	if err != nil {
		return err
	}
	act, err := h.store.RecentActivity(ctx, from, to, recentActivity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboardResponse{Counts: counts, Activity: act})
}

// Search matches patients by name or contact and doctors by name or
// specialization. An empty query returns empty lists.
func (h *Handler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	res := searchResponse{Patients: []model.Patient{}, Doctors: []model.Doctor{}}
	if q == "" {
		return c.JSON(http.StatusOK, res)
	}

	ctx := c.Request().Context()
	var err error
	if res.Patients, err = h.store.SearchPatients(ctx, q); err != nil {
		return err
	}
	if res.Doctors, err = h.store.SearchDoctors(ctx, q); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}
