package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"hospital-management-api/internal/apierr"
	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/model"
)

type createAppointmentRequest struct {
	Patient         string `json:"patient"`
	Doctor          string `json:"doctor"`
	AppointmentDate string `json:"appointmentDate"`
	Reason          string `json:"reason"`
}

type statusRequest struct {
	Status model.Status `json:"status"`
}

// local layouts come from datetime-local inputs and carry no zone
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseWhen reads an RFC 3339 timestamp, or a zoneless one in loc.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, apierr.NewValidationError("appointmentDate", "required")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apierr.NewValidationError("appointmentDate", "invalid timestamp")
}

func (h *Handler) CreateAppointment(c echo.Context) error {
	var req createAppointmentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	at, err := parseWhen(req.AppointmentDate, h.booking.Location())
	if err != nil {
		return err
	}

	a, err := h.booking.TryBook(c.Request().Context(), booking.BookRequest{
		PatientID:       strings.TrimSpace(req.Patient),
		DoctorID:        strings.TrimSpace(req.Doctor),
		AppointmentDate: at,
		Reason:          req.Reason,
	})
	if err != nil {
		return err
	}

	h.log.Info().
		Str("appointment_id", a.ID).
		Str("doctor_id", a.DoctorID).
		Time("at", a.AppointmentDate).
		Msg("appointment booked")
	return c.JSON(http.StatusCreated, a)
}

// ListAppointments is the calendar feed. Admins may pass ?date=YYYY-MM-DD;
// doctors always get their own day.
func (h *Handler) ListAppointments(c echo.Context) error {
	out, err := h.booking.List(c.Request().Context(), middleware.ActorFrom(c), c.QueryParam("date"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) MyToday(c echo.Context) error {
	out, err := h.booking.List(c.Request().Context(), middleware.ActorFrom(c), "")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) SetAppointmentStatus(c echo.Context) error {
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a, err := h.booking.SetStatus(c.Request().Context(), middleware.ActorFrom(c), c.Param("id"), req.Status)
	if err != nil {
		return notFound(err, "Appointment")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(c echo.Context) error {
	if err := h.booking.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return notFound(err, "Appointment")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Appointment deleted"})
}

// Watch upgrades to a websocket that receives the caller's appointment events.
func (h *Handler) Watch(c echo.Context) error {
	if h.hub == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "notifications unavailable")
	}
	uid := middleware.UserID(c)
	if err := h.hub.Serve(c.Response(), c.Request(), uid); err != nil {
		// the connection is hijacked or already answered by the upgrader
		h.log.Warn().Err(err).Str("user_id", uid).Msg("websocket rejected")
	}
	return nil
}
