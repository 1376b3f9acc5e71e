package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"hospital-management-api/internal/apierr"
	"hospital-management-api/internal/booking"
	"hospital-management-api/internal/middleware"
	"hospital-management-api/internal/store"
)

const slotTakenMsg = "This doctor is already booked for this specific time slot."

// httpError maps service and store errors to a status and client message.
// Anything unknown becomes a 500 and keeps the cause as Internal.
func httpError(err error) *echo.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var ve *apierr.ValidationError
	if errors.As(err, &ve) {
		return echo.NewHTTPError(http.StatusBadRequest, ve.Error())
	}

	switch {
	case errors.Is(err, booking.ErrSlotTaken):
		return echo.NewHTTPError(http.StatusBadRequest, slotTakenMsg)
	case errors.Is(err, store.ErrEmailTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "User already exists")
	case errors.Is(err, store.ErrContactTaken):
		return echo.NewHTTPError(http.StatusBadRequest, "Contact number already in use")
	case errors.Is(err, store.ErrReference):
		return echo.NewHTTPError(http.StatusBadRequest, "Referenced record does not exist")
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Not found")
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
}

// notFound turns store.ErrNotFound into a 404 naming the resource and leaves
// other errors to httpError.
func notFound(err error, what string) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, what+" not found")
	}
	return err
}

// ErrorHandler writes every error as {"message": ...} and logs server faults.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		he := httpError(err)
		if he.Code >= http.StatusInternalServerError {
			cause := err
			if he.Internal != nil {
				cause = he.Internal
			}
			log.Error().Err(cause).
				Str("request_id", middleware.RequestID(c)).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		msg := he.Message
		if he.Code == http.StatusInternalServerError {
			msg = "internal server error"
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, map[string]any{"message": msg})
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}
