package handlers

import (
	"errors"
	"net/http"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var errBadRequest = errors.New("bad request")

// StatusCode код ответа для ошибки предметной области
func StatusCode(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrInvalidInterval),
		errors.Is(err, model.ErrInvalidLineItem),
		errors.Is(err, model.ErrReservationInPast),
		errors.Is(err, model.ErrOutsideBusinessHours):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrSlotConflict),
		errors.Is(err, model.ErrInvalidStateTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// handleError отвечает клиенту и логирует. Внутренние ошибки наружу не раскрываются.
func (h *Handlers) handleError(c echo.Context, err error, operation string) error {
	status := StatusCode(err)

	if status == http.StatusInternalServerError {
		h.logger.Error("Operation failed",
			zap.String("operation", operation),
			zap.String("path", c.Path()),
			zap.Error(err))
		return c.JSON(status, echo.Map{"error": "internal error"})
	}

	h.logger.Debug("Request rejected",
		zap.String("operation", operation),
		zap.Int("status", status),
		zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error()})
}
