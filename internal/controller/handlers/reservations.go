package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/controller/middleware"
	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/labstack/echo/v4"
)

// OccupiedTables GET /api/reservations/occupied?start=&end=
func (h *Handlers) OccupiedTables(c echo.Context) error {
	window, err := windowFromQuery(c)
	if err != nil {
		return h.handleError(c, err, "occupied_tables")
	}

	ids, err := h.reservationService.ListOccupiedTables(c.Request().Context(), window)
	if err != nil {
		return h.handleError(c, err, "occupied_tables")
	}

	return c.JSON(http.StatusOK, OccupiedTablesResponse{Start: window.Start, End: window.End, TableIDs: ids})
}

// CreateReservation POST /api/reservations
func (h *Handlers) CreateReservation(c echo.Context) error {
	caller := mustCaller(c)

	var req CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return h.handleError(c, fmt.Errorf("%w: malformed body", errBadRequest), "create_reservation")
	}

	window := model.TimeInterval{Start: req.Start, End: req.End}

	reservation, err := h.reservationService.CreateReservation(c.Request().Context(), caller.UserID, req.TableID, window, req.Items)
	if err != nil {
		return h.handleError(c, err, "create_reservation")
	}

	return c.JSON(http.StatusCreated, reservation)
}

// ListReservations GET /api/reservations
func (h *Handlers) ListReservations(c echo.Context) error {
	list, err := h.reservationService.ListAll(c.Request().Context())
	if err != nil {
		return h.handleError(c, err, "list_reservations")
	}
	return c.JSON(http.StatusOK, list)
}

// MyReservations GET /api/reservations/my
func (h *Handlers) MyReservations(c echo.Context) error {
	list, err := h.reservationService.ListForClient(c.Request().Context(), mustCaller(c).UserID)
	if err != nil {
		return h.handleError(c, err, "my_reservations")
	}
	return c.JSON(http.StatusOK, list)
}

// AssignedReservations GET /api/reservations/assigned
func (h *Handlers) AssignedReservations(c echo.Context) error {
	list, err := h.reservationService.ListForStaff(c.Request().Context(), mustCaller(c).UserID)
	if err != nil {
		return h.handleError(c, err, "assigned_reservations")
	}
	return c.JSON(http.StatusOK, list)
}

// GetReservation GET /api/reservations/:id. Клиент видит только свои брони.
func (h *Handlers) GetReservation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "get_reservation")
	}

	reservation, err := h.reservationService.GetReservation(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, "get_reservation")
	}

	caller := mustCaller(c)
	if caller.Role == model.RoleClient && reservation.ClientID != caller.UserID {
		return h.handleError(c, fmt.Errorf("reservation %d: %w", id, model.ErrForbidden), "get_reservation")
	}

	return c.JSON(http.StatusOK, reservation)
}

// UpdateStatus PATCH /api/reservations/:id/status?status=
func (h *Handlers) UpdateStatus(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "update_status")
	}

	status, err := model.ParseReservationStatus(c.QueryParam("status"))
	if err != nil {
		return h.handleError(c, fmt.Errorf("%w: %v", errBadRequest, err), "update_status")
	}

	ctx := c.Request().Context()
	if err := h.reservationService.UpdateStatus(ctx, id, status, mustCaller(c)); err != nil {
		return h.handleError(c, err, "update_status")
	}

	return h.respondReservation(c, id, "update_status")
}

// CancelReservation PATCH /api/reservations/:id/cancel
func (h *Handlers) CancelReservation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "cancel_reservation")
	}

	if err := h.reservationService.CancelReservation(c.Request().Context(), id, mustCaller(c).UserID); err != nil {
		return h.handleError(c, err, "cancel_reservation")
	}

	return h.respondReservation(c, id, "cancel_reservation")
}

// AvailableStaff GET /api/reservations/:id/available-staff
func (h *Handlers) AvailableStaff(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "available_staff")
	}

	staff, err := h.reservationService.ListAvailableStaff(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, "available_staff")
	}

	return c.JSON(http.StatusOK, staff)
}

// AssignStaff PATCH /api/reservations/:id/staff?staff_id=
func (h *Handlers) AssignStaff(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "assign_staff")
	}

	staffID, err := strconv.ParseInt(c.QueryParam("staff_id"), 10, 64)
	if err != nil {
		return h.handleError(c, fmt.Errorf("%w: staff_id must be a number", errBadRequest), "assign_staff")
	}

	if err := h.reservationService.AssignStaff(c.Request().Context(), id, staffID); err != nil {
		return h.handleError(c, err, "assign_staff")
	}

	return h.respondReservation(c, id, "assign_staff")
}

// ToggleItemServed PATCH /api/reservations/:id/items/:itemId/served
func (h *Handlers) ToggleItemServed(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "toggle_item")
	}

	itemID, err := paramID(c, "itemId")
	if err != nil {
		return h.handleError(c, err, "toggle_item")
	}

	item, err := h.reservationService.ToggleLineItemServed(c.Request().Context(), id, itemID, mustCaller(c).UserID)
	if err != nil {
		return h.handleError(c, err, "toggle_item")
	}

	return c.JSON(http.StatusOK, item)
}

// DeleteReservation DELETE /api/reservations/:id
func (h *Handlers) DeleteReservation(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return h.handleError(c, err, "delete_reservation")
	}

	if err := h.reservationService.DeleteReservation(c.Request().Context(), id); err != nil {
		return h.handleError(c, err, "delete_reservation")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) respondReservation(c echo.Context, id int64, operation string) error {
	reservation, err := h.reservationService.GetReservation(c.Request().Context(), id)
	if err != nil {
		return h.handleError(c, err, operation)
	}
	return c.JSON(http.StatusOK, reservation)
}

// Маршруты регистрируются за middleware.Identity, вызывающий всегда есть
func mustCaller(c echo.Context) model.Caller {
	caller, _ := middleware.CallerFrom(c)
	return caller
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number", errBadRequest, name)
	}
	return id, nil
}

func windowFromQuery(c echo.Context) (model.TimeInterval, error) {
	start, err := time.Parse(time.RFC3339, c.QueryParam("start"))
	if err != nil {
		return model.TimeInterval{}, fmt.Errorf("%w: start must be RFC3339", errBadRequest)
	}

	end, err := time.Parse(time.RFC3339, c.QueryParam("end"))
	if err != nil {
		return model.TimeInterval{}, fmt.Errorf("%w: end must be RFC3339", errBadRequest)
	}

	return model.TimeInterval{Start: start, End: end}, nil
}
