package handlers

import (
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"go.uber.org/zap"
)

// Handlers содержит все зависимости HTTP обработчиков
type Handlers struct {
	reservationService *service.ReservationService
	logger             *zap.Logger
}

// NewHandlers создаёт обработчики запросов
func NewHandlers(reservationService *service.ReservationService, logger *zap.Logger) *Handlers {
	return &Handlers{
		reservationService: reservationService,
		logger:             logger,
	}
}

// CreateReservationRequest тело POST /api/reservations
type CreateReservationRequest struct {
	TableID int64               `json:"table_id"`
	Start   time.Time           `json:"start"`
	End     time.Time           `json:"end"`
	Items   []model.ItemRequest `json:"items"`
}

// OccupiedTablesResponse ответ на запрос занятых столиков
type OccupiedTablesResponse struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	TableIDs []int64   `json:"table_ids"`
}
