package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/controller/handlers"
	mw "github.com/Freeeeeet/restaurant_booking/internal/controller/middleware"
	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/Freeeeeet/restaurant_booking/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Server HTTP API бронирования
type Server struct {
	echo     *echo.Echo
	handlers *handlers.Handlers
	resolver mw.TokenResolver
	logger   *zap.Logger
}

func NewServer(
	reservationService *service.ReservationService,
	resolver mw.TokenResolver,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		handlers: handlers.NewHandlers(reservationService, logger),
		resolver: resolver,
		logger:   logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())

	s.registerRoutes()

	return s
}

// registerRoutes регистрирует все маршруты API
func (s *Server) registerRoutes() {
	h := s.handlers
	client := mw.RequireRole(model.RoleClient)
	staff := mw.RequireRole(model.RoleStaff)
	admin := mw.RequireRole(model.RoleAdmin)

	s.echo.GET("/healthz", h.Health)

	api := s.echo.Group("/api/reservations", mw.Identity(s.resolver))

	api.GET("/occupied", h.OccupiedTables)
	api.POST("", h.CreateReservation, client)
	api.GET("", h.ListReservations, mw.RequireRole(model.RoleStaff, model.RoleAdmin))
	api.GET("/my", h.MyReservations, client)
	api.GET("/assigned", h.AssignedReservations, staff)

	api.GET("/:id", h.GetReservation)
	api.PATCH("/:id/status", h.UpdateStatus)
	api.PATCH("/:id/cancel", h.CancelReservation, client)
	api.GET("/:id/available-staff", h.AvailableStaff, admin)
	api.PATCH("/:id/staff", h.AssignStaff, admin)
	api.PATCH("/:id/items/:itemId/served", h.ToggleItemServed, staff)
	api.DELETE("/:id", h.DeleteReservation, admin)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("HTTP request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// Handler для тестов и встраивания
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start слушает addr до отмены ctx, затем корректно завершает соединения
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(shutdownCtx)
}
