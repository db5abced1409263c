package model

import "errors"

// Ошибки предметной области. Все они восстановимы и возвращаются вызывающему коду,
// транспортный слой переводит их в свои коды ответа.
var (
	ErrInvalidInterval        = errors.New("invalid interval")
	ErrReservationInPast      = errors.New("reservation starts in the past")
	ErrOutsideBusinessHours   = errors.New("reservation outside business hours")
	ErrNotFound               = errors.New("not found")
	ErrSlotConflict           = errors.New("table already booked for this time")
	ErrInvalidStateTransition = errors.New("invalid reservation state transition")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidLineItem        = errors.New("invalid line item")
)
