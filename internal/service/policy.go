package service

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
)

// Policy параметры работы ресторана и фоновой сверки
type Policy struct {
	Location        *time.Location
	LastBookingTime time.Duration // смещение от полуночи, позже начинать нельзя
	ClosingTime     time.Duration // смещение от полуночи, позже заканчивать нельзя
	CompletionGrace time.Duration
	SweepBatchSize  int
}

func DefaultPolicy() Policy {
	return Policy{
		Location:        time.UTC,
		LastBookingTime: 19 * time.Hour,
		ClosingTime:     22 * time.Hour,
		CompletionGrace: 10 * time.Minute,
		SweepBatchSize:  500,
	}
}

// CheckBusinessHours проверяет окно по часам работы в часовом поясе ресторана.
// Бронь должна начинаться и заканчиваться в один календарный день.
func (p Policy) CheckBusinessHours(window model.TimeInterval) error {
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}

	start := window.Start.In(loc)
	end := window.End.In(loc)

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return fmt.Errorf("%w: reservation must end on the day it starts", model.ErrOutsideBusinessHours)
	}

	if timeOfDay(start) > p.LastBookingTime {
		return fmt.Errorf("%w: latest start is %s", model.ErrOutsideBusinessHours, formatClock(p.LastBookingTime))
	}

	if timeOfDay(end) > p.ClosingTime {
		return fmt.Errorf("%w: reservation must end by %s", model.ErrOutsideBusinessHours, formatClock(p.ClosingTime))
	}

	return nil
}

func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
