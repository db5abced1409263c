package model

import (
	"fmt"
	"time"
)

// TimeInterval полуоткрытый интервал времени [Start, End)
type TimeInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewTimeInterval создаёт интервал и проверяет что start < end
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	iv := TimeInterval{Start: start, End: end}
	if err := iv.Validate(); err != nil {
		return TimeInterval{}, err
	}
	return iv, nil
}

// Validate проверяет корректность интервала
func (iv TimeInterval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidInterval)
	}
	if !iv.Start.Before(iv.End) {
		return fmt.Errorf("%w: start %s must be before end %s",
			ErrInvalidInterval, iv.Start.Format(time.RFC3339), iv.End.Format(time.RFC3339))
	}
	return nil
}

func (iv TimeInterval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

func (iv TimeInterval) String() string {
	return "[" + iv.Start.Format(time.RFC3339) + ", " + iv.End.Format(time.RFC3339) + ")"
}

// Overlaps сообщает пересекаются ли интервалы.
// Интервал, заканчивающийся ровно в момент начала другого, не пересекается с ним.
func Overlaps(a, b TimeInterval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains сообщает попадает ли момент времени в интервал
func Contains(iv TimeInterval, t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Covers сообщает лежит ли inner целиком внутри outer
func Covers(outer, inner TimeInterval) bool {
	return !inner.Start.Before(outer.Start) && !inner.End.After(outer.End)
}
