package model

import "time"

type Table struct {
	ID        int64     `json:"id"`
	Number    *int      `json:"number"` // nil - элемент зала без номера, не бронируется
	Seats     int       `json:"seats"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// IsReservable столик можно забронировать только если он активен и имеет номер
func (t *Table) IsReservable() bool {
	return t.IsActive && t.Number != nil
}
