package model

type MenuItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       int    `json:"price"` // в копейках
	IsAvailable bool   `json:"is_available"`
}
