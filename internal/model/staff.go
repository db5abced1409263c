package model

import "time"

// Staff сотрудник зала. ID совпадает с ID пользователя.
type Staff struct {
	ID            int64     `json:"id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	SpeaksEnglish bool      `json:"speaks_english"`
	HireDate      time.Time `json:"hire_date"`
}

// StaffShift смена сотрудника
type StaffShift struct {
	ID      int64        `json:"id"`
	StaffID int64        `json:"staff_id"`
	Period  TimeInterval `json:"period"`
}
