package model

import "time"

type Role string

const (
	RoleClient Role = "client"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// User учётная запись. Клиент и сотрудник используют ID пользователя как свой ID.
type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Role       Role      `json:"role"`
	TelegramID *int64    `json:"telegram_id"` // указатель - может быть nil
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
}

// Caller кто выполняет операцию. Определяется внешним слоем аутентификации.
type Caller struct {
	UserID int64 `json:"user_id"`
	Role   Role  `json:"role"`
}
