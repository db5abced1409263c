package middleware

import (
	"net/http"
	"strings"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/labstack/echo/v4"
)

const callerKey = "caller"

// TokenResolver превращает bearer токен в вызывающего
type TokenResolver interface {
	Resolve(raw string) (model.Caller, error)
}

// Identity проверяет Authorization: Bearer и кладёт Caller в контекст запроса
func Identity(resolver TokenResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			caller, err := resolver.Resolve(strings.TrimPrefix(auth, "Bearer "))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(callerKey, caller)
			return next(c)
		}
	}
}

// RequireRole пропускает только перечисленные роли
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok || !allowed[caller.Role] {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// CallerFrom достаёт Caller, положенный Identity
func CallerFrom(c echo.Context) (model.Caller, bool) {
	caller, ok := c.Get(callerKey).(model.Caller)
	return caller, ok
}
