package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims полезная нагрузка токена доступа
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Resolver проверяет HS256 токены и превращает их в Caller
type Resolver struct {
	secret []byte
	now    func() time.Time
}

func NewResolver(secret string) *Resolver {
	return &Resolver{secret: []byte(secret), now: time.Now}
}

// Resolve разбирает токен. sub должен быть числовым ID пользователя, role одной из ролей системы.
func (r *Resolver) Resolve(raw string) (model.Caller, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(strings.TrimSpace(raw), claims, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(r.now),
	)
	if err != nil {
		return model.Caller{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return model.Caller{}, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, claims.Subject)
	}

	role := model.Role(strings.ToLower(claims.Role))
	if !role.Valid() {
		return model.Caller{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return model.Caller{UserID: userID, Role: role}, nil
}

// Issue подписывает токен для пользователя. Нужен для служебных скриптов и тестов.
func (r *Resolver) Issue(caller model.Caller, ttl time.Duration) (string, error) {
	now := r.now()
	claims := Claims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(caller.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
