package auth

import (
	"testing"
	"time"

	"github.com/Freeeeeet/restaurant_booking/internal/model"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_RoundTrip(t *testing.T) {
	r := NewResolver("secret")

	for _, role := range []model.Role{model.RoleClient, model.RoleStaff, model.RoleAdmin} {
		token, err := r.Issue(model.Caller{UserID: 17, Role: role}, time.Hour)
		require.NoError(t, err)

		caller, err := r.Resolve(token)
		require.NoError(t, err)
		assert.Equal(t, model.Caller{UserID: 17, Role: role}, caller)
	}
}

func TestResolver_Rejects(t *testing.T) {
	r := NewResolver("secret")

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func(sub, role string) Claims {
		return Claims{
			Role: role,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   sub,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
	}

	expired := valid("1", "client")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "wrong secret", token: sign(jwt.SigningMethodHS256, []byte("other"), valid("1", "client"))},
		{name: "wrong algorithm", token: sign(jwt.SigningMethodHS512, []byte("secret"), valid("1", "client"))},
		{name: "expired", token: sign(jwt.SigningMethodHS256, []byte("secret"), expired)},
		{name: "non numeric subject", token: sign(jwt.SigningMethodHS256, []byte("secret"), valid("alice", "client"))},
		{name: "unknown role", token: sign(jwt.SigningMethodHS256, []byte("secret"), valid("1", "chef"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestResolver_RoleIsCaseInsensitive(t *testing.T) {
	r := NewResolver("secret")

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "3"},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	caller, err := r.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, caller.Role)
}
