package service

import (
	"context"
	"testing"

	"github.com/ddanilov/bank-cards/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newTestService(newFakeCardStore(), users, nil)

	user, err := svc.Register(ctx, "john_doe", "john@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cret")))

	_, err = svc.Register(ctx, "john_doe", "other@example.com", "s3cret")
	assert.ErrorIs(t, err, errs.ErrUsernameTaken)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	users := newFakeUserStore()
	svc := newTestService(newFakeCardStore(), users, nil)

	registered, err := svc.Register(ctx, "john_doe", "john@example.com", "s3cret")
	require.NoError(t, err)

	t.Run("valid credentials yield a token with identity claims", func(t *testing.T) {
		tokenString, err := svc.Login(ctx, "john_doe", "s3cret")
		require.NoError(t, err)

		claims := &AuthClaims{}
		_, err = jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
			return []byte("test-secret"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, claims.UserID)
		assert.Equal(t, registered.Role, claims.Role)
		assert.Equal(t, "john_doe", claims.Subject)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := svc.Login(ctx, "john_doe", "wrong")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})

	t.Run("unknown username is rejected the same way", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody", "s3cret")
		assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
	})
}
