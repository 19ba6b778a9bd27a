package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-pos-api/internal/model"
	"go-pos-api/internal/repository/memory"
	"go-pos-api/internal/service"
)

func seedUser(t *testing.T, store *memory.Store, email, password string, active bool) *model.User {
	t.Helper()
	user := &model.User{
		Email:    email,
		FullName: "Test User",
		Role:     model.RoleCashier,
		IsActive: active,
	}
	require.NoError(t, user.SetPassword(password))
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func TestAuth_Login_Success(t *testing.T) {
	store := memory.NewStore()
	auth := service.NewAuthService(store)
	seedUser(t, store, "kasir@example.com", "rahasia1", true)

	resp, err := auth.Login(context.Background(), "kasir@example.com", "rahasia1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "kasir@example.com", resp.User.Email)
}

func TestAuth_Login_WrongPassword(t *testing.T) {
	store := memory.NewStore()
	auth := service.NewAuthService(store)
	seedUser(t, store, "kasir@example.com", "rahasia1", true)

	_, err := auth.Login(context.Background(), "kasir@example.com", "salah")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuth_Login_InactiveUser(t *testing.T) {
	store := memory.NewStore()
	auth := service.NewAuthService(store)
	seedUser(t, store, "nonaktif@example.com", "rahasia1", false)

	_, err := auth.Login(context.Background(), "nonaktif@example.com", "rahasia1")
	assert.ErrorIs(t, err, service.ErrUserInactive)
}

func TestAuth_Login_RotatesSession(t *testing.T) {
	// Single session: a second login invalidates the first token
	store := memory.NewStore()
	auth := service.NewAuthService(store)
	seedUser(t, store, "kasir@example.com", "rahasia1", true)
	ctx := context.Background()

	first, err := auth.Login(ctx, "kasir@example.com", "rahasia1")
	require.NoError(t, err)

	_, err = auth.ValidateToken(ctx, first.Token)
	require.NoError(t, err)

	second, err := auth.Login(ctx, "kasir@example.com", "rahasia1")
	require.NoError(t, err)

	_, err = auth.ValidateToken(ctx, first.Token)
	assert.ErrorIs(t, err, service.ErrSessionExpired)

	_, err = auth.ValidateToken(ctx, second.Token)
	assert.NoError(t, err)
}

func TestAuth_ChangePassword(t *testing.T) {
	store := memory.NewStore()
	auth := service.NewAuthService(store)
	seedUser(t, store, "kasir@example.com", "lama123", true)
	ctx := context.Background()

	err := auth.ChangePassword(ctx, "kasir@example.com", "salah", "baru123")
	assert.ErrorIs(t, err, service.ErrWrongPassword)

	require.NoError(t, auth.ChangePassword(ctx, "kasir@example.com", "lama123", "baru123"))

	_, err = auth.Login(ctx, "kasir@example.com", "baru123")
	assert.NoError(t, err)
}
