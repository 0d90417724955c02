package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/fanvault/backend/internal/domain"
	"github.com/fanvault/backend/internal/logger"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	svc := NewAuthService(AuthOptions{
		JWTSecret:     "session-secret",
		SessionTTL:    time.Hour,
		AdminEmail:    "admin@fanvault.test",
		AdminPassword: "admin-password",
	}, repo, logger.NewTestLogger(t))
	return svc, repo
}

func requireAppError(t *testing.T, err error, code int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := domain.AsAppError(err)
	require.True(t, ok, "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:       "artist@fanvault.test",
		Password:    "correct-horse",
		DisplayName: "Artist",
		Role:        domain.RoleArtist,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleArtist, resp.User.Role)

	claims, err := svc.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.Sub)
	assert.Equal(t, domain.RoleArtist, claims.Role)

	login, err := svc.Login(ctx, "artist@fanvault.test", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "artist@fanvault.test", "wrong")
	requireAppError(t, err, http.StatusUnauthorized)

	_, err = svc.Login(ctx, "nobody@fanvault.test", "correct-horse")
	requireAppError(t, err, http.StatusUnauthorized)
}

func TestAuthService_Register(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:       "fan@fanvault.test",
		Password:    "long-enough",
		DisplayName: "Fan",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleFan, resp.User.Role, "role defaults to fan")

	_, err = svc.Register(ctx, &domain.RegisterRequest{
		Email:       "fan@fanvault.test",
		Password:    "long-enough",
		DisplayName: "Again",
	})
	requireAppError(t, err, http.StatusConflict)

	_, err = svc.Register(ctx, &domain.RegisterRequest{
		Email:       "admin2@fanvault.test",
		Password:    "long-enough",
		DisplayName: "Sneaky",
		Role:        domain.RoleAdmin,
	})
	requireAppError(t, err, http.StatusUnprocessableEntity)

	_, err = svc.Register(ctx, &domain.RegisterRequest{Email: "not-an-email", Password: "short"})
	requireAppError(t, err, http.StatusUnprocessableEntity)
}

func TestAuthService_VerifyToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, &domain.RegisterRequest{
		Email:       "fan@fanvault.test",
		Password:    "long-enough",
		DisplayName: "Fan",
	})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := *svc
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.VerifyToken(resp.Token)
		requireAppError(t, err, http.StatusUnauthorized)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := *svc
		other.jwtSecret = []byte("other-secret")
		_, err := other.VerifyToken(resp.Token)
		requireAppError(t, err, http.StatusUnauthorized)
	})

	t.Run("unsigned", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "user-1",
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.VerifyToken(raw)
		requireAppError(t, err, http.StatusUnauthorized)
	})

	t.Run("missing subject", func(t *testing.T) {
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("session-secret"))
		require.NoError(t, err)

		_, err = svc.VerifyToken(raw)
		requireAppError(t, err, http.StatusUnauthorized)
	})
}

func TestAuthService_SeedAdmin(t *testing.T) {
	svc, repo := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.SeedAdmin(ctx))
	require.NoError(t, svc.SeedAdmin(ctx))

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, domain.RoleAdmin, users[0].Role)

	err = svc.DeleteUser(ctx, users[0].ID)
	requireAppError(t, err, http.StatusBadRequest)
}

func TestAuthService_UserManagement(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, &domain.CreateUserRequest{
		Email:    "new@fanvault.test",
		Password: "secret1",
		Role:     domain.RoleArtist,
	})
	require.NoError(t, err)

	me, err := svc.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@fanvault.test", me.Email)

	require.NoError(t, svc.DeleteUser(ctx, created.ID))

	_, err = svc.GetUserByID(ctx, created.ID)
	requireAppError(t, err, http.StatusNotFound)

	err = svc.DeleteUser(ctx, created.ID)
	requireAppError(t, err, http.StatusNotFound)
}
