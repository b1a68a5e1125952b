package service

import (
	"testing"

	"takarawalk_backend/internal/config"
	"takarawalk_backend/internal/model"
	"takarawalk_backend/internal/repository"
	"takarawalk_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(t *testing.T) *AuthService {
	t.Helper()

	db := setupTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.Admin.Email = "admin@example.com"
	return NewAuthService(repository.NewUserRepository(db), cfg)
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	s := newTestAuth(t)

	resp, err := s.Register(RegisterRequest{
		Email:       "Alice@Example.com",
		Password:    "password123",
		DisplayName: "alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "alice@example.com", resp.User.Email, "email stored lower-case")
	assert.Equal(t, model.RoleUser, resp.User.Role)
	assert.NotEqual(t, "password123", resp.User.Password, "never stored in the clear")

	claims, err := util.ParseJWT(resp.Token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)
	assert.Equal(t, "alice", claims.DisplayName)

	login, err := s.Login(LoginRequest{Email: "alice@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)

	_, err = s.Login(LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredential)

	_, err = s.Login(LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, util.ErrInvalidCredential)
}

func TestAuth_DuplicateEmailRejected(t *testing.T) {
	s := newTestAuth(t)

	req := RegisterRequest{Email: "alice@example.com", Password: "password123", DisplayName: "alice"}
	_, err := s.Register(req)
	require.NoError(t, err)

	_, err = s.Register(req)
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestAuth_AdminEmailGetsAdminRole(t *testing.T) {
	s := newTestAuth(t)

	resp, err := s.Register(RegisterRequest{
		Email:       "Admin@Example.com",
		Password:    "password123",
		DisplayName: "root",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.User.Role)
}
