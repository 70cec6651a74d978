package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"dockyard/internal/common"
	"dockyard/internal/common/security"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
)

// memUserRepo is an in-memory UserRepository with the same conflict
// semantics as the Postgres implementation.
type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: map[string]*model.User{}}
}

func (r *memUserRepo) Create(_ context.Context, user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return fmt.Errorf("username already registered: %w", common.ErrConflict)
	}
	copied := *user
	r.users[user.Username] = &copied
	return nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return nil, common.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == id {
			copied := *user
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func setupAuth(t *testing.T) *AuthService {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey: []byte("test-secret"),
		JWTExp: time.Hour,
	}
	security.InitJWT()
	return NewAuthService(newMemUserRepo())
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123", Role: "user"})
	require.NoError(t, err)
	require.NotEmpty(t, reg.UserID)

	resp, err := svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	require.Equal(t, "bearer", resp.TokenType)

	token, err := jwtauth.VerifyToken(security.TokenAuth, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "alice", token.Subject())
	role, _ := token.Get("role")
	require.Equal(t, "user", role)
}

func TestAuthService_RegisterDuplicateUsername(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, common.ErrConflict)

	// The original record is untouched: the first password still logs in.
	_, err = svc.Login(ctx, LoginRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)
	_, err = svc.Login(ctx, LoginRequest{Username: "alice", Password: "other"})
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestAuthService_RegisterRejectsUnknownRole(t *testing.T) {
	svc := setupAuth(t)

	_, err := svc.Register(context.Background(), RegisterRequest{Username: "bob", Password: "pw", Role: "root"})
	require.ErrorIs(t, err, common.ErrBadRequest)
}

func TestAuthService_RegisterDefaultsToUserRole(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "carol", Password: "pw123"})
	require.NoError(t, err)

	resp, err := svc.Login(ctx, LoginRequest{Username: "carol", Password: "pw123"})
	require.NoError(t, err)

	token, err := jwtauth.VerifyToken(security.TokenAuth, resp.AccessToken)
	require.NoError(t, err)
	role, _ := token.Get("role")
	require.Equal(t, model.RoleUser, role)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	svc := setupAuth(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "pw123"})
	require.NoError(t, err)

	_, badUser := svc.Login(ctx, LoginRequest{Username: "nobody", Password: "pw123"})
	_, badPass := svc.Login(ctx, LoginRequest{Username: "alice", Password: "wrong"})

	require.ErrorIs(t, badUser, common.ErrUnauthorized)
	require.ErrorIs(t, badPass, common.ErrUnauthorized)
	require.Equal(t, badUser.Error(), badPass.Error())
}
