package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"dockyard/internal/api/middleware"
	"dockyard/internal/app/service"
	"dockyard/internal/common"
	"dockyard/internal/common/security"
	"dockyard/internal/domain/model"
	"dockyard/internal/platform/config"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/stretchr/testify/require"
	"k8s.io/client-go/kubernetes/fake"
)

// memUserRepo mirrors the Postgres repository's conflict semantics.
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

// stubEngine satisfies service.EngineAPI through the embedded client; only
// the operations this test exercises are overridden.
type stubEngine struct {
	*client.Client
}

func (stubEngine) ImageList(context.Context, image.ListOptions) ([]image.Summary, error) {
	return []image.Summary{}, nil
}

func (stubEngine) ContainerRemove(context.Context, string, container.RemoveOptions) error {
	return nil
}

func setupRouter(t *testing.T) (http.Handler, *memUserRepo) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:            []byte("test-secret"),
		JWTExp:            time.Hour,
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		EngineTimeout:     30 * time.Second,
	}
	security.InitJWT()

	repo := newMemUserRepo()
	eng := stubEngine{}

	router := NewRouter(
		service.NewAuthService(repo),
		service.NewImageService(eng),
		service.NewContainerService(eng),
		service.NewVolumeService(eng),
		service.NewPodService(fake.NewSimpleClientset(), "default"),
		repo,
		middleware.NewRateLimiter(nil), // no Redis in tests; limiting disabled
	)
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_RegisterLoginAndRoleEnforcement(t *testing.T) {
	router, _ := setupRouter(t)

	// register alice as a plain user
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "password": "pw123", "role": "user",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var reg service.RegisterResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reg))
	require.NotEmpty(t, reg.UserID)

	// login
	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "alice", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tok service.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tok))
	require.NotEmpty(t, tok.AccessToken)
	require.Equal(t, "bearer", tok.TokenType)

	// container removal is admin-only
	w = doJSON(t, router, http.MethodPost, "/api/v1/containers/remove", tok.AccessToken, map[string]string{
		"container_name": "web",
	})
	require.Equal(t, http.StatusForbidden, w.Code)

	// but listing images is allowed for the user role
	w = doJSON(t, router, http.MethodGet, "/api/v1/images", tok.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AdminCanRemoveContainer(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "root", "password": "pw123", "role": "admin",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "root", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tok service.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tok))

	w = doJSON(t, router, http.MethodPost, "/api/v1/containers/remove", tok.AccessToken, map[string]string{
		"container_name": "web",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp common.OperationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Contains(t, resp.Message, "container 'web' removed by root")
}

func TestRouter_UnauthenticatedRequests(t *testing.T) {
	router, _ := setupRouter(t)

	// no token
	w := doJSON(t, router, http.MethodGet, "/api/v1/images", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// malformed token
	w = doJSON(t, router, http.MethodGet, "/api/v1/images", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// expired token
	config.AppConfig.JWTExp = -time.Minute
	expired, err := security.GenerateToken("alice", "user")
	require.NoError(t, err)
	config.AppConfig.JWTExp = time.Hour

	w = doJSON(t, router, http.MethodGet, "/api/v1/images", expired, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_TokenForDeletedAccountIsRejected(t *testing.T) {
	router, repo := setupRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "ghost", "password": "pw123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/token", "", map[string]string{
		"username": "ghost", "password": "pw123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var tok service.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&tok))

	// Account disappears; the structurally valid token must stop working.
	repo.mu.Lock()
	delete(repo.users, "ghost")
	repo.mu.Unlock()

	w = doJSON(t, router, http.MethodGet, "/api/v1/images", tok.AccessToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_DuplicateRegistration(t *testing.T) {
	router, _ := setupRouter(t)

	payload := map[string]string{"username": "alice", "password": "pw123"}
	w := doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/auth/register", "", payload)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_HealthIsPublic(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}
