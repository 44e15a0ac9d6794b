package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoshizora-fansub/hoshizora/internal/auth"
	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

func newAuthRouter(t *testing.T, repo auth.Repository, owners []string) http.Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := auth.NewHandler(
		logger,
		auth.NewService(repo),
		grants.NewResolver(owners),
		grants.NewPolicy(grants.DashboardRoutes(), logger),
		sessionManager,
		csrfManager,
	)

	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessionManager.Load(r.Context(), r)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(r.Context(), sess)
			next.ServeHTTP(w, r.WithContext(ctx))
			require.NoError(t, sessionManager.Commit(ctx, w, r, sess))
		})
	})
	handler.MountRoutes(router)
	return router
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	require.NoError(t, err)
	return string(hashed)
}

func postLogin(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	return res
}

func TestLoginSuccessAnswersWithHomeRoute(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "tradutora@hoshizora.com",
		Name:         "Yuki",
		PasswordHash: hashFor(t, "correct-horse"),
		Permissions:  []string{"projetos"},
		IsActive:     true,
	}}, nil)

	res := postLogin(t, router, `{"email":"tradutora@hoshizora.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		User struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		Permissions []string `json:"permissions"`
		IsOwner     bool     `json:"is_owner"`
		HomeRoute   string   `json:"home_route"`
		CSRFToken   string   `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.User.ID)
	assert.Equal(t, []string{"projetos"}, body.Permissions)
	assert.False(t, body.IsOwner)
	assert.Equal(t, "/dashboard/projetos", body.HomeRoute)
	assert.NotEmpty(t, body.CSRFToken)
	assert.NotEmpty(t, res.Result().Cookies())
}

func TestLoginOwnerReceivesEveryCapability(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: &auth.User{
		ID:           1,
		Email:        "fundadora@hoshizora.com",
		PasswordHash: hashFor(t, "correct-horse"),
		IsActive:     true,
	}}, []string{"1"})

	res := postLogin(t, router, `{"email":"fundadora@hoshizora.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Permissions []string `json:"permissions"`
		IsOwner     bool     `json:"is_owner"`
		HomeRoute   string   `json:"home_route"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.True(t, body.IsOwner)
	assert.Equal(t, grants.AllCapabilities(), body.Permissions)
	assert.Equal(t, "/dashboard/posts", body.HomeRoute)
}

func TestLoginNoGrantsLandsOnNoAccess(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: &auth.User{
		ID:           3,
		Email:        "novata@hoshizora.com",
		PasswordHash: hashFor(t, "correct-horse"),
		IsActive:     true,
	}}, nil)

	res := postLogin(t, router, `{"email":"novata@hoshizora.com","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Permissions []string `json:"permissions"`
		HomeRoute   string   `json:"home_route"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	assert.Empty(t, body.Permissions)
	assert.Equal(t, grants.NoAccessPath, body.HomeRoute)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "tradutora@hoshizora.com",
		PasswordHash: hashFor(t, "correct-horse"),
		IsActive:     true,
	}}, nil)

	res := postLogin(t, router, `{"email":"tradutora@hoshizora.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Contains(t, res.Body.String(), "E-mail ou senha inválidos")
}

func TestLoginInactiveAccount(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{user: &auth.User{
		ID:           7,
		Email:        "desativada@hoshizora.com",
		PasswordHash: hashFor(t, "correct-horse"),
		IsActive:     false,
	}}, nil)

	res := postLogin(t, router, `{"email":"desativada@hoshizora.com","password":"correct-horse"}`)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	router := newAuthRouter(t, &stubRepo{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, http.StatusNoContent, res.Code)
}
