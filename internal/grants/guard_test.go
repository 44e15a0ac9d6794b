package grants

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

type stubSource struct {
	actors map[string]*Actor
}

func (s *stubSource) ActorByID(ctx context.Context, id string) (*Actor, error) {
	actor, ok := s.actors[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return actor, nil
}

func guardWith(actors map[string]*Actor, owners []string) Guard {
	return Guard{Source: &stubSource{actors: actors}, Resolver: NewResolver(owners)}
}

func requestAs(userID string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/dashboard/posts", nil)
	if userID == "" {
		return req
	}
	sess := &shared.Session{ID: "sess-" + userID}
	sess.SetUser(userID)
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequirePassesWithCapability(t *testing.T) {
	g := guardWith(map[string]*Actor{"7": {ID: "7", Permissions: []string{CapPosts}}}, nil)

	var called bool
	res := httptest.NewRecorder()
	g.Require(CapPosts)(okHandler(&called)).ServeHTTP(res, requestAs("7"))

	assert.True(t, called)
	assert.Equal(t, http.StatusOK, res.Code)
}

func TestRequireRejectsMissingCapability(t *testing.T) {
	g := guardWith(map[string]*Actor{"7": {ID: "7", Permissions: []string{CapPosts}}}, nil)

	var called bool
	res := httptest.NewRecorder()
	g.Require(CapUsers)(okHandler(&called)).ServeHTTP(res, requestAs("7"))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireOwnerBypassesChecks(t *testing.T) {
	g := guardWith(map[string]*Actor{"1": {ID: "1"}}, []string{"1"})

	var called bool
	res := httptest.NewRecorder()
	g.Require(CapSettings)(okHandler(&called)).ServeHTTP(res, requestAs("1"))

	assert.True(t, called)
}

func TestRequireRejectsAnonymous(t *testing.T) {
	g := guardWith(nil, nil)

	var called bool
	res := httptest.NewRecorder()
	g.Require(CapPosts)(okHandler(&called)).ServeHTTP(res, requestAs(""))

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, res.Code)
}

func TestRequireAuthenticated(t *testing.T) {
	g := guardWith(map[string]*Actor{"7": {ID: "7"}}, nil)

	var called bool
	res := httptest.NewRecorder()
	g.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, requestAs(""))
	assert.False(t, called)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = httptest.NewRecorder()
	g.RequireAuthenticated(okHandler(&called)).ServeHTTP(res, requestAs("7"))
	assert.True(t, called)

	// Grants without any capability still authenticate; data access is
	// denied later by the services.
	g2 := guardWith(map[string]*Actor{"9": {ID: "9"}}, nil)
	res = httptest.NewRecorder()
	g2.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, FromContext(r.Context()).IsEmpty())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(res, requestAs("9"))
	assert.Equal(t, http.StatusOK, res.Code)
}
