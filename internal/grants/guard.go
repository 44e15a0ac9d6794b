package grants

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// ActorSource loads the actor record behind a session user ID. Implemented
// by the users service; grants are resolved fresh from the record on every
// check so permission edits take effect on the next request.
type ActorSource interface {
	ActorByID(ctx context.Context, id string) (*Actor, error)
}

// Guard wires capability checks into HTTP handlers. Route-level checks are
// advisory; Guard is the authoritative enforcement at the data boundary.
type Guard struct {
	Source   ActorSource
	Resolver *Resolver
	Logger   *slog.Logger
}

// loadGroup collapses concurrent actor lookups for the same user into one
// query. Results are not cached across time, so grants stay fresh per
// request.
var loadGroup singleflight.Group

// Require ensures the current user holds the capability (or the wildcard).
func (g Guard) Require(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resolved, ok := g.resolve(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			if !resolved.Has(capability) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithGrants(r.Context(), resolved)))
		})
	}
}

// RequireAuthenticated only checks for a logged-in user, leaving capability
// decisions to the handler.
func (g Guard) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resolved, ok := g.resolve(r)
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithGrants(r.Context(), resolved)))
	})
}

func (g Guard) resolve(r *http.Request) (Grants, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	userID := strings.TrimSpace(sess.User())
	if userID == "" {
		return nil, false
	}
	loaded, err, _ := loadGroup.Do(userID, func() (any, error) {
		return g.Source.ActorByID(r.Context(), userID)
	})
	if err != nil {
		if g.Logger != nil {
			g.Logger.Error("load actor for grants", slog.String("user_id", userID), slog.Any("error", err))
		}
		return nil, false
	}
	actor, _ := loaded.(*Actor)
	return g.Resolver.Resolve(actor), true
}

type grantsContextKey struct{}

// ContextWithGrants stores resolved grants in context for the handler.
func ContextWithGrants(ctx context.Context, g Grants) context.Context {
	return context.WithValue(ctx, grantsContextKey{}, g)
}

// FromContext extracts grants stored by the Guard. Returns the empty set
// when the request never passed through a guard.
func FromContext(ctx context.Context) Grants {
	g, _ := ctx.Value(grantsContextKey{}).(Grants)
	if g == nil {
		return Grants{}
	}
	return g
}

// ActorIDFromContext returns the session user ID for audit fields.
func ActorIDFromContext(ctx context.Context) string {
	sess := shared.SessionFromContext(ctx)
	if sess == nil {
		return ""
	}
	return strings.TrimSpace(sess.User())
}
