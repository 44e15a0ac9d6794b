package grants

import "strings"

// Resolver turns raw actor records into normalized capability sets. The
// owner allow-list comes from configuration so deployments (and tests) can
// swap it without touching code.
type Resolver struct {
	owners map[string]struct{}
}

// NewResolver constructs a Resolver with the given owner ID allow-list.
func NewResolver(ownerIDs []string) *Resolver {
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		owners[id] = struct{}{}
	}
	return &Resolver{owners: owners}
}

// IsOwner reports whether the ID is in the owner allow-list.
func (r *Resolver) IsOwner(id string) bool {
	_, ok := r.owners[id]
	return ok
}

// Resolve computes the effective capability set for an actor. A nil actor
// (unauthenticated request) resolves to the empty set. Owners resolve to
// the wildcard regardless of stored permissions. Members of the admin role
// also receive the wildcard.
func (r *Resolver) Resolve(actor *Actor) Grants {
	if actor == nil {
		return Grants{}
	}
	if r.IsOwner(actor.ID) {
		return Grants{Wildcard: {}}
	}
	g := make(Grants, len(actor.Permissions))
	for _, p := range actor.Permissions {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		g[p] = struct{}{}
	}
	for _, role := range actor.Roles {
		if strings.EqualFold(strings.TrimSpace(role), RoleAdmin) {
			g[Wildcard] = struct{}{}
			break
		}
	}
	return g
}
