package grants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNilActor(t *testing.T) {
	r := NewResolver([]string{"owner-1"})

	g := r.Resolve(nil)
	assert.True(t, g.IsEmpty())
	assert.False(t, g.Has(CapPosts))
}

func TestResolveOwnerBypassesStoredPermissions(t *testing.T) {
	r := NewResolver([]string{"owner-1", "owner-2"})

	// Owner with no stored permissions still gets everything.
	g := r.Resolve(&Actor{ID: "owner-1"})
	for _, capability := range AllCapabilities() {
		assert.True(t, g.Has(capability), capability)
	}

	// Owner with a narrow permission list is not narrowed by it.
	g = r.Resolve(&Actor{ID: "owner-2", Permissions: []string{CapComments}})
	assert.True(t, g.Has(CapUsers))
	assert.True(t, g.Has(CapSettings))
}

func TestResolveRegularActor(t *testing.T) {
	r := NewResolver([]string{"owner-1"})

	g := r.Resolve(&Actor{ID: "user-7", Permissions: []string{CapPosts, CapProjects}})
	assert.True(t, g.Has(CapPosts))
	assert.True(t, g.Has(CapProjects))
	assert.False(t, g.Has(CapUsers))
	assert.False(t, g.Has(CapSettings))
}

func TestResolveAdminRoleGrantsWildcard(t *testing.T) {
	r := NewResolver(nil)

	g := r.Resolve(&Actor{ID: "user-7", Roles: []string{"tradutor", "Admin"}})
	assert.True(t, g.Has(CapUsers))
	assert.True(t, g.Has(CapSettings))
}

func TestResolveNormalizesTokens(t *testing.T) {
	r := NewResolver(nil)

	g := r.Resolve(&Actor{ID: "user-7", Permissions: []string{" Posts ", "", "PROJETOS"}})
	assert.True(t, g.Has(CapPosts))
	assert.True(t, g.Has(CapProjects))
	assert.Len(t, g, 2)
}

func TestResolveWildcardPermission(t *testing.T) {
	r := NewResolver(nil)

	g := r.Resolve(&Actor{ID: "user-7", Permissions: []string{Wildcard}})
	require.False(t, g.IsEmpty())
	for _, capability := range AllCapabilities() {
		assert.True(t, g.Has(capability), capability)
	}
}

func TestIsOwnerTrimsAllowList(t *testing.T) {
	r := NewResolver([]string{" owner-1 ", ""})
	assert.True(t, r.IsOwner("owner-1"))
	assert.False(t, r.IsOwner(""))
}
