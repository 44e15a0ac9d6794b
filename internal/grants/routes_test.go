package grants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func grantsOf(caps ...string) Grants {
	g := make(Grants, len(caps))
	for _, c := range caps {
		g[c] = struct{}{}
	}
	return g
}

func TestNormalizePath(t *testing.T) {
	cases := map[string]string{
		"/dashboard/posts":           "/dashboard/posts",
		"/dashboard/posts/":          "/dashboard/posts",
		"/dashboard/posts//":         "/dashboard/posts",
		"/dashboard/posts?page=2":    "/dashboard/posts",
		"/dashboard/posts/?page=2":   "/dashboard/posts",
		"/":                          "/",
		"/dashboard/projetos/7/edit": "/dashboard/projetos/7/edit",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizePath(in), in)
	}
}

func TestAllowsMatchesCapability(t *testing.T) {
	p := NewPolicy(DashboardRoutes(), nil)

	for _, route := range DashboardRoutes() {
		assert.True(t, p.Allows(route.Path, grantsOf(route.Capability)), route.Path)
		assert.True(t, p.Allows(route.Path, grantsOf(Wildcard)), route.Path)
		assert.False(t, p.Allows(route.Path, grantsOf()), route.Path)
	}
}

func TestAllowsSubPathsInheritPrefix(t *testing.T) {
	p := NewPolicy(DashboardRoutes(), nil)

	g := grantsOf(CapProjects)
	assert.True(t, p.Allows("/dashboard/projetos/42", g))
	assert.True(t, p.Allows("/dashboard/projetos/42/episodios/", g))
	assert.False(t, p.Allows("/dashboard/posts/42", g))
}

func TestAllowsLongestPrefixWins(t *testing.T) {
	routes := []Route{
		{Path: "/dashboard/projetos", Capability: CapProjects},
		{Path: "/dashboard/projetos/lixeira", Capability: CapSettings},
	}
	p := NewPolicy(routes, nil)

	assert.True(t, p.Allows("/dashboard/projetos/lixeira", grantsOf(CapSettings)))
	assert.False(t, p.Allows("/dashboard/projetos/lixeira", grantsOf(CapProjects)))
	assert.True(t, p.Allows("/dashboard/projetos/42", grantsOf(CapProjects)))
}

func TestAllowsUnlistedPathFailsOpen(t *testing.T) {
	p := NewPolicy(DashboardRoutes(), nil)
	assert.True(t, p.Allows("/dashboard/relatorios", grantsOf()))
}

func TestFirstAllowedFollowsPriorityOrder(t *testing.T) {
	p := NewPolicy(DashboardRoutes(), nil)

	assert.Equal(t, "/dashboard/posts", p.FirstAllowed(grantsOf(Wildcard)))
	assert.Equal(t, "/dashboard/projetos", p.FirstAllowed(grantsOf(CapProjects, CapUsers)))
	assert.Equal(t, "/dashboard/usuarios", p.FirstAllowed(grantsOf(CapUsers)))
	assert.Equal(t, NoAccessPath, p.FirstAllowed(grantsOf()))
}
