package grants

import (
	"log/slog"
	"strings"
)

// Route pairs a dashboard path prefix with the capability required to view
// it. The table is static configuration; it is never mutated at runtime.
type Route struct {
	Path       string
	Capability string
}

// NoAccessPath is where a denied actor lands when no route satisfies their
// grants. It renders a neutral "no access" page instead of an empty state.
const NoAccessPath = "/dashboard/sem-acesso"

// DashboardRoutes returns the route table in priority order. FirstAllowed
// walks it top to bottom, so the order doubles as the redirect preference.
func DashboardRoutes() []Route {
	return []Route{
		{Path: "/dashboard/posts", Capability: CapPosts},
		{Path: "/dashboard/projetos", Capability: CapProjects},
		{Path: "/dashboard/comentarios", Capability: CapComments},
		{Path: "/dashboard/paginas", Capability: CapPages},
		{Path: "/dashboard/usuarios", Capability: CapUsers},
		{Path: "/dashboard/configuracoes", Capability: CapSettings},
	}
}

// Policy answers route-level visibility questions. Route checks are
// navigation UX only; the data-access boundary re-checks capabilities via
// the Guard middleware.
type Policy struct {
	routes []Route
	logger *slog.Logger
}

// NewPolicy builds a Policy over the given table.
func NewPolicy(routes []Route, logger *slog.Logger) *Policy {
	return &Policy{routes: routes, logger: logger}
}

// Allows reports whether the grants satisfy the capability of the route
// matching path. Matching is longest-prefix; ties resolve by declaration
// order. A path with no matching entry is allowed by default: every
// dashboard path must be listed, so a miss is a configuration bug and is
// logged as such rather than blocking the user.
func (p *Policy) Allows(path string, g Grants) bool {
	route, ok := p.match(NormalizePath(path))
	if !ok {
		if p.logger != nil {
			p.logger.Warn("route not in policy table", slog.String("path", path))
		}
		return true
	}
	return g.Has(route.Capability)
}

// FirstAllowed returns the path of the first route in priority order whose
// capability the grants satisfy, or NoAccessPath when none do.
func (p *Policy) FirstAllowed(g Grants) string {
	for _, route := range p.routes {
		if g.Has(route.Capability) {
			return route.Path
		}
	}
	return NoAccessPath
}

func (p *Policy) match(path string) (Route, bool) {
	var best Route
	bestLen := -1
	for _, route := range p.routes {
		if !matchesPrefix(path, route.Path) {
			continue
		}
		// Strictly greater keeps the first declaration on ties.
		if len(route.Path) > bestLen {
			best = route
			bestLen = len(route.Path)
		}
	}
	return best, bestLen >= 0
}

func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// NormalizePath strips the query string and trailing slashes from a
// requested path before matching.
func NormalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	for len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
