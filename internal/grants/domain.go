package grants

// Capability tokens understood by the dashboard. The tokens are stored
// verbatim on user records, so renaming one requires a data migration.
const (
	CapPosts    = "posts"
	CapProjects = "projetos"
	CapComments = "comentarios"
	CapUsers    = "usuarios"
	CapPages    = "paginas"
	CapSettings = "configuracoes"

	// Wildcard grants every capability.
	Wildcard = "*"

	// RoleAdmin marks a role whose members receive the wildcard.
	RoleAdmin = "admin"
)

// AllCapabilities lists every capability token in declaration order.
func AllCapabilities() []string {
	return []string{CapPosts, CapProjects, CapComments, CapUsers, CapPages, CapSettings}
}

// Actor is the identity a request acts as. Owner status is not stored on
// the record; it is derived from the resolver's owner allow-list.
type Actor struct {
	ID          string
	Permissions []string
	Roles       []string
}

// Grants is the resolved capability set for one actor in one request
// context. It is derived, never persisted, and must be recomputed on every
// authorization check.
type Grants map[string]struct{}

// Has reports whether the capability (or the wildcard) is granted.
func (g Grants) Has(capability string) bool {
	if _, ok := g[Wildcard]; ok {
		return true
	}
	_, ok := g[capability]
	return ok
}

// IsEmpty reports whether no capability is granted.
func (g Grants) IsEmpty() bool {
	return len(g) == 0
}
