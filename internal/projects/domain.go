package projects

import "time"

// DefaultRestoreWindow is how long a trashed project stays restorable
// unless configuration overrides it.
const DefaultRestoreWindow = 72 * time.Hour

// Project is a fansub project (an anime season, a manga, a novel). Order
// defines the manual sort position on the public site and is unique within
// the non-deleted set; a trashed project keeps its order until restored or
// purged, it is never renumbered.
type Project struct {
	ID        int64
	Title     string
	Slug      string
	Type      string
	Synopsis  string
	CoverURL  *string
	AniListID *int64
	Order     int
	DeletedAt *time.Time
	DeletedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Trashed reports whether the project is in the trash.
func (p Project) Trashed() bool {
	return p.DeletedAt != nil
}
