package posts

import "time"

// Status is the publication state of a post.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	}
	return false
}

// Post is a news/release post on the site.
//
// Invariants: scheduled posts always carry a PublishedAt (the target
// instant, stored verbatim); published posts always carry a PublishedAt
// (defaulted to the transition instant when the editor supplies none).
type Post struct {
	ID          int64
	Title       string
	Slug        string
	Content     string
	CoverURL    *string
	AuthorID    string
	Status      Status
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
