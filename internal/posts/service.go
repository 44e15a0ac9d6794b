package posts

import (
	"context"
	"time"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// RepositoryPort defines data access methods for posts.
type RepositoryPort interface {
	Create(ctx context.Context, p Post) (*Post, error)
	Get(ctx context.Context, id int64) (*Post, error)
	List(ctx context.Context, status *Status) ([]Post, error)
	Update(ctx context.Context, p Post) (*Post, error)
	Delete(ctx context.Context, id int64) error
	ListDueScheduled(ctx context.Context, now time.Time) ([]Post, error)
}

// Service handles post business logic.
type Service struct {
	repo RepositoryPort
	now  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreatePostInput carries the fields for a new post. Status defaults to
// draft; a schedule date is required only when Status is scheduled.
type CreatePostInput struct {
	Title       string `validate:"required,min=1,max=200"`
	Content     string
	CoverURL    *string
	AuthorID    string `validate:"required"`
	Status      Status `validate:"omitempty,oneof=draft scheduled published"`
	PublishedAt *time.Time
}

// UpdatePostInput carries optional edits plus the requested target status.
type UpdatePostInput struct {
	Title       *string
	Content     *string
	CoverURL    *string
	Status      *Status
	PublishedAt *time.Time
}

// List returns posts, optionally filtered by status.
func (s *Service) List(ctx context.Context, g grants.Grants, status *Status) ([]Post, error) {
	if !g.Has(grants.CapPosts) {
		return nil, shared.ErrForbidden
	}
	return s.repo.List(ctx, status)
}

// Get fetches one post.
func (s *Service) Get(ctx context.Context, g grants.Grants, id int64) (*Post, error) {
	if !g.Has(grants.CapPosts) {
		return nil, shared.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new post, running the status transition rules from a
// blank draft so the publication invariants hold from the first save.
func (s *Service) Create(ctx context.Context, g grants.Grants, input CreatePostInput) (*Post, error) {
	if !g.Has(grants.CapPosts) {
		return nil, shared.ErrForbidden
	}
	p := Post{
		Title:    input.Title,
		Slug:     shared.Slugify(input.Title),
		Content:  input.Content,
		CoverURL: input.CoverURL,
		AuthorID: input.AuthorID,
		Status:   StatusDraft,
	}
	target := input.Status
	if target == "" {
		target = StatusDraft
	}
	p, err := Transition(p, target, input.PublishedAt, s.now())
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, p)
}

// Update edits a post and applies the requested status transition. With
// neither a target status nor a date the content re-saves in place, so a
// published post keeps its PublishedAt untouched.
func (s *Service) Update(ctx context.Context, g grants.Grants, id int64, input UpdatePostInput) (*Post, error) {
	if !g.Has(grants.CapPosts) {
		return nil, shared.ErrForbidden
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		p.Title = *input.Title
		p.Slug = shared.Slugify(*input.Title)
	}
	if input.Content != nil {
		p.Content = *input.Content
	}
	if input.CoverURL != nil {
		p.CoverURL = input.CoverURL
	}
	next := *p
	if input.Status != nil || input.PublishedAt != nil {
		target := p.Status
		if input.Status != nil {
			target = *input.Status
		}
		next, err = Transition(*p, target, input.PublishedAt, s.now())
		if err != nil {
			return nil, err
		}
	}
	return s.repo.Update(ctx, next)
}

// Delete removes a post permanently.
func (s *Service) Delete(ctx context.Context, g grants.Grants, id int64) error {
	if !g.Has(grants.CapPosts) {
		return shared.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// PublishDue flips scheduled posts whose instant arrived to published,
// keeping their scheduled timestamp verbatim. Called by the publish job.
func (s *Service) PublishDue(ctx context.Context) (int, error) {
	now := s.now()
	due, err := s.repo.ListDueScheduled(ctx, now)
	if err != nil {
		return 0, err
	}
	published := 0
	for _, p := range due {
		next, err := Transition(p, StatusPublished, p.PublishedAt, now)
		if err != nil {
			return published, err
		}
		if _, err := s.repo.Update(ctx, next); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}
