package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/pipeline"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// RepositoryPort defines data access methods for projects.
type RepositoryPort interface {
	Create(ctx context.Context, p Project) (*Project, error)
	Get(ctx context.Context, id int64) (*Project, error)
	ListActive(ctx context.Context) ([]Project, error)
	ListTrash(ctx context.Context, cutoff time.Time) ([]Project, error)
	Update(ctx context.Context, p Project) (*Project, error)
	SetTrashed(ctx context.Context, id int64, deletedAt time.Time, deletedBy string) error
	ClearTrashed(ctx context.Context, id int64) (bool, error)
	PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service handles project business logic. Every operation re-checks the
// caller's grants; route gating alone does not secure the API.
type Service struct {
	repo   RepositoryPort
	window time.Duration
	now    func() time.Time
}

// NewService builds a Service with the configured restore window.
func NewService(repo RepositoryPort, window time.Duration) *Service {
	if window <= 0 {
		window = DefaultRestoreWindow
	}
	return &Service{repo: repo, window: window, now: time.Now}
}

// WithClock overrides the time source. For tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// RestoreWindow exposes the configured window.
func (s *Service) RestoreWindow() time.Duration {
	return s.window
}

// CreateProjectInput carries the fields for a new project.
type CreateProjectInput struct {
	Title     string `validate:"required,min=1,max=200"`
	Type      string `validate:"required"`
	Synopsis  string
	CoverURL  *string
	AniListID *int64
}

// UpdateProjectInput carries optional edits; nil fields are untouched.
type UpdateProjectInput struct {
	Title     *string
	Type      *string
	Synopsis  *string
	CoverURL  *string
	AniListID *int64
}

// TrashedProject pairs a trashed snapshot with its display countdown.
type TrashedProject struct {
	Project
	RemainingDays int
}

// List returns active projects in manual order.
func (s *Service) List(ctx context.Context, g grants.Grants) ([]Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	return s.repo.ListActive(ctx)
}

// Get fetches one project.
func (s *Service) Get(ctx context.Context, g grants.Grants, id int64) (*Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// Create inserts a new active project at the end of the manual ordering.
func (s *Service) Create(ctx context.Context, g grants.Grants, input CreateProjectInput) (*Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	// Every project needs a production pipeline; an unclassifiable type
	// would wedge its episodes.
	if !pipeline.KnownContentType(input.Type) {
		return nil, fmt.Errorf("%w: %q", shared.ErrUnknownContentType, input.Type)
	}
	p := Project{
		Title:     input.Title,
		Slug:      shared.Slugify(input.Title),
		Type:      input.Type,
		Synopsis:  input.Synopsis,
		CoverURL:  input.CoverURL,
		AniListID: input.AniListID,
	}
	return s.repo.Create(ctx, p)
}

// Update edits an active project. Trashed projects must be restored first.
func (s *Service) Update(ctx context.Context, g grants.Grants, id int64, input UpdateProjectInput) (*Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Trashed() {
		return nil, shared.ErrInvalidTransition
	}
	if input.Title != nil {
		p.Title = *input.Title
		p.Slug = shared.Slugify(*input.Title)
	}
	if input.Type != nil {
		if !pipeline.KnownContentType(*input.Type) {
			return nil, fmt.Errorf("%w: %q", shared.ErrUnknownContentType, *input.Type)
		}
		p.Type = *input.Type
	}
	if input.Synopsis != nil {
		p.Synopsis = *input.Synopsis
	}
	if input.CoverURL != nil {
		p.CoverURL = input.CoverURL
	}
	if input.AniListID != nil {
		p.AniListID = input.AniListID
	}
	return s.repo.Update(ctx, *p)
}

// Trash soft-deletes an active project on behalf of actorID.
func (s *Service) Trash(ctx context.Context, g grants.Grants, id int64, actorID string) (*Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	trashed, err := Trash(*p, actorID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetTrashed(ctx, trashed.ID, *trashed.DeletedAt, *trashed.DeletedBy); err != nil {
		return nil, err
	}
	return &trashed, nil
}

// Restore brings a trashed project back inside the window. A concurrent
// restore that wins the race is treated as success: the caller observes
// the project active either way.
func (s *Service) Restore(ctx context.Context, g grants.Grants, id int64) (*Project, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	restored, err := Restore(*p, s.now(), s.window)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) && !p.Trashed() {
			// Already active; double-restore race resolved idempotently.
			return p, nil
		}
		return nil, err
	}
	did, err := s.repo.ClearTrashed(ctx, restored.ID)
	if err != nil {
		return nil, err
	}
	if !did {
		return s.repo.Get(ctx, id)
	}
	return &restored, nil
}

// ListTrash returns trashed projects still inside the window, each with
// the whole-day countdown shown in the dashboard.
func (s *Service) ListTrash(ctx context.Context, g grants.Grants) ([]TrashedProject, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	now := s.now()
	rows, err := s.repo.ListTrash(ctx, now.Add(-s.window))
	if err != nil {
		return nil, err
	}
	out := make([]TrashedProject, 0, len(rows))
	for _, p := range rows {
		if !Restorable(p, now, s.window) {
			continue
		}
		out = append(out, TrashedProject{
			Project:       p,
			RemainingDays: RemainingDays(p, now, s.window),
		})
	}
	return out, nil
}

// PurgeExpired removes trashed projects past the window. Called by the
// background purge job, not by request handlers.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.PurgeExpired(ctx, s.now().Add(-s.window))
}
