package episodes

import (
	"context"
	"fmt"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/pipeline"
	"github.com/hoshizora-fansub/hoshizora/internal/projects"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// RepositoryPort defines data access methods for episodes.
type RepositoryPort interface {
	Create(ctx context.Context, e Episode) (*Episode, error)
	Get(ctx context.Context, id int64) (*Episode, error)
	ListByProject(ctx context.Context, projectID int64) ([]Episode, error)
	Update(ctx context.Context, e Episode) (*Episode, error)
	Delete(ctx context.Context, id int64) error
}

// ProjectSource resolves the owning project, giving the service the
// content type that selects the stage list and the sort tiebreak.
type ProjectSource interface {
	Get(ctx context.Context, id int64) (*projects.Project, error)
}

// View pairs an episode snapshot with its derived progress stage.
type View struct {
	Episode
	ProgressStage string
}

// Service handles episode business logic. Episodes share the project
// management capability.
type Service struct {
	repo     RepositoryPort
	projects ProjectSource
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, projects ProjectSource) *Service {
	return &Service{repo: repo, projects: projects}
}

// CreateEpisodeInput carries the fields for a new episode.
type CreateEpisodeInput struct {
	Number float64 `validate:"gt=0"`
	Volume *int
	Title  string
}

// ListByProject returns a project's episodes sorted for display, each with
// its derived progress stage.
func (s *Service) ListByProject(ctx context.Context, g grants.Grants, projectID int64) ([]View, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list, err := pipeline.StagesFor(project.Type)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	Sort(items, pipeline.ChapterBased(project.Type))
	out := make([]View, 0, len(items))
	for _, e := range items {
		out = append(out, View{
			Episode:       e,
			ProgressStage: pipeline.CurrentStage(list, e.CompletedStages),
		})
	}
	return out, nil
}

// Create adds an episode to a project with an empty pipeline.
func (s *Service) Create(ctx context.Context, g grants.Grants, projectID int64, input CreateEpisodeInput) (*View, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.Trashed() {
		return nil, shared.ErrInvalidTransition
	}
	list, err := pipeline.StagesFor(project.Type)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, Episode{
		ProjectID: projectID,
		Number:    input.Number,
		Volume:    input.Volume,
		Title:     input.Title,
	})
	if err != nil {
		return nil, err
	}
	return &View{
		Episode:       *created,
		ProgressStage: pipeline.CurrentStage(list, created.CompletedStages),
	}, nil
}

// ToggleStage flips one pipeline stage on an episode and persists the new
// snapshot. The stage must belong to the project type's stage list, and the
// episode must belong to projectID.
func (s *Service) ToggleStage(ctx context.Context, g grants.Grants, projectID, episodeID int64, stage string) (*View, error) {
	if !g.Has(grants.CapProjects) {
		return nil, shared.ErrForbidden
	}
	e, err := s.episodeOf(ctx, projectID, episodeID)
	if err != nil {
		return nil, err
	}
	project, err := s.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	list, err := pipeline.StagesFor(project.Type)
	if err != nil {
		return nil, err
	}
	if !pipeline.KnownStage(list, stage) {
		return nil, fmt.Errorf("%w: etapa %q", shared.ErrNotFound, stage)
	}
	e.CompletedStages = pipeline.Toggle(list, e.CompletedStages, stage)
	updated, err := s.repo.Update(ctx, *e)
	if err != nil {
		return nil, err
	}
	return &View{
		Episode:       *updated,
		ProgressStage: pipeline.CurrentStage(list, updated.CompletedStages),
	}, nil
}

// Delete removes an episode belonging to projectID.
func (s *Service) Delete(ctx context.Context, g grants.Grants, projectID, episodeID int64) error {
	if !g.Has(grants.CapProjects) {
		return shared.ErrForbidden
	}
	if _, err := s.episodeOf(ctx, projectID, episodeID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, episodeID)
}

// episodeOf loads an episode and verifies it belongs to the project named
// in the request path. An episode reached through another project's URL is
// indistinguishable from a missing one.
func (s *Service) episodeOf(ctx context.Context, projectID, episodeID int64) (*Episode, error) {
	e, err := s.repo.Get(ctx, episodeID)
	if err != nil {
		return nil, err
	}
	if e.ProjectID != projectID {
		return nil, shared.ErrNotFound
	}
	return e, nil
}
