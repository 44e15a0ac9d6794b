package projects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

type mockRepository struct {
	projects map[int64]*Project
	nextID   int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{projects: make(map[int64]*Project), nextID: 1}
}

func (m *mockRepository) Create(ctx context.Context, p Project) (*Project, error) {
	p.ID = m.nextID
	m.nextID++
	maxOrder := 0
	for _, existing := range m.projects {
		if existing.Order > maxOrder {
			maxOrder = existing.Order
		}
	}
	p.Order = maxOrder + 1
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	m.projects[p.ID] = &p
	return &p, nil
}

func (m *mockRepository) Get(ctx context.Context, id int64) (*Project, error) {
	p, ok := m.projects[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *mockRepository) ListActive(ctx context.Context) ([]Project, error) {
	var out []Project
	for _, p := range m.projects {
		if !p.Trashed() {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) ListTrash(ctx context.Context, cutoff time.Time) ([]Project, error) {
	var out []Project
	for _, p := range m.projects {
		if p.Trashed() && !p.DeletedAt.Before(cutoff) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockRepository) Update(ctx context.Context, p Project) (*Project, error) {
	if _, ok := m.projects[p.ID]; !ok {
		return nil, shared.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	m.projects[p.ID] = &p
	return &p, nil
}

func (m *mockRepository) SetTrashed(ctx context.Context, id int64, deletedAt time.Time, deletedBy string) error {
	p, ok := m.projects[id]
	if !ok {
		return shared.ErrNotFound
	}
	if p.Trashed() {
		return shared.ErrInvalidTransition
	}
	p.DeletedAt = &deletedAt
	p.DeletedBy = &deletedBy
	return nil
}

func (m *mockRepository) ClearTrashed(ctx context.Context, id int64) (bool, error) {
	p, ok := m.projects[id]
	if !ok {
		return false, shared.ErrNotFound
	}
	if !p.Trashed() {
		return false, nil
	}
	p.DeletedAt = nil
	p.DeletedBy = nil
	return true, nil
}

func (m *mockRepository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	var purged int64
	for id, p := range m.projects {
		if p.Trashed() && p.DeletedAt.Before(cutoff) {
			delete(m.projects, id)
			purged++
		}
	}
	return purged, nil
}

func manageGrants() grants.Grants {
	return grants.Grants{grants.CapProjects: {}}
}

func newTestService(t *testing.T, at time.Time) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo, 3*24*time.Hour).WithClock(func() time.Time { return at })
	return svc, repo
}

func seedProject(t *testing.T, svc *Service) *Project {
	t.Helper()
	p, err := svc.Create(context.Background(), manageGrants(), CreateProjectInput{
		Title: "Ao Ashi",
		Type:  "anime",
	})
	require.NoError(t, err)
	return p
}

func TestServiceRequiresCapability(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()

	_, err := svc.List(ctx, grants.Grants{})
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	_, err = svc.Create(ctx, grants.Grants{grants.CapPosts: {}}, CreateProjectInput{Title: "x", Type: "anime"})
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	_, err = svc.Trash(ctx, grants.Grants{}, 1, "user-1")
	assert.True(t, errors.Is(err, shared.ErrForbidden))
	_, err = svc.Restore(ctx, grants.Grants{}, 1)
	assert.True(t, errors.Is(err, shared.ErrForbidden))
}

func TestServiceWildcardSatisfiesCapability(t *testing.T) {
	svc, _ := newTestService(t, t0)

	_, err := svc.List(context.Background(), grants.Grants{grants.Wildcard: {}})
	require.NoError(t, err)
}

func TestServiceCreateSlugAndOrder(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()

	first, err := svc.Create(ctx, manageGrants(), CreateProjectInput{Title: "Jujutsu Kaisen 2ª Temporada", Type: "anime"})
	require.NoError(t, err)
	assert.Equal(t, "jujutsu-kaisen-2-temporada", first.Slug)
	assert.Equal(t, 1, first.Order)

	second, err := svc.Create(ctx, manageGrants(), CreateProjectInput{Title: "Oshi no Ko", Type: "manga"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Order)
}

func TestServiceRejectsUnknownContentType(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()

	_, err := svc.Create(ctx, manageGrants(), CreateProjectInput{Title: "Radionovela", Type: "podcast"})
	assert.True(t, errors.Is(err, shared.ErrUnknownContentType))

	p := seedProject(t, svc)
	badType := "k-drama"
	_, err = svc.Update(ctx, manageGrants(), p.ID, UpdateProjectInput{Type: &badType})
	assert.True(t, errors.Is(err, shared.ErrUnknownContentType))

	// The stored type is untouched after the rejected edit.
	got, err := svc.Get(ctx, manageGrants(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "anime", got.Type)
}

func TestServiceTrashAndListPartition(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	trashed, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)
	require.NotNil(t, trashed.DeletedAt)
	assert.Equal(t, "user-9", *trashed.DeletedBy)

	active, err := svc.List(ctx, manageGrants())
	require.NoError(t, err)
	assert.Empty(t, active)

	trash, err := svc.ListTrash(ctx, manageGrants())
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, p.ID, trash[0].ID)
	assert.Equal(t, 3, trash[0].RemainingDays)
}

func TestServiceTrashTwiceFails(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)
	_, err = svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

func TestServiceRestoreInsideWindow(t *testing.T) {
	svc, repo := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return t0.Add(2*24*time.Hour + 23*time.Hour) })
	restored, err := svc.Restore(ctx, manageGrants(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, restored.DeletedAt)
	assert.Equal(t, p.Order, restored.Order)

	stored, err := repo.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.Trashed())
}

func TestServiceRestoreAfterWindowFails(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return t0.Add(3*24*time.Hour + time.Hour) })
	_, err = svc.Restore(ctx, manageGrants(), p.ID)
	assert.True(t, errors.Is(err, shared.ErrWindowExpired))
}

func TestServiceRestoreIdempotentOnActive(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	// Restore of an already-active project reports success, mirroring the
	// second caller of a double-restore race.
	restored, err := svc.Restore(ctx, manageGrants(), p.ID)
	require.NoError(t, err)
	assert.False(t, restored.Trashed())
}

func TestServiceExpiredTrashHiddenFromBothLists(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return t0.Add(5 * 24 * time.Hour) })

	active, err := svc.List(ctx, manageGrants())
	require.NoError(t, err)
	assert.Empty(t, active)

	trash, err := svc.ListTrash(ctx, manageGrants())
	require.NoError(t, err)
	assert.Empty(t, trash)
}

func TestServicePurgeExpired(t *testing.T) {
	svc, repo := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)
	keep := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return t0.Add(time.Hour) })
	_, err = svc.Trash(ctx, manageGrants(), keep.ID, "user-9")
	require.NoError(t, err)

	// Only the first deletion is past the window at t0+3d+30m.
	svc.WithClock(func() time.Time { return t0.Add(3*24*time.Hour + 30*time.Minute) })
	purged, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = repo.Get(ctx, p.ID)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = repo.Get(ctx, keep.ID)
	assert.NoError(t, err)
}

func TestServiceUpdateTrashedFails(t *testing.T) {
	svc, _ := newTestService(t, t0)
	ctx := context.Background()
	p := seedProject(t, svc)

	_, err := svc.Trash(ctx, manageGrants(), p.ID, "user-9")
	require.NoError(t, err)

	title := "Novo título"
	_, err = svc.Update(ctx, manageGrants(), p.ID, UpdateProjectInput{Title: &title})
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}
