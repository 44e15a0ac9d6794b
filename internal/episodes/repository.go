package episodes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

const episodeColumns = `
	id, project_id, number, volume, title, completed_stages, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for episodes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an episode for a project.
func (r *Repository) Create(ctx context.Context, e Episode) (*Episode, error) {
	query := `
		INSERT INTO episodes (project_id, number, volume, title, completed_stages, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		e.ProjectID, e.Number, int4OrNull(e.Volume), e.Title, stagesOrEmpty(e.CompletedStages),
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get fetches one episode.
func (r *Repository) Get(ctx context.Context, id int64) (*Episode, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+episodeColumns+` FROM episodes WHERE id = $1`, id)
	e, err := scanEpisode(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListByProject returns every episode of a project. Ordering is applied in
// the service, where the project's content type is known.
func (r *Repository) ListByProject(ctx context.Context, projectID int64) ([]Episode, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+episodeColumns+` FROM episodes WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Episode
	for rows.Next() {
		e, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Update persists a full episode snapshot.
func (r *Repository) Update(ctx context.Context, e Episode) (*Episode, error) {
	query := `
		UPDATE episodes
		SET number = $2, volume = $3, title = $4, completed_stages = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		e.ID, e.Number, int4OrNull(e.Volume), e.Title, stagesOrEmpty(e.CompletedStages),
	).Scan(&e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Delete removes an episode.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM episodes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanEpisode(row pgx.Row) (*Episode, error) {
	var e Episode
	var volume pgtype.Int4
	err := row.Scan(
		&e.ID, &e.ProjectID, &e.Number, &volume, &e.Title, &e.CompletedStages,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if volume.Valid {
		v := int(volume.Int32)
		e.Volume = &v
	}
	return &e, nil
}

func int4OrNull(v *int) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{}
	}
	return pgtype.Int4{Int32: int32(*v), Valid: true}
}

func stagesOrEmpty(stages []string) []string {
	if stages == nil {
		return []string{}
	}
	return stages
}
