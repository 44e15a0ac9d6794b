package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// ErrAlreadyExists indicates a slug collision.
var ErrAlreadyExists = fmt.Errorf("%w: project slug", shared.ErrAlreadyExists)

const projectColumns = `
	id, title, slug, type, synopsis, cover_url, anilist_id, sort_order,
	deleted_at, deleted_by, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for projects.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a project at the end of the manual ordering.
func (r *Repository) Create(ctx context.Context, p Project) (*Project, error) {
	query := `
		INSERT INTO projects (title, slug, type, synopsis, cover_url, anilist_id, sort_order, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6,
			COALESCE((SELECT MAX(sort_order) FROM projects), 0) + 1,
			NOW(), NOW())
		RETURNING id, sort_order, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		p.Title, p.Slug, p.Type, p.Synopsis, textOrNull(p.CoverURL), int8OrNull(p.AniListID),
	).Scan(&p.ID, &p.Order, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if slugTaken(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

// slugTaken reports whether err is the slug uniqueness violation.
func slugTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_projects_slug"
}

// Get fetches one project, trashed or not.
func (r *Repository) Get(ctx context.Context, id int64) (*Project, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// ListActive returns non-deleted projects in manual order.
func (r *Repository) ListActive(ctx context.Context) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+projectColumns+`
		FROM projects WHERE deleted_at IS NULL ORDER BY sort_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// ListTrash returns trashed projects whose deletion stamp is at or after
// cutoff, newest first. Older rows are effectively purged from the
// caller's point of view even before the purge job removes them.
func (r *Repository) ListTrash(ctx context.Context, cutoff time.Time) ([]Project, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+projectColumns+`
		FROM projects WHERE deleted_at IS NOT NULL AND deleted_at >= $1
		ORDER BY deleted_at DESC`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProjects(rows)
}

// Update persists the editable fields of a snapshot.
func (r *Repository) Update(ctx context.Context, p Project) (*Project, error) {
	query := `
		UPDATE projects
		SET title = $2, slug = $3, type = $4, synopsis = $5, cover_url = $6,
			anilist_id = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Slug, p.Type, p.Synopsis, textOrNull(p.CoverURL), int8OrNull(p.AniListID),
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		if slugTaken(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

// SetTrashed stamps an active project as deleted. The WHERE clause keeps a
// concurrent double-delete from overwriting the original stamp.
func (r *Repository) SetTrashed(ctx context.Context, id int64, deletedAt time.Time, deletedBy string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET deleted_at = $2, deleted_by = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`,
		id, deletedAt, deletedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrInvalidTransition
	}
	return nil
}

// ClearTrashed returns a trashed project to the active set. The boolean
// reports whether this call performed the restore; false means a concurrent
// restore got there first, which callers treat as success.
func (r *Repository) ClearTrashed(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET deleted_at = NULL, deleted_by = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NOT NULL`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeExpired hard-deletes trashed projects whose window elapsed before
// cutoff. Returns the number of rows removed.
func (r *Repository) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM projects WHERE deleted_at IS NOT NULL AND deleted_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	var cover, deletedBy pgtype.Text
	var anilist pgtype.Int8
	var deletedAt pgtype.Timestamptz
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Type, &p.Synopsis, &cover, &anilist,
		&p.Order, &deletedAt, &deletedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if cover.Valid {
		p.CoverURL = &cover.String
	}
	if anilist.Valid {
		p.AniListID = &anilist.Int64
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		p.DeletedAt = &t
	}
	if deletedBy.Valid {
		p.DeletedBy = &deletedBy.String
	}
	return &p, nil
}

func collectProjects(rows pgx.Rows) ([]Project, error) {
	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func int8OrNull(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}
