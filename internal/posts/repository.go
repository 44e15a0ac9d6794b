package posts

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
var ErrAlreadyExists = fmt.Errorf("%w: post slug", shared.ErrAlreadyExists)

const postColumns = `
	id, title, slug, content, cover_url, author_id, status, published_at,
	created_at, updated_at`

// Repository provides PostgreSQL backed persistence for posts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new post.
func (r *Repository) Create(ctx context.Context, p Post) (*Post, error) {
	query := `
		INSERT INTO posts (title, slug, content, cover_url, author_id, status, published_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.Title, p.Slug, p.Content, textOrNull(p.CoverURL), p.AuthorID,
		string(p.Status), timestampOrNull(p.PublishedAt),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if slugTaken(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &p, nil
}

// Get fetches one post.
func (r *Repository) Get(ctx context.Context, id int64) (*Post, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+postColumns+` FROM posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// List returns posts newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *Status) ([]Post, error) {
	query := `SELECT` + postColumns + ` FROM posts`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Update persists a full post snapshot.
func (r *Repository) Update(ctx context.Context, p Post) (*Post, error) {
	query := `
		UPDATE posts
		SET title = $2, slug = $3, content = $4, cover_url = $5,
			status = $6, published_at = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Title, p.Slug, p.Content, textOrNull(p.CoverURL),
		string(p.Status), timestampOrNull(p.PublishedAt),
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

// slugTaken reports whether err is the slug uniqueness violation.
func slugTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_posts_slug"
}

// Delete removes a post permanently. Posts have no trash window.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ListDueScheduled returns scheduled posts whose target instant has
// arrived. Used by the publish job.
func (r *Repository) ListDueScheduled(ctx context.Context, now time.Time) ([]Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+postColumns+`
		FROM posts WHERE status = $1 AND published_at IS NOT NULL AND published_at <= $2
		ORDER BY published_at`, string(StatusScheduled), now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	var cover pgtype.Text
	var status string
	var publishedAt pgtype.Timestamptz
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Content, &cover, &p.AuthorID,
		&status, &publishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Status = Status(status)
	if cover.Valid {
		p.CoverURL = &cover.String
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		p.PublishedAt = &t
	}
	return &p, nil
}

func textOrNull(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func timestampOrNull(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}
