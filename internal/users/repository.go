package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// ErrAlreadyExists indicates an email collision.
var ErrAlreadyExists = fmt.Errorf("%w: user email", shared.ErrAlreadyExists)

const userColumns = `
	id, email, name, permissions, roles, is_active, created_at, updated_at`

// Repository provides PostgreSQL backed persistence for users.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// List returns all users ordered by name.
func (r *Repository) List(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT`+userColumns+` FROM users ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Get fetches one user.
func (r *Repository) Get(ctx context.Context, id int64) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// Create inserts a user with a hashed password.
func (r *Repository) Create(ctx context.Context, u User, passwordHash string) (*User, error) {
	query := `
		INSERT INTO users (email, name, password_hash, permissions, roles, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		u.Email, u.Name, passwordHash, listOrEmpty(u.Permissions), listOrEmpty(u.Roles), u.IsActive,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if emailTaken(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

// emailTaken reports whether err is the email uniqueness violation.
func emailTaken(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.ConstraintName == "uq_users_email"
}

// UpdateGrants replaces a user's permissions and roles.
func (r *Repository) UpdateGrants(ctx context.Context, id int64, permissions, roles []string) (*User, error) {
	query := `
		UPDATE users
		SET permissions = $2, roles = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING` + userColumns
	row := r.pool.QueryRow(ctx, query, id, listOrEmpty(permissions), listOrEmpty(roles))
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// SetActive flips the account's active flag. Deactivated accounts keep
// their row but fail authentication and grant resolution.
func (r *Repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.Name, &u.Permissions, &u.Roles, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func listOrEmpty(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
