package posts

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestSlugTakenMatchesConstraintError(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "uq_posts_slug"}
	assert.True(t, slugTaken(err))
	assert.True(t, slugTaken(fmt.Errorf("insert post: %w", err)))
}

func TestSlugTakenIgnoresOtherErrors(t *testing.T) {
	assert.False(t, slugTaken(errors.New("connection reset")))
	assert.False(t, slugTaken(&pgconn.PgError{Code: "23505", ConstraintName: "uq_projects_slug"}))
	assert.False(t, slugTaken(nil))
}
