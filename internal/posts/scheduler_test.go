package posts

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func draftPost() Post {
	return Post{ID: 1, Title: "Lançamento #42", Slug: "lancamento-42", Status: StatusDraft}
}

func TestTransitionDraftResave(t *testing.T) {
	p, err := Transition(draftPost(), StatusDraft, nil, now)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, p.Status)
	assert.Nil(t, p.PublishedAt)
}

func TestTransitionScheduleWithoutDateFails(t *testing.T) {
	_, err := Transition(draftPost(), StatusScheduled, nil, now)
	assert.True(t, errors.Is(err, shared.ErrMissingScheduleDate))
}

func TestTransitionScheduleStoresDateVerbatim(t *testing.T) {
	target := now.Add(48 * time.Hour)
	p, err := Transition(draftPost(), StatusScheduled, &target, now)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, p.Status)
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, target, *p.PublishedAt)
}

func TestTransitionSchedulePastDateAccepted(t *testing.T) {
	// Past-date policy belongs to the UI, not the scheduler.
	target := now.Add(-24 * time.Hour)
	p, err := Transition(draftPost(), StatusScheduled, &target, now)
	require.NoError(t, err)
	assert.Equal(t, target, *p.PublishedAt)
}

func TestTransitionPublishDefaultsToNow(t *testing.T) {
	p, err := Transition(draftPost(), StatusPublished, nil, now)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, p.Status)
	require.NotNil(t, p.PublishedAt)
	assert.Equal(t, now, *p.PublishedAt)
}

func TestTransitionPublishWithExplicitDate(t *testing.T) {
	target := now.Add(-time.Hour)
	p, err := Transition(draftPost(), StatusPublished, &target, now)
	require.NoError(t, err)
	assert.Equal(t, target, *p.PublishedAt)
}

func TestTransitionPublishedResaveKeepsTimestamp(t *testing.T) {
	published, err := Transition(draftPost(), StatusPublished, nil, now)
	require.NoError(t, err)

	later := now.Add(3 * time.Hour)
	resaved, err := Transition(published, StatusPublished, nil, later)
	require.NoError(t, err)
	assert.Equal(t, now, *resaved.PublishedAt)
}

func TestTransitionPublishedResaveWithNewDate(t *testing.T) {
	published, err := Transition(draftPost(), StatusPublished, nil, now)
	require.NoError(t, err)

	corrected := now.Add(-2 * time.Hour)
	resaved, err := Transition(published, StatusPublished, &corrected, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, corrected, *resaved.PublishedAt)
}

func TestTransitionUnpublish(t *testing.T) {
	published, err := Transition(draftPost(), StatusPublished, nil, now)
	require.NoError(t, err)

	back, err := Transition(published, StatusDraft, nil, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, back.Status)
	// Unpublishing keeps the old timestamp around; only the status moves.
	assert.Equal(t, now, *back.PublishedAt)
}

func TestTransitionPublishedToScheduled(t *testing.T) {
	published, err := Transition(draftPost(), StatusPublished, nil, now)
	require.NoError(t, err)

	target := now.Add(7 * 24 * time.Hour)
	rescheduled, err := Transition(published, StatusScheduled, &target, now)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, rescheduled.Status)
	assert.Equal(t, target, *rescheduled.PublishedAt)
}

func TestTransitionScheduledToPublishedKeepsSuppliedDate(t *testing.T) {
	target := now.Add(48 * time.Hour)
	scheduled, err := Transition(draftPost(), StatusScheduled, &target, now)
	require.NoError(t, err)

	// The publish job passes the stored target through.
	published, err := Transition(scheduled, StatusPublished, scheduled.PublishedAt, target.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, target, *published.PublishedAt)
}

func TestTransitionUnknownStatus(t *testing.T) {
	_, err := Transition(draftPost(), Status("arquivado"), nil, now)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}
