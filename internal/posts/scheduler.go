package posts

import (
	"time"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// Transition computes the post snapshot after moving to target. The
// workflow is deliberately permissive: every status can reach every other,
// including unpublishing. The only hard failure is scheduling without a
// date. `at` is the editor-supplied timestamp, nil when none was given.
//
// Scheduling stores `at` verbatim, past dates included; rejecting those is
// a UI policy, not a scheduler rule.
func Transition(p Post, target Status, at *time.Time, now time.Time) (Post, error) {
	if !target.Valid() {
		return Post{}, shared.ErrInvalidTransition
	}
	switch target {
	case StatusDraft:
		p.Status = StatusDraft
	case StatusScheduled:
		if at == nil {
			return Post{}, shared.ErrMissingScheduleDate
		}
		p.Status = StatusScheduled
		ts := *at
		p.PublishedAt = &ts
	case StatusPublished:
		// Re-saving a published post without a date leaves the original
		// timestamp untouched; everything else defaults to now.
		switch {
		case at != nil:
			ts := *at
			p.PublishedAt = &ts
		case p.Status != StatusPublished || p.PublishedAt == nil:
			ts := now
			p.PublishedAt = &ts
		}
		p.Status = StatusPublished
	}
	return p, nil
}
