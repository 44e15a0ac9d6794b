package projects

import (
	"time"

	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// Trash moves an active project to the trash, stamping who deleted it and
// when. The project snapshot is copied, never mutated. Capability checks
// are the caller's responsibility.
func Trash(p Project, actorID string, now time.Time) (Project, error) {
	if p.Trashed() {
		return Project{}, shared.ErrInvalidTransition
	}
	deletedAt := now
	p.DeletedAt = &deletedAt
	p.DeletedBy = &actorID
	return p, nil
}

// Restorable reports whether the project is trashed and still inside the
// restore window. Once the window elapses this never becomes true again.
func Restorable(p Project, now time.Time, window time.Duration) bool {
	if p.DeletedAt == nil {
		return false
	}
	return now.Sub(*p.DeletedAt) <= window
}

// Restore returns the project to the active state, clearing the deletion
// stamp. Order is left untouched. Fails with ErrWindowExpired when the
// window has elapsed, and ErrInvalidTransition when the project is not
// trashed at all.
func Restore(p Project, now time.Time, window time.Duration) (Project, error) {
	if p.DeletedAt == nil {
		return Project{}, shared.ErrInvalidTransition
	}
	if !Restorable(p, now, window) {
		return Project{}, shared.ErrWindowExpired
	}
	p.DeletedAt = nil
	p.DeletedBy = nil
	return p, nil
}

// RemainingWindow returns how long the project remains restorable. Zero
// once expired, never negative.
func RemainingWindow(p Project, now time.Time, window time.Duration) time.Duration {
	if p.DeletedAt == nil {
		return 0
	}
	remaining := window - now.Sub(*p.DeletedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RemainingDays converts the remaining window to a whole-day count for
// display, rounding up. Any remainder up to one day reads as "1 dia";
// an expired window reads as 0.
func RemainingDays(p Project, now time.Time, window time.Duration) int {
	remaining := RemainingWindow(p, now, window)
	if remaining == 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
