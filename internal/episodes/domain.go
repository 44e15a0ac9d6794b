package episodes

import (
	"sort"
	"time"
)

// Episode is one release unit of a project: an episode for episodic types,
// a chapter for manga-like types. Number is float to allow specials and
// half-chapters (12.5). CompletedStages holds pipeline stage identifiers;
// the current progress stage is always derived from it, never stored.
type Episode struct {
	ID              int64
	ProjectID       int64
	Number          float64
	Volume          *int
	Title           string
	CompletedStages []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VolumeOrZero returns the volume for sorting; absent volumes sort first.
func (e Episode) VolumeOrZero() int {
	if e.Volume == nil {
		return 0
	}
	return *e.Volume
}

// Sort orders episodes by number ascending. Chapter-based types break
// number ties by volume ascending. The sort is stable.
func Sort(items []Episode, chapterBased bool) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Number != items[j].Number {
			return items[i].Number < items[j].Number
		}
		if !chapterBased {
			return false
		}
		return items[i].VolumeOrZero() < items[j].VolumeOrZero()
	})
}
