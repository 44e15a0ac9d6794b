package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// Stage identifiers shared by both pipelines. Stored verbatim in the
// completed-stages column, so renaming one requires a data migration.
const (
	StageAwaitingRaw  = "aguardando-raw"
	StageTranslation  = "traducao"
	StageCleaning     = "limpeza"
	StageRedrawing    = "redrawing"
	StageRevision     = "revisao"
	StageTiming       = "timing"
	StageTypesetting  = "typesetting"
	StageQualityCheck = "quality-check"
	StageEncode       = "encode"
)

// ErrNoStageList indicates a content type with no configured stage list.
// This is a configuration bug, not a user-facing condition; callers fail
// closed instead of guessing a pipeline.
var ErrNoStageList = errors.New("pipeline: no stage list for content type")

// EpisodicStages is the ordered pipeline for anime-like projects.
func EpisodicStages() []string {
	return []string{
		StageAwaitingRaw,
		StageTranslation,
		StageRevision,
		StageTiming,
		StageTypesetting,
		StageQualityCheck,
		StageEncode,
	}
}

// ChapterStages is the ordered pipeline for manga-like projects.
func ChapterStages() []string {
	return []string{
		StageAwaitingRaw,
		StageTranslation,
		StageCleaning,
		StageRedrawing,
		StageRevision,
		StageTypesetting,
		StageQualityCheck,
	}
}

// ChapterBased reports whether the content type uses the chapter pipeline
// and the volume sort tiebreak.
func ChapterBased(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "manga", "manhwa", "manhua", "webtoon", "light-novel", "novel", "oneshot":
		return true
	default:
		return false
	}
}

// EpisodeBased reports whether the content type uses the episodic pipeline.
func EpisodeBased(contentType string) bool {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "anime", "ona", "ova", "filme", "especial", "donghua":
		return true
	default:
		return false
	}
}

// KnownContentType reports whether a stage list exists for the content type.
func KnownContentType(contentType string) bool {
	return ChapterBased(contentType) || EpisodeBased(contentType)
}

// StagesFor returns the ordered stage list for the content type. Unknown
// types return ErrNoStageList rather than a guessed default.
func StagesFor(contentType string) ([]string, error) {
	switch {
	case ChapterBased(contentType):
		return ChapterStages(), nil
	case EpisodeBased(contentType):
		return EpisodicStages(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrNoStageList, contentType)
	}
}

// CurrentStage derives the stage an item is currently at: the first stage
// in list not yet completed, or the last stage when everything is done.
// Duplicates and unknown identifiers in completed are ignored. The result
// is never persisted; callers recompute it on every read.
func CurrentStage(list []string, completed []string) string {
	done := make(map[string]struct{}, len(completed))
	for _, s := range completed {
		done[s] = struct{}{}
	}
	for _, stage := range list {
		if _, ok := done[stage]; !ok {
			return stage
		}
	}
	return list[len(list)-1]
}

// Toggle flips the presence of stage in the completed set and returns the
// new set in stage-list order. Marking a later stage without the earlier
// ones is allowed; progress only reports the earliest gap. The result is
// normalized against list: identifiers outside it are dropped, whether
// toggled or already present, so involutivity holds over the list's stages
// only. Callers reject unknown stages before toggling.
func Toggle(list []string, completed []string, stage string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, s := range completed {
		done[s] = struct{}{}
	}
	if _, ok := done[stage]; ok {
		delete(done, stage)
	} else {
		done[stage] = struct{}{}
	}
	out := make([]string, 0, len(done))
	for _, s := range list {
		if _, ok := done[s]; ok {
			out = append(out, s)
		}
	}
	return out
}

// KnownStage reports whether stage belongs to list.
func KnownStage(list []string, stage string) bool {
	for _, s := range list {
		if s == stage {
			return true
		}
	}
	return false
}
