// Package featurediff computes reviewable, line-level differences between two
// snapshots of a feature state. Every function is pure: inputs are read only
// and a missing state is rendered with defaults instead of failing.
package featurediff

import (
	"strconv"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/linediff"
)

// RemovedName replaces the segment name on the new side when an override was
// deleted.
const RemovedName = "$REMOVED"

// StateDiff is the diff of the enabled and value dimensions of a state.
type StateDiff struct {
	Enabled      []linediff.Segment `json:"enabled"`
	Value        []linediff.Segment `json:"value"`
	TotalChanges int                `json:"total_changes"`
}

// HasChanges reports whether any dimension changed.
func (d StateDiff) HasChanges() bool { return d.TotalChanges > 0 }

// SegmentDiff is the diff of a segment override. TotalChanges counts the
// enabled, value and priority dimensions; a name change alone does not count.
type SegmentDiff struct {
	Name         []linediff.Segment `json:"name"`
	Priority     []linediff.Segment `json:"priority"`
	Value        []linediff.Segment `json:"value"`
	Enabled      []linediff.Segment `json:"enabled"`
	TotalChanges int                `json:"total_changes"`
}

// HasChanges reports whether enabled, value or priority changed.
func (d SegmentDiff) HasChanges() bool { return d.TotalChanges > 0 }

// DiffDefault diffs two environment-default states. A nil state is treated as
// disabled with a null value, so diffing against nil renders a full addition.
func DiffDefault(oldState, newState *flagstate.FeatureState) StateDiff {
	diff := StateDiff{
		Enabled: linediff.Diff(renderEnabled(oldState), renderEnabled(newState)),
		Value:   linediff.Diff(renderValue(oldState), renderValue(newState)),
	}
	diff.TotalChanges = countChanges(diff.Enabled, diff.Value)
	return diff
}

// DiffSegmentOverride diffs two versions of a segment override. The enabled,
// value and priority of an absent side render as empty text so a removed
// override shows only removals and an added one only additions. Priority is
// rendered 1-based.
func DiffSegmentOverride(oldState, newState *flagstate.FeatureState, segmentName string) SegmentDiff {
	oldName, newName := "", RemovedName
	if oldState != nil {
		oldName = segmentName
	}
	if newState != nil {
		newName = segmentName
	}

	diff := SegmentDiff{
		Name:     linediff.Diff(oldName, newName),
		Priority: linediff.Diff(renderPriority(oldState), renderPriority(newState)),
		Value:    linediff.Diff(renderPresentValue(oldState), renderPresentValue(newState)),
		Enabled:  linediff.Diff(renderPresentEnabled(oldState), renderPresentEnabled(newState)),
	}
	diff.TotalChanges = countChanges(diff.Enabled, diff.Value, diff.Priority)
	return diff
}

func renderEnabled(state *flagstate.FeatureState) string {
	if state == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(state.Enabled)
}

func renderValue(state *flagstate.FeatureState) string {
	if state == nil {
		return flagstate.Stringify(flagstate.Null())
	}
	return flagstate.Stringify(flagstate.Normalize(state.Value))
}

func renderPresentEnabled(state *flagstate.FeatureState) string {
	if state == nil {
		return ""
	}
	return renderEnabled(state)
}

func renderPresentValue(state *flagstate.FeatureState) string {
	if state == nil {
		return ""
	}
	return renderValue(state)
}

func renderPriority(state *flagstate.FeatureState) string {
	if state == nil || state.FeatureSegment == nil {
		return ""
	}
	return strconv.Itoa(state.FeatureSegment.Priority + 1)
}

func countChanges(dimensions ...[]linediff.Segment) int {
	total := 0
	for _, segments := range dimensions {
		if linediff.HasChanges(segments) {
			total++
		}
	}
	return total
}
