package featurediff

import (
	"testing"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/linediff"
)

func defaultState(enabled bool, value flagstate.Value) *flagstate.FeatureState {
	return &flagstate.FeatureState{Feature: 1, Enabled: enabled, Value: value}
}

func segmentState(segment, priority int, enabled bool, value flagstate.Value) *flagstate.FeatureState {
	return &flagstate.FeatureState{
		Feature:        1,
		Enabled:        enabled,
		Value:          value,
		FeatureSegment: &flagstate.FeatureSegment{Segment: segment, Priority: priority},
	}
}

func removedText(segments []linediff.Segment) string {
	var out string
	for _, segment := range segments {
		if segment.Removed {
			out += segment.Value
		}
	}
	return out
}

func addedText(segments []linediff.Segment) string {
	var out string
	for _, segment := range segments {
		if segment.Added {
			out += segment.Value
		}
	}
	return out
}

func TestDiffDefaultAgainstMissingState(t *testing.T) {
	diff := DiffDefault(nil, defaultState(true, flagstate.String("x")))
	if diff.TotalChanges != 2 {
		t.Fatalf("expected both dimensions to change, got %d", diff.TotalChanges)
	}
	if removedText(diff.Enabled) != "false" || addedText(diff.Enabled) != "true" {
		t.Fatalf("unexpected enabled diff %#v", diff.Enabled)
	}
	if removedText(diff.Value) != "null" || addedText(diff.Value) != "x" {
		t.Fatalf("unexpected value diff %#v", diff.Value)
	}
}

func TestDiffDefaultCounts(t *testing.T) {
	cases := []struct {
		name string
		old  *flagstate.FeatureState
		new  *flagstate.FeatureState
		want int
	}{
		{"identical", defaultState(true, flagstate.String("on")), defaultState(true, flagstate.String("on")), 0},
		{"both missing", nil, nil, 0},
		{"enabled only", defaultState(true, flagstate.String("on")), defaultState(false, flagstate.String("on")), 1},
		{"value only", defaultState(true, flagstate.Number(1)), defaultState(true, flagstate.Number(2)), 1},
		{"both", defaultState(false, flagstate.Null()), defaultState(true, flagstate.Bool(true)), 2},
		{"bool against string is not a change", defaultState(true, flagstate.Bool(false)), defaultState(true, flagstate.String("false")), 0},
		{"numeric string normalized", defaultState(true, flagstate.Number(42)), defaultState(true, flagstate.String("42")), 0},
		{"undefined renders as null", defaultState(true, flagstate.Value{}), defaultState(true, flagstate.Null()), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diff := DiffDefault(tc.old, tc.new)
			if diff.TotalChanges != tc.want {
				t.Fatalf("want %d changes got %d (%#v)", tc.want, diff.TotalChanges, diff)
			}
			if diff.HasChanges() != (tc.want > 0) {
				t.Fatalf("HasChanges disagrees with TotalChanges")
			}
		})
	}
}

func TestDiffDefaultDoesNotMutateInputs(t *testing.T) {
	old := defaultState(true, flagstate.String("1"))
	DiffDefault(old, nil)
	if v, ok := old.Value.AsString(); !ok || v != "1" {
		t.Fatalf("input value was mutated: %#v", old.Value)
	}
}

func TestDiffSegmentOverrideRemoved(t *testing.T) {
	old := segmentState(7, 0, true, flagstate.String("beta"))
	diff := DiffSegmentOverride(old, nil, "Beta")

	if removedText(diff.Name) != "Beta" || addedText(diff.Name) != RemovedName {
		t.Fatalf("unexpected name diff %#v", diff.Name)
	}
	if removedText(diff.Enabled) != "true" || addedText(diff.Enabled) != "" {
		t.Fatalf("expected pure removal of enabled, got %#v", diff.Enabled)
	}
	if removedText(diff.Value) != "beta" || addedText(diff.Value) != "" {
		t.Fatalf("expected pure removal of value, got %#v", diff.Value)
	}
	if removedText(diff.Priority) != "1" || addedText(diff.Priority) != "" {
		t.Fatalf("expected 1-based priority removal, got %#v", diff.Priority)
	}
	if diff.TotalChanges != 3 {
		t.Fatalf("expected 3 changes got %d", diff.TotalChanges)
	}
}

func TestDiffSegmentOverrideAdded(t *testing.T) {
	diff := DiffSegmentOverride(nil, segmentState(7, 2, false, flagstate.Number(5)), "Beta")
	if removedText(diff.Name) != "" || addedText(diff.Name) != "Beta" {
		t.Fatalf("unexpected name diff %#v", diff.Name)
	}
	if addedText(diff.Priority) != "3" {
		t.Fatalf("expected priority 3, got %#v", diff.Priority)
	}
	if addedText(diff.Enabled) != "false" || addedText(diff.Value) != "5" {
		t.Fatalf("unexpected additions %#v %#v", diff.Enabled, diff.Value)
	}
	if diff.TotalChanges != 3 {
		t.Fatalf("expected 3 changes got %d", diff.TotalChanges)
	}
}

func TestDiffSegmentOverrideCounts(t *testing.T) {
	cases := []struct {
		name string
		old  *flagstate.FeatureState
		new  *flagstate.FeatureState
		want int
	}{
		{"unchanged", segmentState(1, 0, true, flagstate.String("a")), segmentState(1, 0, true, flagstate.String("a")), 0},
		{"priority", segmentState(1, 0, true, flagstate.String("a")), segmentState(1, 1, true, flagstate.String("a")), 1},
		{"enabled and value", segmentState(1, 0, true, flagstate.String("a")), segmentState(1, 0, false, flagstate.String("b")), 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			diff := DiffSegmentOverride(tc.old, tc.new, "Beta")
			if diff.TotalChanges != tc.want {
				t.Fatalf("want %d got %d", tc.want, diff.TotalChanges)
			}
			if linediff.HasChanges(diff.Name) {
				t.Fatalf("name should not change when both sides exist: %#v", diff.Name)
			}
		})
	}
}
