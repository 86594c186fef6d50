package featurediff

import (
	"slices"
	"strconv"

	flagstate "github.com/goliatone/go-flagstate"
)

// VersionDiff compares two versions of one feature's states in an
// environment: the default state plus every segment override.
type VersionDiff struct {
	Default      StateDiff       `json:"default"`
	Variations   []VariationDiff `json:"variations,omitempty"`
	Segments     []SegmentEntry  `json:"segments"`
	TotalChanges int             `json:"total_changes"`
}

// VersionOption configures DiffVersion.
type VersionOption func(*versionConfig)

type versionConfig struct {
	options []flagstate.MultivariateOption
}

// WithMultivariateOptions diffs the default state's variation weights against
// the feature's options. Each changed weight row adds one change.
func WithMultivariateOptions(options []flagstate.MultivariateOption) VersionOption {
	return func(cfg *versionConfig) {
		cfg.options = options
	}
}

// SegmentEntry is the diff of one segment override within a version diff.
type SegmentEntry struct {
	Segment int         `json:"segment"`
	Name    string      `json:"name"`
	Diff    SegmentDiff `json:"diff"`
}

// HasChanges reports whether the default or any segment override changed.
func (d VersionDiff) HasChanges() bool { return d.TotalChanges > 0 }

// DiffVersion diffs two versions of a feature's states. Segment overrides are
// paired by segment id and ordered by their priority in the new version;
// overrides removed in the new version follow, ordered by segment id.
// segmentNames supplies display names; the override's own segment name and
// then the segment id are used as fallbacks. Identity overrides are ignored.
// With WithMultivariateOptions the default state's weights are diffed too.
func DiffVersion(oldStates, newStates []flagstate.FeatureState, segmentNames map[int]string, opts ...VersionOption) VersionDiff {
	var cfg versionConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	oldDefault, newDefault := firstDefault(oldStates), firstDefault(newStates)
	diff := VersionDiff{
		Default: DiffDefault(oldDefault, newDefault),
	}
	diff.TotalChanges = diff.Default.TotalChanges
	if len(cfg.options) > 0 {
		diff.Variations = DiffVariations(cfg.options, variationValues(oldDefault), variationValues(newDefault))
		diff.TotalChanges += VariationChanges(diff.Variations)
	}

	oldBySegment := segmentOverrides(oldStates)
	newBySegment := segmentOverrides(newStates)

	current := make([]*flagstate.FeatureState, 0, len(newBySegment))
	for _, state := range newBySegment {
		current = append(current, state)
	}
	slices.SortStableFunc(current, func(a, b *flagstate.FeatureState) int {
		if a.FeatureSegment.Priority != b.FeatureSegment.Priority {
			return a.FeatureSegment.Priority - b.FeatureSegment.Priority
		}
		return a.FeatureSegment.Segment - b.FeatureSegment.Segment
	})

	var removed []int
	for segment := range oldBySegment {
		if _, ok := newBySegment[segment]; !ok {
			removed = append(removed, segment)
		}
	}
	slices.Sort(removed)

	for _, state := range current {
		segment := state.FeatureSegment.Segment
		diff.addSegment(segment, segmentName(segment, segmentNames, oldBySegment[segment], state), oldBySegment[segment], state)
	}
	for _, segment := range removed {
		old := oldBySegment[segment]
		diff.addSegment(segment, segmentName(segment, segmentNames, old, nil), old, nil)
	}
	return diff
}

func (d *VersionDiff) addSegment(segment int, name string, oldState, newState *flagstate.FeatureState) {
	entry := SegmentEntry{
		Segment: segment,
		Name:    name,
		Diff:    DiffSegmentOverride(oldState, newState, name),
	}
	d.Segments = append(d.Segments, entry)
	d.TotalChanges += entry.Diff.TotalChanges
}

func firstDefault(states []flagstate.FeatureState) *flagstate.FeatureState {
	for i := range states {
		if states[i].IsDefault() {
			return &states[i]
		}
	}
	return nil
}

func variationValues(state *flagstate.FeatureState) []flagstate.MultivariateFeatureStateValue {
	if state == nil {
		return nil
	}
	return state.MultivariateValues
}

func segmentOverrides(states []flagstate.FeatureState) map[int]*flagstate.FeatureState {
	out := make(map[int]*flagstate.FeatureState)
	for i := range states {
		if states[i].IsSegmentOverride() && !states[i].IsIdentityOverride() {
			out[states[i].FeatureSegment.Segment] = &states[i]
		}
	}
	return out
}

func segmentName(segment int, names map[int]string, states ...*flagstate.FeatureState) string {
	if name, ok := names[segment]; ok && name != "" {
		return name
	}
	for _, state := range states {
		if state != nil && state.FeatureSegment.Name != "" {
			return state.FeatureSegment.Name
		}
	}
	return strconv.Itoa(segment)
}
