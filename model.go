package flagstate

import (
	layering "github.com/goliatone/go-flagstate/layering"
)

// ProjectFlag is the project-wide identity and defaults for one feature.
type ProjectFlag struct {
	ID                  int                  `json:"id"`
	Name                string               `json:"name"`
	DefaultEnabled      bool                 `json:"default_enabled"`
	InitialValue        Value                `json:"initial_value"`
	MultivariateOptions []MultivariateOption `json:"multivariate_options,omitempty"`
	IsArchived          bool                 `json:"is_archived"`
	Project             int                  `json:"project"`
}

// MultivariateOption is a variation attached to a ProjectFlag.
type MultivariateOption struct {
	ID                          int     `json:"id"`
	Value                       Value   `json:"value"`
	DefaultPercentageAllocation float64 `json:"default_percentage_allocation"`
}

// MultivariateFeatureStateValue reassigns the weight of one option within a
// feature state.
type MultivariateFeatureStateValue struct {
	ID                   int     `json:"id,omitempty"`
	MultivariateOption   int     `json:"multivariate_option"`
	PercentageAllocation float64 `json:"percentage_allocation"`
}

// FeatureSegment ties a feature state to a segment. Priority is 0-based and
// lower numbers win.
type FeatureSegment struct {
	ID       int    `json:"id,omitempty"`
	Segment  int    `json:"segment"`
	Priority int    `json:"priority"`
	Name     string `json:"segment_name,omitempty"`
}

// FeatureState is the realized enabled/value pair for a feature in one scope.
// A state with neither FeatureSegment nor Identity is the environment default.
type FeatureState struct {
	ID                 int                             `json:"id,omitempty"`
	Feature            int                             `json:"feature"`
	Environment        int                             `json:"environment,omitempty"`
	Enabled            bool                            `json:"enabled"`
	Value              Value                           `json:"feature_state_value"`
	MultivariateValues []MultivariateFeatureStateValue `json:"multivariate_feature_state_values,omitempty"`
	FeatureSegment     *FeatureSegment                 `json:"feature_segment,omitempty"`
	Identity           *int                            `json:"identity,omitempty"`
}

// IsDefault reports whether fs is the environment-default state.
func (fs *FeatureState) IsDefault() bool {
	return fs != nil && fs.FeatureSegment == nil && fs.Identity == nil
}

// IsSegmentOverride reports whether fs is scoped to a segment.
func (fs *FeatureState) IsSegmentOverride() bool {
	return fs != nil && fs.FeatureSegment != nil
}

// IsIdentityOverride reports whether fs is scoped to an identity.
func (fs *FeatureState) IsIdentityOverride() bool {
	return fs != nil && fs.Identity != nil
}

// Level returns the precedence slot fs occupies.
func (fs *FeatureState) Level() layering.Level {
	switch {
	case fs == nil:
		return layering.LevelUnknown
	case fs.Identity != nil:
		return layering.LevelIdentity
	case fs.FeatureSegment != nil:
		return layering.LevelSegment
	default:
		return layering.LevelEnvironment
	}
}

// Clone returns a deep copy so callers can mutate a resolved state without
// touching shared inputs.
func (fs *FeatureState) Clone() *FeatureState {
	if fs == nil {
		return nil
	}
	return layering.Clone(fs)
}

// Segment is a named, project-scoped rule set. Rules holds an optional
// expression used by RuleMatcher.
type Segment struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Project int    `json:"project,omitempty"`
	Rules   string `json:"rules,omitempty"`
}

// Identity is the end-user identity segment membership is evaluated for.
type Identity struct {
	ID         int            `json:"id"`
	Identifier string         `json:"identifier"`
	Traits     map[string]any `json:"traits,omitempty"`
}

// DefaultState returns the environment-default state for feature, or nil.
func DefaultState(states []FeatureState, feature int) *FeatureState {
	for i := range states {
		if states[i].Feature == feature && states[i].IsDefault() {
			return &states[i]
		}
	}
	return nil
}

// SegmentStates returns the segment overrides for feature in input order.
func SegmentStates(states []FeatureState, feature int) []*FeatureState {
	var out []*FeatureState
	for i := range states {
		if states[i].Feature == feature && states[i].IsSegmentOverride() {
			out = append(out, &states[i])
		}
	}
	return out
}

// IdentityState returns the override for feature scoped to identity, or nil.
func IdentityState(states []FeatureState, feature, identity int) *FeatureState {
	for i := range states {
		if states[i].Feature == feature && states[i].Identity != nil && *states[i].Identity == identity {
			return &states[i]
		}
	}
	return nil
}
