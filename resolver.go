package flagstate

import (
	"context"
	"fmt"
	"strconv"

	layering "github.com/goliatone/go-flagstate/layering"
)

// Resolution is the outcome of resolving a feature: the winning state, the
// layer it came from and how every layer was considered.
type Resolution struct {
	State *FeatureState
	Level layering.Level
	Trace Trace
}

// Resolve returns the authoritative state among the supplied layers:
// identityState, then segmentStates by ascending priority, then defaultState.
// segmentStates are assumed to be active for the requesting identity. The
// returned pointer is one of the inputs; clone it before mutating.
func Resolve(defaultState *FeatureState, segmentStates []*FeatureState, identityState *FeatureState) (*FeatureState, error) {
	res, err := ResolveWithTrace(defaultState, segmentStates, identityState)
	if err != nil {
		return nil, err
	}
	return res.State, nil
}

// MustResolve is Resolve for callers that treat inconsistent inputs as fatal.
func MustResolve(defaultState *FeatureState, segmentStates []*FeatureState, identityState *FeatureState) *FeatureState {
	state, err := Resolve(defaultState, segmentStates, identityState)
	if err != nil {
		panic(err)
	}
	return state
}

// ResolveWithTrace is Resolve returning provenance for every layer.
func ResolveWithTrace(defaultState *FeatureState, segmentStates []*FeatureState, identityState *FeatureState) (Resolution, error) {
	return resolve(context.Background(), Identity{}, nil, defaultState, segmentStates, identityState)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSegmentMatcher sets the collaborator deciding segment membership.
func WithSegmentMatcher(matcher SegmentMatcher) Option {
	return func(r *Resolver) {
		r.matcher = matcher
	}
}

// Resolver resolves feature states for a concrete identity, consulting a
// SegmentMatcher to skip segment overrides that do not apply.
type Resolver struct {
	matcher SegmentMatcher
}

// NewResolver builds a Resolver. Without a matcher every segment override is
// treated as active.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ResolveFor resolves the feature for identity. Segment overrides are checked
// strongest first and the matcher is not consulted past the first active one.
func (r *Resolver) ResolveFor(ctx context.Context, identity Identity, defaultState *FeatureState, segmentStates []*FeatureState, identityState *FeatureState) (Resolution, error) {
	var matcher SegmentMatcher
	if r != nil {
		matcher = r.matcher
	}
	return resolve(ctx, identity, matcher, defaultState, segmentStates, identityState)
}

func resolve(ctx context.Context, identity Identity, matcher SegmentMatcher, defaultState *FeatureState, segmentStates []*FeatureState, identityState *FeatureState) (Resolution, error) {
	if defaultState == nil {
		return Resolution{}, ErrDefaultStateRequired
	}
	feature := defaultState.Feature

	layers := make([]layering.Layer[*FeatureState], 0, len(segmentStates)+2)
	layers = append(layers, layering.Layer[*FeatureState]{
		Level: layering.LevelEnvironment,
		Key:   "environment",
		Value: defaultState,
	})
	for _, state := range segmentStates {
		if state == nil {
			continue
		}
		if state.FeatureSegment == nil {
			return Resolution{}, fmt.Errorf("%w: state %d", ErrMissingFeatureSegment, state.ID)
		}
		if state.Feature != feature {
			return Resolution{}, &MismatchedFeatureError{Expected: feature, Got: state.Feature, Scope: layering.LevelSegment, StateID: state.ID}
		}
		layers = append(layers, layering.Layer[*FeatureState]{
			Level:    layering.LevelSegment,
			Priority: state.FeatureSegment.Priority,
			Key:      "segment/" + strconv.Itoa(state.FeatureSegment.Segment),
			Value:    state,
		})
	}
	if identityState != nil {
		if identityState.Feature != feature {
			return Resolution{}, &MismatchedFeatureError{Expected: feature, Got: identityState.Feature, Scope: layering.LevelIdentity, StateID: identityState.ID}
		}
		layers = append(layers, layering.Layer[*FeatureState]{
			Level: layering.LevelIdentity,
			Key:   "identity",
			Value: identityState,
		})
	}

	chain, err := layering.NewChain(layers...)
	if err != nil {
		return Resolution{}, fmt.Errorf("flagstate: resolve feature %d: %w", feature, err)
	}

	res := Resolution{Trace: Trace{Feature: feature}}
	for _, layer := range chain.Ordered() {
		entry := provenanceFor(layer)
		if res.State != nil {
			res.Trace.Layers = append(res.Trace.Layers, entry)
			continue
		}

		active := true
		if layer.Level == layering.LevelSegment && matcher != nil {
			entry.Evaluated = true
			active, err = matcher.Matches(ctx, identity, *layer.Value.FeatureSegment)
			if err != nil {
				return Resolution{}, fmt.Errorf("flagstate: match segment %d: %w", layer.Value.FeatureSegment.Segment, err)
			}
		}
		entry.Active = active
		if active {
			entry.Selected = true
			res.State = layer.Value
			res.Level = layer.Level
		}
		res.Trace.Layers = append(res.Trace.Layers, entry)
	}
	return res, nil
}
