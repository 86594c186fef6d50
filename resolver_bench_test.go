package flagstate

import (
	"context"
	"fmt"
	"testing"
)

func benchmarkStates(n int) (*FeatureState, []*FeatureState, []Segment) {
	defaultState := &FeatureState{ID: 1, Feature: 1, Value: String("default")}
	states := make([]*FeatureState, n)
	segments := make([]Segment, n)
	for i := 0; i < n; i++ {
		states[i] = &FeatureState{
			ID:             i + 2,
			Feature:        1,
			Enabled:        true,
			Value:          String(fmt.Sprintf("segment_%d", i)),
			FeatureSegment: &FeatureSegment{Segment: i + 1, Priority: n - i},
		}
		segments[i] = Segment{ID: i + 1, Rules: fmt.Sprintf("tier == %d", i)}
	}
	return defaultState, states, segments
}

func BenchmarkResolveWithTrace(b *testing.B) {
	defaultState, states, _ := benchmarkStates(10)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ResolveWithTrace(defaultState, states, nil); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}

func BenchmarkResolveForRuleMatcher(b *testing.B) {
	defaultState, states, segments := benchmarkStates(10)
	resolver := NewResolver(WithSegmentMatcher(NewRuleMatcher(segments)))
	identity := Identity{ID: 1, Identifier: "bench", Traits: map[string]any{"tier": 0}}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := resolver.ResolveFor(ctx, identity, defaultState, states, nil); err != nil {
			b.Fatalf("resolve: %v", err)
		}
	}
}
