//go:build js_eval

package flagstate

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestJSEvaluatorMatchesTraits(t *testing.T) {
	matcher := NewRuleMatcher(
		[]Segment{{ID: 4, Rules: `plan === "pro" && seats > 10`}},
		WithRuleEvaluator(NewJSEvaluator(JSWithProgramCache(NewProgramCache()))),
	)
	ok, err := matcher.Matches(context.Background(), Identity{Traits: map[string]any{"plan": "pro", "seats": 12}}, FeatureSegment{Segment: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected rule to match")
	}
}

func TestJSEvaluatorTimeout(t *testing.T) {
	matcher := NewRuleMatcher(
		[]Segment{{ID: 8, Rules: `(function () { while (true) {} })()`}},
		WithRuleEvaluator(NewJSEvaluator(JSWithTimeout(20*time.Millisecond))),
	)
	_, err := matcher.Matches(context.Background(), Identity{}, FeatureSegment{Segment: 8})
	if !errors.Is(err, ErrRuleTimeout) {
		t.Fatalf("expected ErrRuleTimeout, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.Engine != "js" || evalErr.SegmentID != 8 {
		t.Fatalf("expected js evaluation error for segment 8, got %#v", err)
	}
}
