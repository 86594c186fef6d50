package flagstate

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRuleResult indicates a segment rule produced a non-boolean result.
var ErrRuleResult = errors.New("flagstate: segment rule must evaluate to a boolean")

// SegmentMatcher decides whether a segment is active for an identity. It is
// the boundary to segment-rule evaluation; the resolver only orders and picks
// among segments the matcher reports as active.
type SegmentMatcher interface {
	Matches(ctx context.Context, identity Identity, segment FeatureSegment) (bool, error)
}

// SegmentMatcherFunc adapts a function to SegmentMatcher.
type SegmentMatcherFunc func(ctx context.Context, identity Identity, segment FeatureSegment) (bool, error)

// Matches implements SegmentMatcher.
func (f SegmentMatcherFunc) Matches(ctx context.Context, identity Identity, segment FeatureSegment) (bool, error) {
	if f == nil {
		return true, nil
	}
	return f(ctx, identity, segment)
}

// ActiveSegments returns a matcher that treats exactly the given segment ids
// as active.
func ActiveSegments(ids ...int) SegmentMatcher {
	active := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		active[id] = struct{}{}
	}
	return SegmentMatcherFunc(func(_ context.Context, _ Identity, segment FeatureSegment) (bool, error) {
		_, ok := active[segment.Segment]
		return ok, nil
	})
}

// RuleMatcherOption configures a RuleMatcher.
type RuleMatcherOption func(*RuleMatcher)

// WithRuleEvaluator selects the expression engine. Defaults to expr.
func WithRuleEvaluator(evaluator Evaluator) RuleMatcherOption {
	return func(m *RuleMatcher) {
		if evaluator != nil {
			m.evaluator = evaluator
		}
	}
}

// WithRuleLogger attaches an evaluator logger.
func WithRuleLogger(logger EvaluatorLogger) RuleMatcherOption {
	return func(m *RuleMatcher) {
		if logger == nil {
			m.logger = noopEvaluatorLogger{}
			return
		}
		m.logger = logger
	}
}

// WithRuleClock overrides the evaluation timestamp exposed as `now`.
func WithRuleClock(now func() time.Time) RuleMatcherOption {
	return func(m *RuleMatcher) {
		if now != nil {
			m.now = now
		}
	}
}

// RuleMatcher evaluates Segment.Rules against identity traits. Trait keys are
// exposed as top-level variables alongside `identifier`, `identity_id` and
// `traits`. Segments without rules, or unknown segments, never match.
type RuleMatcher struct {
	segments  map[int]Segment
	evaluator Evaluator
	logger    EvaluatorLogger
	now       func() time.Time
}

// NewRuleMatcher indexes segments by id.
func NewRuleMatcher(segments []Segment, opts ...RuleMatcherOption) *RuleMatcher {
	m := &RuleMatcher{
		segments: make(map[int]Segment, len(segments)),
		logger:   noopEvaluatorLogger{},
		now:      time.Now,
	}
	for _, segment := range segments {
		m.segments[segment.ID] = segment
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	if m.evaluator == nil {
		m.evaluator = NewExprEvaluator(ExprWithProgramCache(NewProgramCache()))
	}
	return m
}

// Matches implements SegmentMatcher.
func (m *RuleMatcher) Matches(ctx context.Context, identity Identity, fs FeatureSegment) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	segment, ok := m.segments[fs.Segment]
	if !ok || segment.Rules == "" {
		return false, nil
	}

	now := m.now()
	ruleCtx := RuleContext{
		Snapshot: identityBinding(identity),
		Now:      &now,
		Metadata: map[string]any{
			"segment_id":   segment.ID,
			"segment_name": segment.Name,
		},
		ScopeName: fmt.Sprintf("segment:%d", segment.ID),
	}

	start := time.Now()
	result, err := m.evaluator.Evaluate(ruleCtx, segment.Rules)
	matched, isBool := result.(bool)
	if err == nil && !isBool {
		err = wrapEvaluationError(evaluatorEngineName(m.evaluator), segment.Rules, ruleCtx.ScopeName,
			fmt.Errorf("%w, got %T", ErrRuleResult, result))
	}
	err = withSegment(err, segment.ID)
	m.logger.LogEvaluation(EvaluatorLogEvent{
		Engine:    evaluatorEngineName(m.evaluator),
		Expr:      segment.Rules,
		Scope:     ruleCtx.ScopeName,
		SegmentID: segment.ID,
		Matched:   err == nil && matched,
		Duration:  time.Since(start),
		Err:       err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func identityBinding(identity Identity) map[string]any {
	binding := make(map[string]any, len(identity.Traits)+3)
	for key, value := range identity.Traits {
		binding[key] = value
	}
	traits := make(map[string]any, len(identity.Traits))
	for key, value := range identity.Traits {
		traits[key] = value
	}
	binding["traits"] = traits
	binding["identifier"] = identity.Identifier
	binding["identity_id"] = identity.ID
	return binding
}
