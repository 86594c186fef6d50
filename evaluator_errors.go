package flagstate

import (
	"errors"
	"fmt"
	"strings"
)

var errEmptyExpression = errors.New("expression must not be empty")

// EvaluationError reports a segment rule that failed to compile, run, or
// produce a boolean. SegmentID is zero when the rule was evaluated outside a
// RuleMatcher.
type EvaluationError struct {
	Engine    string
	Expr      string
	Scope     string
	SegmentID int
	Err       error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.SegmentID != 0 {
		return fmt.Sprintf("flagstate: %s evaluator segment=%d %s: %v", e.Engine, e.SegmentID, describeExpression(e.Expr), e.Err)
	}
	return fmt.Sprintf("flagstate: %s evaluator %s scope=%s: %v", e.Engine, describeExpression(e.Expr), e.Scope, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// withSegment tags an EvaluationError in err's chain with the segment whose
// rule failed. Other errors are returned unchanged.
func withSegment(err error, segmentID int) error {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) && evalErr.SegmentID == 0 {
		evalErr.SegmentID = segmentID
	}
	return err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "flagstate:") {
		return err
	}
	return fmt.Errorf("flagstate: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches engine, expression and scope metadata, filling
// only the fields an existing EvaluationError left empty.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
