package flagstate

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapEvaluationErrorCreatesMetadata(t *testing.T) {
	base := errors.New("unknown name plan")
	err := wrapEvaluationError("expr", `plan == "pro"`, "segment:4", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != `plan == "pro"` || evalErr.Scope != "segment:4" {
		t.Fatalf("unexpected metadata: %#v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if !strings.HasPrefix(err.Error(), "flagstate: expr evaluator") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestWrapEvaluationErrorOnlyFillsMissingFields(t *testing.T) {
	existing := &EvaluationError{Engine: "cel", Err: errors.New("compile failure")}

	err := wrapEvaluationError("expr", "seats > 10", "segment:9", existing)
	if err != existing {
		t.Fatalf("expected the existing error to be reused")
	}
	if existing.Engine != "cel" {
		t.Fatalf("engine should not be overwritten, got %q", existing.Engine)
	}
	if existing.Expr != "seats > 10" || existing.Scope != "segment:9" {
		t.Fatalf("missing fields should be filled: %#v", existing)
	}
}

func TestWrapEvaluatorErrorPrefixesOnce(t *testing.T) {
	err := wrapEvaluatorError("js", errEmptyExpression)
	if !errors.Is(err, errEmptyExpression) {
		t.Fatalf("expected sentinel to unwrap")
	}
	if again := wrapEvaluatorError("js", err); again != err {
		t.Fatalf("already prefixed errors must pass through unchanged")
	}
	if wrapEvaluatorError("js", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestWithSegmentTagsEvaluationError(t *testing.T) {
	err := withSegment(wrapEvaluationError("cel", "plan", "segment:7", errors.New("no such key")), 7)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) || evalErr.SegmentID != 7 {
		t.Fatalf("expected segment id on error, got %#v", err)
	}
	if !strings.Contains(err.Error(), "segment=7") {
		t.Fatalf("expected segment in message %q", err.Error())
	}
	if again := withSegment(err, 9); again != err || evalErr.SegmentID != 7 {
		t.Fatalf("existing segment id must be kept, got %d", evalErr.SegmentID)
	}

	plain := errors.New("boom")
	if withSegment(plain, 3) != plain || withSegment(nil, 3) != nil {
		t.Fatalf("non evaluation errors must pass through")
	}
}
