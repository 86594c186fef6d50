package flagstate

import (
	"errors"
	"fmt"

	layering "github.com/goliatone/go-flagstate/layering"
)

var (
	// ErrMismatchedFeature is matched by every *MismatchedFeatureError.
	ErrMismatchedFeature = errors.New("flagstate: feature state belongs to a different feature")
	// ErrDefaultStateRequired indicates Resolve was called without a default state.
	ErrDefaultStateRequired = errors.New("flagstate: environment default state is required")
	// ErrMissingFeatureSegment indicates a segment override without feature_segment.
	ErrMissingFeatureSegment = errors.New("flagstate: segment override has no feature_segment")
	// ErrPriorityConflict indicates two segment overrides share a priority.
	ErrPriorityConflict = layering.ErrPriorityConflict
)

// MismatchedFeatureError reports a caller assembling states of different
// features into one resolution. It signals an integration bug and should not
// be retried.
type MismatchedFeatureError struct {
	Expected int
	Got      int
	Scope    layering.Level
	StateID  int
}

func (e *MismatchedFeatureError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("flagstate: %s state %d references feature %d, expected %d", e.Scope, e.StateID, e.Got, e.Expected)
}

// Is lets errors.Is(err, ErrMismatchedFeature) match.
func (e *MismatchedFeatureError) Is(target error) bool {
	return target == ErrMismatchedFeature
}
