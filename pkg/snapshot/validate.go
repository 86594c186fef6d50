package snapshot

import (
	"errors"
	"fmt"

	flagstate "github.com/goliatone/go-flagstate"
)

var ErrUnknownFeature = errors.New("snapshot: state references unknown feature")

// Validate checks a snapshot before it is saved: every state names a known
// flag, multivariate weights fit the allocation rules, and each feature's
// segment overrides resolve without conflict.
func Validate(env Environment) error {
	var errs []error
	features := make(map[int]flagstate.ProjectFlag, len(env.Flags))
	for _, flag := range env.Flags {
		features[flag.ID] = flag
	}

	for _, state := range env.States {
		flag, ok := features[state.Feature]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %d", ErrUnknownFeature, state.Feature))
			continue
		}
		if len(state.MultivariateValues) == 0 {
			continue
		}
		if err := flagstate.CheckAllocation(flag.MultivariateOptions, state.MultivariateValues).Err(); err != nil {
			errs = append(errs, fmt.Errorf("snapshot: feature %q: %w", flag.Name, err))
		}
	}

	for _, flag := range env.Flags {
		defaultState := flagstate.DefaultState(env.States, flag.ID)
		if defaultState == nil {
			continue
		}
		if _, err := flagstate.Resolve(defaultState, flagstate.SegmentStates(env.States, flag.ID), nil); err != nil {
			errs = append(errs, fmt.Errorf("snapshot: feature %q: %w", flag.Name, err))
		}
	}
	return errors.Join(errs...)
}
