package snapshot_test

import (
	"errors"
	"testing"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/pkg/snapshot"
)

func TestValidate(t *testing.T) {
	t.Run("valid snapshot", func(t *testing.T) {
		if err := snapshot.Validate(devEnvironment()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("reports every problem", func(t *testing.T) {
		env := devEnvironment()
		env.States = append(env.States,
			flagstate.FeatureState{ID: 300, Feature: 99, Enabled: true},
			flagstate.FeatureState{ID: 301, Feature: 2, Enabled: true,
				FeatureSegment: &flagstate.FeatureSegment{ID: 2, Segment: 6, Priority: 0}},
		)
		env.States[1].MultivariateValues = []flagstate.MultivariateFeatureStateValue{
			{ID: 1, MultivariateOption: 10, PercentageAllocation: 80},
			{ID: 2, MultivariateOption: 11, PercentageAllocation: 30},
		}

		err := snapshot.Validate(env)
		if err == nil {
			t.Fatalf("expected validation error")
		}
		for _, target := range []error{snapshot.ErrUnknownFeature, flagstate.ErrOverallocated, flagstate.ErrPriorityConflict} {
			if !errors.Is(err, target) {
				t.Fatalf("expected %v in %v", target, err)
			}
		}
	})
}
