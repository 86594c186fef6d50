package snapshot_test

import (
	"context"
	"testing"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/pkg/snapshot"
)

func intPtr(v int) *int { return &v }

func projectFlags() []flagstate.ProjectFlag {
	return []flagstate.ProjectFlag{
		{ID: 1, Name: "flag_a"},
		{ID: 2, Name: "banner", MultivariateOptions: []flagstate.MultivariateOption{
			{ID: 10, Value: flagstate.String("red"), DefaultPercentageAllocation: 20},
			{ID: 11, Value: flagstate.String("blue"), DefaultPercentageAllocation: 30},
		}},
	}
}

func devEnvironment() snapshot.Environment {
	return snapshot.Environment{
		Project:     "web",
		Environment: "dev",
		Flags:       projectFlags(),
		States: []flagstate.FeatureState{
			{ID: 100, Feature: 1, Enabled: true, Value: flagstate.String("on")},
			{ID: 101, Feature: 2, Enabled: true, Value: flagstate.String("green")},
			{ID: 102, Feature: 2, Enabled: false, Value: flagstate.String("beta"),
				FeatureSegment: &flagstate.FeatureSegment{ID: 1, Segment: 5, Priority: 0}},
			{ID: 103, Feature: 2, Enabled: true, Value: flagstate.String("mine"), Identity: intPtr(42)},
		},
		Segments: []flagstate.Segment{{ID: 5, Name: "Beta", Rules: `plan == "beta"`}},
	}
}

func prodEnvironment() snapshot.Environment {
	env := devEnvironment()
	env.Environment = "prod"
	env.States = []flagstate.FeatureState{
		{ID: 200, Feature: 1, Enabled: false, Value: flagstate.String("on")},
		{ID: 201, Feature: 2, Enabled: true, Value: flagstate.String("green")},
	}
	return env
}

func seededStore(t *testing.T, envs ...snapshot.Environment) *snapshot.MemoryStore {
	t.Helper()
	store := snapshot.NewMemoryStore()
	for _, env := range envs {
		ref := snapshot.Ref{Project: env.Project, Environment: env.Environment}
		if _, err := store.Save(context.Background(), ref, env, snapshot.Meta{}); err != nil {
			t.Fatalf("seed %s: %v", ref, err)
		}
	}
	return store
}
