package activity

import (
	"testing"
	"time"
)

func TestBuildEnvironmentsComparedEvent(t *testing.T) {
	at := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	changed := []string{"flag_a"}
	event := BuildEnvironmentsComparedEvent(ComparisonInput{
		Actor:            Actor{ActorID: "actor"},
		Project:          "web",
		LeftEnvironment:  "dev",
		RightEnvironment: "prod",
		ChangedFlags:     changed,
		UnchangedCount:   3,
		OccurredAt:       at,
	})

	if event.Verb != VerbEnvironmentsCompared || event.ObjectType != ObjectEnvironmentComparison {
		t.Fatalf("unexpected verb/object: %+v", event)
	}
	if event.ObjectID != "web/dev..prod" {
		t.Fatalf("unexpected object id %q", event.ObjectID)
	}
	if event.Metadata["changed_count"] != 1 || event.Metadata["unchanged_count"] != 3 {
		t.Fatalf("unexpected counts: %+v", event.Metadata)
	}
	changed[0] = "mutated"
	if flags := event.Metadata["changed_flags"].([]string); flags[0] != "flag_a" {
		t.Fatalf("changed flags should be copied, got %v", flags)
	}
	if !event.Valid() || event.ActorID != "actor" || !event.OccurredAt.Equal(at) {
		t.Fatalf("unexpected event %+v", event)
	}
}

func TestBuildFeatureEvents(t *testing.T) {
	diffed := BuildFeatureStateDiffedEvent(DiffInput{Environment: "prod", Feature: 7, FeatureName: "banner", TotalChanges: 2})
	if diffed.ObjectID != "7" || diffed.Metadata["feature_name"] != "banner" || diffed.Metadata["total_changes"] != 2 {
		t.Fatalf("unexpected diff event %+v", diffed)
	}

	resolved := BuildFeatureResolvedEvent(ResolutionInput{Environment: "prod", Feature: 7, Level: "segment", StateID: 11})
	if resolved.Verb != VerbFeatureResolved || resolved.Metadata["level"] != "segment" {
		t.Fatalf("unexpected resolution event %+v", resolved)
	}
	if _, ok := resolved.Metadata["identity"]; ok {
		t.Fatalf("identity should be omitted when empty")
	}
}
