package activity

import (
	"fmt"
	"strconv"
	"time"
)

// Verbs and object types emitted by the snapshot service.
const (
	VerbEnvironmentsCompared = "environments.compared"
	VerbFeatureStateDiffed   = "feature_state.diffed"
	VerbFeatureResolved      = "feature.resolved"

	ObjectEnvironmentComparison = "environment_comparison"
	ObjectFeatureState          = "feature_state"
	ObjectFeature               = "feature"
)

// Actor identifies who triggered an event.
type Actor struct {
	ActorID  string
	TenantID string
	Channel  string
}

// ComparisonInput summarises an environment comparison.
type ComparisonInput struct {
	Actor
	Project          string
	LeftEnvironment  string
	RightEnvironment string
	ChangedFlags     []string
	UnchangedCount   int
	OccurredAt       time.Time
}

// BuildEnvironmentsComparedEvent records that two environments were compared.
func BuildEnvironmentsComparedEvent(input ComparisonInput) Event {
	metadata := map[string]any{
		"project":           input.Project,
		"left_environment":  input.LeftEnvironment,
		"right_environment": input.RightEnvironment,
		"changed_count":     len(input.ChangedFlags),
		"unchanged_count":   input.UnchangedCount,
	}
	if len(input.ChangedFlags) > 0 {
		metadata["changed_flags"] = append([]string{}, input.ChangedFlags...)
	}
	return input.event(
		VerbEnvironmentsCompared,
		ObjectEnvironmentComparison,
		fmt.Sprintf("%s/%s..%s", input.Project, input.LeftEnvironment, input.RightEnvironment),
		metadata,
		input.OccurredAt,
	)
}

// DiffInput summarises a feature state review diff.
type DiffInput struct {
	Actor
	Environment     string
	Feature         int
	FeatureName     string
	TotalChanges    int
	SegmentsChanged int
	OccurredAt      time.Time
}

// BuildFeatureStateDiffedEvent records a reviewed feature state diff.
func BuildFeatureStateDiffedEvent(input DiffInput) Event {
	metadata := map[string]any{
		"environment":      input.Environment,
		"total_changes":    input.TotalChanges,
		"segments_changed": input.SegmentsChanged,
	}
	if input.FeatureName != "" {
		metadata["feature_name"] = input.FeatureName
	}
	return input.event(VerbFeatureStateDiffed, ObjectFeatureState, strconv.Itoa(input.Feature), metadata, input.OccurredAt)
}

// ResolutionInput summarises which layer won for a feature.
type ResolutionInput struct {
	Actor
	Environment string
	Feature     int
	Identity    string
	Level       string
	StateID     int
	OccurredAt  time.Time
}

// BuildFeatureResolvedEvent records the outcome of resolving a feature.
func BuildFeatureResolvedEvent(input ResolutionInput) Event {
	metadata := map[string]any{
		"environment": input.Environment,
		"level":       input.Level,
		"state_id":    input.StateID,
	}
	if input.Identity != "" {
		metadata["identity"] = input.Identity
	}
	return input.event(VerbFeatureResolved, ObjectFeature, strconv.Itoa(input.Feature), metadata, input.OccurredAt)
}

func (a Actor) event(verb, objectType, objectID string, metadata map[string]any, at time.Time) Event {
	return Event{
		Verb:       verb,
		ActorID:    a.ActorID,
		TenantID:   a.TenantID,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    a.Channel,
		Metadata:   metadata,
		OccurredAt: at,
	}
}
