package snapshot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	flagstate "github.com/goliatone/go-flagstate"
)

var (
	ErrNotFound     = errors.New("snapshot: not found")
	ErrETagMismatch = errors.New("snapshot: etag mismatch")
)

// Ref identifies the snapshot of one environment within a project.
type Ref struct {
	Project     string
	Environment string
}

// Identifier returns the storage key "project/environment".
func (r Ref) Identifier() (string, error) {
	project := strings.TrimSpace(r.Project)
	environment := strings.TrimSpace(r.Environment)
	if project == "" {
		return "", fmt.Errorf("snapshot: project is required")
	}
	if environment == "" {
		return "", fmt.Errorf("snapshot: environment is required for project %q", project)
	}
	if strings.Contains(project, "/") || strings.Contains(environment, "/") {
		return "", fmt.Errorf("snapshot: ref %q/%q must not contain '/'", project, environment)
	}
	return project + "/" + environment, nil
}

func (r Ref) String() string {
	return r.Project + "/" + r.Environment
}

// Meta is storage-owned metadata for audit and optimistic concurrency.
type Meta struct {
	SnapshotID string            `json:"snapshot_id,omitempty" yaml:"snapshot_id,omitempty"`
	ETag       string            `json:"etag,omitempty" yaml:"etag,omitempty"`
	UpdatedAt  time.Time         `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// Environment is everything fetched for one environment: the project's flags,
// the environment's feature states and the project's segments.
type Environment struct {
	Project     string                   `json:"project" yaml:"project"`
	Environment string                   `json:"environment" yaml:"environment"`
	Flags       []flagstate.ProjectFlag  `json:"flags" yaml:"flags"`
	States      []flagstate.FeatureState `json:"states" yaml:"states"`
	Segments    []flagstate.Segment      `json:"segments,omitempty" yaml:"segments,omitempty"`
}

// Flag returns the project flag with id.
func (e Environment) Flag(id int) (flagstate.ProjectFlag, bool) {
	for _, flag := range e.Flags {
		if flag.ID == id {
			return flag, true
		}
	}
	return flagstate.ProjectFlag{}, false
}

// FeatureStates returns the states of one feature in input order.
func (e Environment) FeatureStates(feature int) []flagstate.FeatureState {
	var out []flagstate.FeatureState
	for _, state := range e.States {
		if state.Feature == feature {
			out = append(out, state)
		}
	}
	return out
}

// SegmentNames maps segment ids to names.
func (e Environment) SegmentNames() map[int]string {
	out := make(map[int]string, len(e.Segments))
	for _, segment := range e.Segments {
		out[segment.ID] = segment.Name
	}
	return out
}

// Store loads and saves one snapshot for a single Ref.
type Store interface {
	Load(ctx context.Context, ref Ref) (snapshot Environment, meta Meta, ok bool, err error)
	Save(ctx context.Context, ref Ref, snapshot Environment, meta Meta) (Meta, error)
}

// Mutator edits a snapshot in place.
type Mutator func(*Environment) error

func mergeMeta(base, override Meta) Meta {
	out := base
	if override.SnapshotID != "" {
		out.SnapshotID = override.SnapshotID
	}
	if override.ETag != "" {
		out.ETag = override.ETag
	}
	if !override.UpdatedAt.IsZero() {
		out.UpdatedAt = override.UpdatedAt
	}
	if override.Extra != nil {
		out.Extra = override.Extra
	}
	return out
}
