package snapshot

import (
	"context"
	"errors"
	"fmt"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/compare"
	"github.com/goliatone/go-flagstate/featurediff"
	"github.com/goliatone/go-flagstate/pkg/activity"
	"go.uber.org/zap"
)

// Service runs the flagstate core against stored snapshots.
type Service struct {
	store        Store
	logger       *zap.Logger
	emitter      *activity.Emitter
	matcherOpts  []flagstate.RuleMatcherOption
	validateSave bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEmitter sets where activity events go.
func WithEmitter(emitter *activity.Emitter) Option {
	return func(s *Service) {
		s.emitter = emitter
	}
}

// WithMatcherOptions configures the rule matcher built for ResolveFeature,
// for example to select the CEL evaluator.
func WithMatcherOptions(opts ...flagstate.RuleMatcherOption) Option {
	return func(s *Service) {
		s.matcherOpts = append(s.matcherOpts, opts...)
	}
}

// WithoutSaveValidation lets Mutate save snapshots that fail Validate.
func WithoutSaveValidation() Option {
	return func(s *Service) {
		s.validateSave = false
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:        store,
		logger:       zap.NewNop(),
		validateSave: true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Load returns the snapshot for ref or ErrNotFound.
func (s *Service) Load(ctx context.Context, ref Ref) (Environment, Meta, error) {
	if s.store == nil {
		return Environment{}, Meta{}, fmt.Errorf("snapshot: store is required")
	}
	env, meta, ok, err := s.store.Load(ctx, ref)
	if err != nil {
		return Environment{}, Meta{}, fmt.Errorf("snapshot: load %s: %w", ref, err)
	}
	if !ok {
		return Environment{}, Meta{}, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return env, meta, nil
}

// CompareEnvironments compares the default states of two environments of the
// same project. Flags come from the left snapshot.
func (s *Service) CompareEnvironments(ctx context.Context, project, left, right string) (compare.Result, error) {
	leftEnv, _, err := s.Load(ctx, Ref{Project: project, Environment: left})
	if err != nil {
		return compare.Result{}, err
	}
	rightEnv, _, err := s.Load(ctx, Ref{Project: project, Environment: right})
	if err != nil {
		return compare.Result{}, err
	}

	result := compare.Compare(leftEnv.Flags, leftEnv.States, rightEnv.States)

	changed := make([]string, 0, len(result.Changed))
	for _, row := range result.Changed {
		changed = append(changed, row.ProjectFlag.Name)
	}
	s.logger.Debug("environments compared",
		zap.String("project", project),
		zap.String("left", left),
		zap.String("right", right),
		zap.Int("changed", len(result.Changed)),
		zap.Int("unchanged", len(result.Unchanged)),
	)
	s.emit(ctx, activity.BuildEnvironmentsComparedEvent(activity.ComparisonInput{
		Actor:            activity.ActorFromContext(ctx),
		Project:          project,
		LeftEnvironment:  left,
		RightEnvironment: right,
		ChangedFlags:     changed,
		UnchangedCount:   len(result.Unchanged),
	}))
	return result, nil
}

// DiffFeature diffs one feature between two snapshots, typically the live
// environment and a proposed change.
func (s *Service) DiffFeature(ctx context.Context, oldRef, newRef Ref, feature int) (featurediff.VersionDiff, error) {
	oldEnv, _, err := s.Load(ctx, oldRef)
	if err != nil {
		return featurediff.VersionDiff{}, err
	}
	newEnv, _, err := s.Load(ctx, newRef)
	if err != nil {
		return featurediff.VersionDiff{}, err
	}

	names := oldEnv.SegmentNames()
	for id, name := range newEnv.SegmentNames() {
		names[id] = name
	}
	flag, _ := newEnv.Flag(feature)
	diff := featurediff.DiffVersion(oldEnv.FeatureStates(feature), newEnv.FeatureStates(feature), names,
		featurediff.WithMultivariateOptions(flag.MultivariateOptions))

	segmentsChanged := 0
	for _, entry := range diff.Segments {
		if entry.Diff.HasChanges() {
			segmentsChanged++
		}
	}
	s.logger.Debug("feature diffed",
		zap.Int("feature", feature),
		zap.Stringer("old", oldRef),
		zap.Stringer("new", newRef),
		zap.Int("total_changes", diff.TotalChanges),
	)
	s.emit(ctx, activity.BuildFeatureStateDiffedEvent(activity.DiffInput{
		Actor:           activity.ActorFromContext(ctx),
		Environment:     newRef.Environment,
		Feature:         feature,
		FeatureName:     flag.Name,
		TotalChanges:    diff.TotalChanges,
		SegmentsChanged: segmentsChanged,
	}))
	return diff, nil
}

// ResolveFeature resolves feature for identity in the snapshot at ref. Segment
// membership is decided by the snapshot's segment rules. An identity with a
// zero ID has no identity override.
func (s *Service) ResolveFeature(ctx context.Context, ref Ref, feature int, identity flagstate.Identity) (flagstate.Resolution, error) {
	env, _, err := s.Load(ctx, ref)
	if err != nil {
		return flagstate.Resolution{}, err
	}

	defaultState := flagstate.DefaultState(env.States, feature)
	if defaultState == nil {
		return flagstate.Resolution{}, fmt.Errorf("snapshot: feature %d in %s: %w", feature, ref, flagstate.ErrDefaultStateRequired)
	}
	var identityState *flagstate.FeatureState
	if identity.ID != 0 {
		identityState = flagstate.IdentityState(env.States, feature, identity.ID)
	}

	matcherOpts := append([]flagstate.RuleMatcherOption{
		flagstate.WithRuleLogger(flagstate.ZapEvaluatorLogger(s.logger)),
	}, s.matcherOpts...)
	resolver := flagstate.NewResolver(flagstate.WithSegmentMatcher(flagstate.NewRuleMatcher(env.Segments, matcherOpts...)))

	res, err := resolver.ResolveFor(ctx, identity, defaultState, flagstate.SegmentStates(env.States, feature), identityState)
	if err != nil {
		s.logger.Error("feature resolution failed", zap.Int("feature", feature), zap.Stringer("ref", ref), zap.Error(err))
		return flagstate.Resolution{}, err
	}

	s.emit(ctx, activity.BuildFeatureResolvedEvent(activity.ResolutionInput{
		Actor:       activity.ActorFromContext(ctx),
		Environment: ref.Environment,
		Feature:     feature,
		Identity:    identity.Identifier,
		Level:       res.Level.String(),
		StateID:     res.State.ID,
	}))
	return res, nil
}

// Mutate loads the snapshot at ref (or an empty one), applies fn, validates
// and saves it. A non-empty meta.ETag must match the stored ETag.
func (s *Service) Mutate(ctx context.Context, ref Ref, meta Meta, fn Mutator) (Environment, Meta, error) {
	if s.store == nil {
		return Environment{}, Meta{}, fmt.Errorf("snapshot: store is required")
	}
	if fn == nil {
		return Environment{}, Meta{}, fmt.Errorf("snapshot: mutator is required")
	}

	env, loadedMeta, ok, err := s.store.Load(ctx, ref)
	if err != nil {
		return Environment{}, Meta{}, fmt.Errorf("snapshot: load %s: %w", ref, err)
	}
	if !ok {
		env = Environment{Project: ref.Project, Environment: ref.Environment}
		loadedMeta = Meta{}
	}
	if meta.ETag != "" && loadedMeta.ETag != "" && meta.ETag != loadedMeta.ETag {
		return Environment{}, loadedMeta, fmt.Errorf("%w: expected %q, got %q", ErrETagMismatch, meta.ETag, loadedMeta.ETag)
	}

	if err := fn(&env); err != nil {
		return Environment{}, loadedMeta, err
	}
	if s.validateSave {
		if err := Validate(env); err != nil {
			return Environment{}, loadedMeta, err
		}
	}

	saved, err := s.store.Save(ctx, ref, env, mergeMeta(loadedMeta, meta))
	if err != nil {
		return Environment{}, loadedMeta, fmt.Errorf("snapshot: save %s: %w", ref, err)
	}
	s.logger.Info("snapshot saved", zap.Stringer("ref", ref), zap.String("snapshot_id", saved.SnapshotID))
	return env, saved, nil
}

func (s *Service) emit(ctx context.Context, event activity.Event) {
	if err := s.emitter.Emit(ctx, event); err != nil {
		s.logger.Warn("activity emit failed", zap.String("verb", event.Verb), zap.Error(err))
	}
}

// IsNotFound reports whether err means a snapshot was missing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
