package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-flagstate/internal/hydrate"
	"github.com/goliatone/go-flagstate/pkg/snapshot"
	"gopkg.in/yaml.v3"
)

// environmentFile is the on-disk shape of a snapshot: the raw API payloads
// for flags, feature states and segments, as YAML or JSON.
type environmentFile struct {
	Project     string           `yaml:"project"`
	Environment string           `yaml:"environment"`
	Flags       []map[string]any `yaml:"flags"`
	States      []map[string]any `yaml:"states"`
	Segments    []map[string]any `yaml:"segments"`
}

func readEnvironment(path string) (snapshot.Environment, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return snapshot.Environment{}, fmt.Errorf("read %s: %w", path, err)
	}
	return parseEnvironment(path, content)
}

func parseEnvironment(name string, content []byte) (snapshot.Environment, error) {
	var file environmentFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return snapshot.Environment{}, fmt.Errorf("parse %s: %w", name, err)
	}
	if file.Project == "" || file.Environment == "" {
		return snapshot.Environment{}, fmt.Errorf("%s: project and environment are required", name)
	}

	ctx := hydrate.Context{Environment: file.Environment}

	ctx.Resource = "flags"
	flags, err := hydrate.NewProjectFlagDecoder().DecodeAll(ctx, file.Flags)
	if err != nil {
		return snapshot.Environment{}, fmt.Errorf("%s: %w", name, err)
	}
	ctx.Resource = "featurestates"
	states, err := hydrate.NewFeatureStateDecoder().DecodeAll(ctx, file.States)
	if err != nil {
		return snapshot.Environment{}, fmt.Errorf("%s: %w", name, err)
	}
	ctx.Resource = "segments"
	segments, err := hydrate.NewSegmentDecoder().DecodeAll(ctx, file.Segments)
	if err != nil {
		return snapshot.Environment{}, fmt.Errorf("%s: %w", name, err)
	}

	return snapshot.Environment{
		Project:     file.Project,
		Environment: file.Environment,
		Flags:       flags,
		States:      states,
		Segments:    segments,
	}, nil
}
