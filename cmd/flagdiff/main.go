// Command flagdiff compares feature state snapshots of two environments,
// diffs one feature between snapshots and explains how a feature resolves for
// an identity.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/pkg/activity"
	"github.com/goliatone/go-flagstate/pkg/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	out        io.Writer
	configPath string
	cfg        Config
	logger     *zap.Logger
	hooks      activity.Hooks
}

// newRootCmd builds the command tree. hooks receive activity events in
// addition to the log hook enabled by activity.enabled.
func newRootCmd(out io.Writer, hooks ...activity.ActivityHook) *cobra.Command {
	a := &app{out: out, logger: zap.NewNop(), hooks: hooks}

	root := &cobra.Command{
		Use:   "flagdiff",
		Short: "Compare and explain feature state snapshots",
		Long: `flagdiff works on snapshot files holding the raw flags, feature states and
segments of one environment (YAML or JSON).

Configuration is read from --config and FLAGDIFF_* environment variables,
for example FLAGDIFF_OUTPUT=json or FLAGDIFF_EVALUATOR=cel.`,
		Version:       version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a flagdiff YAML config file")
	root.PersistentFlags().StringP("output", "o", "", "output format: text or json")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(a.compareCmd(), a.diffCmd(), a.resolveCmd(), a.validateCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configPath)
	if err != nil {
		return err
	}
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Output = output
	}
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		cfg.Color = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := cfg.newLogger()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// service loads the given snapshot files into a memory store.
func (a *app) service(cmd *cobra.Command, paths ...string) (*snapshot.Service, []snapshot.Ref, error) {
	evaluator, err := a.cfg.ruleEvaluator()
	if err != nil {
		return nil, nil, err
	}
	hooks := append(activity.Hooks{}, a.hooks...)
	if a.cfg.Activity.Enabled {
		hooks = append(hooks, activity.HookFunc(logActivity(a.logger)))
	}
	svc := snapshot.NewService(snapshot.NewMemoryStore(),
		snapshot.WithLogger(a.logger),
		snapshot.WithEmitter(activity.NewEmitter(hooks, a.cfg.Activity)),
		snapshot.WithMatcherOptions(flagstate.WithRuleEvaluator(evaluator)),
		snapshot.WithoutSaveValidation(),
	)

	refs := make([]snapshot.Ref, 0, len(paths))
	for _, path := range paths {
		env, err := readEnvironment(path)
		if err != nil {
			return nil, nil, err
		}
		ref := snapshot.Ref{Project: env.Project, Environment: env.Environment}
		for _, seen := range refs {
			if seen == ref {
				ref.Environment += "@" + path
				env.Environment = ref.Environment
			}
		}
		if _, _, err := svc.Mutate(cmd.Context(), ref, snapshot.Meta{Extra: map[string]string{"path": path}}, func(target *snapshot.Environment) error {
			*target = env
			return nil
		}); err != nil {
			return nil, nil, err
		}
		a.logger.Debug("snapshot loaded", zap.String("path", path), zap.Stringer("ref", ref), zap.Int("states", len(env.States)))
		refs = append(refs, ref)
	}
	return svc, refs, nil
}

func (a *app) compareCmd() *cobra.Command {
	var left, right string
	var onlyChanged bool
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare environment defaults of two snapshots",
		Example: `  flagdiff compare --left dev.yaml --right prod.yaml
  flagdiff compare --left dev.yaml --right prod.yaml --changed -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, refs, err := a.service(cmd, left, right)
			if err != nil {
				return err
			}
			if refs[0].Project != refs[1].Project {
				return fmt.Errorf("snapshots belong to different projects: %q and %q", refs[0].Project, refs[1].Project)
			}
			result, err := svc.CompareEnvironments(cmd.Context(), refs[0].Project, refs[0].Environment, refs[1].Environment)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), a.cfg).comparison(result, refs[0].Environment, refs[1].Environment, onlyChanged)
		},
	}
	cmd.Flags().StringVar(&left, "left", "", "left snapshot file")
	cmd.Flags().StringVar(&right, "right", "", "right snapshot file")
	cmd.Flags().BoolVar(&onlyChanged, "changed", false, "only print changed flags")
	_ = cmd.MarkFlagRequired("left")
	_ = cmd.MarkFlagRequired("right")
	return cmd
}

func (a *app) diffCmd() *cobra.Command {
	var oldPath, newPath, feature string
	cmd := &cobra.Command{
		Use:     "diff",
		Short:   "Diff one feature's default and segment overrides between snapshots",
		Example: `  flagdiff diff --old live.yaml --new proposed.yaml --feature banner`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, refs, err := a.service(cmd, oldPath, newPath)
			if err != nil {
				return err
			}
			env, _, err := svc.Load(cmd.Context(), refs[1])
			if err != nil {
				return err
			}
			flag, err := findFlag(env, feature)
			if err != nil {
				return err
			}
			diff, err := svc.DiffFeature(cmd.Context(), refs[0], refs[1], flag.ID)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), a.cfg).version(flag.Name, diff)
		},
	}
	cmd.Flags().StringVar(&oldPath, "old", "", "snapshot before the change")
	cmd.Flags().StringVar(&newPath, "new", "", "snapshot after the change")
	cmd.Flags().StringVar(&feature, "feature", "", "feature name or id")
	for _, name := range []string{"old", "new", "feature"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (a *app) resolveCmd() *cobra.Command {
	var path, feature, identifier string
	var identityID int
	var traits []string
	cmd := &cobra.Command{
		Use:     "resolve",
		Short:   "Explain which override wins for a feature and identity",
		Example: `  flagdiff resolve --snapshot prod.yaml --feature banner --identity 42 --trait plan=beta`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, refs, err := a.service(cmd, path)
			if err != nil {
				return err
			}
			env, _, err := svc.Load(cmd.Context(), refs[0])
			if err != nil {
				return err
			}
			flag, err := findFlag(env, feature)
			if err != nil {
				return err
			}
			identity := flagstate.Identity{ID: identityID, Identifier: identifier, Traits: parseTraits(traits)}
			res, err := svc.ResolveFeature(cmd.Context(), refs[0], flag.ID, identity)
			if err != nil {
				return err
			}
			return newPrinter(cmd.OutOrStdout(), a.cfg).resolution(flag.Name, res)
		},
	}
	cmd.Flags().StringVar(&path, "snapshot", "", "snapshot file")
	cmd.Flags().StringVar(&feature, "feature", "", "feature name or id")
	cmd.Flags().IntVar(&identityID, "identity", 0, "identity id with possible identity overrides")
	cmd.Flags().StringVar(&identifier, "identifier", "", "identity identifier")
	cmd.Flags().StringArrayVar(&traits, "trait", nil, "identity trait as key=value, repeatable")
	_ = cmd.MarkFlagRequired("snapshot")
	_ = cmd.MarkFlagRequired("feature")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE...",
		Short: "Check snapshot files for unknown features, bad allocations and priority conflicts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout(), a.cfg)
			failed := 0
			for _, path := range args {
				env, err := readEnvironment(path)
				if err == nil {
					err = snapshot.Validate(env)
				}
				if err != nil {
					failed++
				}
				p.validation(path, err)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d snapshots invalid", failed, len(args))
			}
			return nil
		},
	}
}

func findFlag(env snapshot.Environment, nameOrID string) (flagstate.ProjectFlag, error) {
	for _, flag := range env.Flags {
		if flag.Name == nameOrID {
			return flag, nil
		}
	}
	if id, err := strconv.Atoi(nameOrID); err == nil {
		if flag, ok := env.Flag(id); ok {
			return flag, nil
		}
	}
	return flagstate.ProjectFlag{}, fmt.Errorf("feature %q not found in %s/%s", nameOrID, env.Project, env.Environment)
}

// parseTraits turns key=value pairs into typed traits; values are normalized
// so "3" is a number and "true" a boolean.
func parseTraits(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	traits := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, _ := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		traits[key] = flagstate.Normalize(flagstate.String(value)).Interface()
	}
	return traits
}
