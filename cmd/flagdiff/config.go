package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	flagstate "github.com/goliatone/go-flagstate"
	"github.com/goliatone/go-flagstate/pkg/activity"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "FLAGDIFF_"

// Config is the flagdiff configuration. Precedence, highest first:
// FLAGDIFF_* environment variables, the --config file, built-in defaults.
type Config struct {
	LogLevel  string          `koanf:"log_level"`
	Output    string          `koanf:"output"`
	Color     bool            `koanf:"color"`
	Evaluator string          `koanf:"evaluator"`
	Activity  activity.Config `koanf:"activity"`
}

var defaultConfig = []byte(`
log_level: warn
output: text
color: true
evaluator: expr
activity:
  enabled: false
  channel: flagdiff
`)

// envSections are config keys holding nested structs; FLAGDIFF_ACTIVITY_ENABLED
// maps to activity.enabled while FLAGDIFF_LOG_LEVEL stays log_level.
var envSections = []string{"activity"}

func loadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider(defaultConfig), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok {
			return section + "." + rest
		}
	}
	return key
}

// Validate rejects unknown output formats, engines and log levels.
func (c Config) Validate() error {
	var errs []error
	switch c.Output {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("output must be text or json, got %q", c.Output))
	}
	switch c.Evaluator {
	case "expr", "cel", "js":
	default:
		errs = append(errs, fmt.Errorf("evaluator must be expr, cel or js, got %q", c.Evaluator))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// newLogger writes console logs to stderr at the configured level.
func (c Config) newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core), nil
}

// ruleEvaluator returns the segment rule engine named by Evaluator.
func (c Config) ruleEvaluator() (flagstate.Evaluator, error) {
	cache := flagstate.NewProgramCache()
	switch c.Evaluator {
	case "cel":
		return flagstate.NewCELEvaluator(flagstate.CELWithProgramCache(cache)), nil
	case "js":
		evaluator := flagstate.NewJSEvaluator(flagstate.JSWithProgramCache(cache))
		if evaluator == nil {
			return nil, fmt.Errorf("js evaluator requires a build with -tags js_eval")
		}
		return evaluator, nil
	default:
		return flagstate.NewExprEvaluator(flagstate.ExprWithProgramCache(cache)), nil
	}
}
