package flagstate

import (
	"time"

	"go.uber.org/zap"
)

// EvaluatorLogEvent describes one segment rule evaluation.
type EvaluatorLogEvent struct {
	Engine    string
	Expr      string
	Scope     string
	SegmentID int
	Matched   bool
	Duration  time.Duration
	Err       error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZapEvaluatorLogger writes evaluation events to logger: failures at warn,
// everything else at debug.
func ZapEvaluatorLogger(logger *zap.Logger) EvaluatorLogger {
	if logger == nil {
		return noopEvaluatorLogger{}
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		fields := []zap.Field{
			zap.String("engine", event.Engine),
			zap.String("expr", event.Expr),
			zap.String("scope", event.Scope),
			zap.Int("segment_id", event.SegmentID),
			zap.Bool("matched", event.Matched),
			zap.Duration("duration", event.Duration),
		}
		if event.Err != nil {
			logger.Warn("segment rule evaluation failed", append(fields, zap.Error(event.Err))...)
			return
		}
		logger.Debug("segment rule evaluated", fields...)
	})
}
