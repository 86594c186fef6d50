package main

import (
	"context"

	"github.com/goliatone/go-flagstate/pkg/activity"
	"go.uber.org/zap"
)

// logActivity writes activity events to the CLI log.
func logActivity(logger *zap.Logger) func(context.Context, activity.Event) error {
	return func(_ context.Context, event activity.Event) error {
		logger.Info("activity",
			zap.String("verb", event.Verb),
			zap.String("object_type", event.ObjectType),
			zap.String("object_id", event.ObjectID),
			zap.String("channel", event.Channel),
			zap.Any("metadata", event.Metadata),
		)
		return nil
	}
}
