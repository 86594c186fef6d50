package activity

import (
	"context"
	"strings"
)

// DefaultChannel is applied to events emitted without a channel.
const DefaultChannel = "flagstate"

// Config controls whether events are emitted and on which channel.
type Config struct {
	Enabled bool   `koanf:"enabled" yaml:"enabled"`
	Channel string `koanf:"channel" yaml:"channel"`
}

// Emitter sends events to hooks with the configured defaults applied. A nil
// Emitter is valid and drops everything.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter returns an emitter; it is inert unless cfg.Enabled is set and at
// least one non-nil hook is given.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	emitter := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if emitter.channel == "" {
		emitter.channel = DefaultChannel
	}
	if !cfg.Enabled {
		return emitter
	}
	for _, hook := range hooks {
		if hook != nil {
			emitter.hooks = append(emitter.hooks, hook)
		}
	}
	return emitter
}

// Enabled reports whether Emit reaches any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && len(e.hooks) > 0
}

// Emit forwards event, filling the default channel.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
