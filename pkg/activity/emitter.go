package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "refs"

// Config controls whether a root emits activity and how events are stamped.
type Config struct {
	Enabled bool
	Channel string
}

// Emitter delivers the events of one root to its hooks.
type Emitter struct {
	hooks   Hooks
	channel string
}

// NewEmitter builds an emitter over the non-nil hooks. A disabled config, or
// no usable hooks, yields an emitter that drops everything.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	e := &Emitter{channel: strings.TrimSpace(cfg.Channel)}
	if e.channel == "" {
		e.channel = DefaultChannel
	}
	if cfg.Enabled {
		e.hooks = hooks.Compact()
	}
	return e
}

// Enabled reports whether Emit delivers anything. It is safe on a nil
// emitter.
func (e *Emitter) Enabled() bool {
	return e != nil && e.hooks.Enabled()
}

// Channel returns the channel applied to events without one.
func (e *Emitter) Channel() string {
	if e == nil {
		return DefaultChannel
	}
	return e.channel
}

// Emit stamps the default channel when event has none and notifies hooks.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	return e.hooks.Notify(ctx, event)
}
