package refs

import (
	"strings"
	"time"
)

// ChangeReason describes why a mutation happened. It is immutable once
// constructed; the zero value is a programmatic change with no event.
type ChangeReason struct {
	event      any
	wasUser    bool
	source     any
	actorID    string
	occurredAt time.Time
}

// ReasonOption configures a ChangeReason.
type ReasonOption func(*reasonConfig)

type reasonConfig struct {
	wasUser    *bool
	source     any
	actorID    string
	occurredAt time.Time
}

// WithWasUser overrides the user-origin flag, which otherwise defaults to
// whether an event was supplied.
func WithWasUser(wasUser bool) ReasonOption {
	return func(cfg *reasonConfig) {
		cfg.wasUser = &wasUser
	}
}

// WithSource attaches an opaque context payload.
func WithSource(source any) ReasonOption {
	return func(cfg *reasonConfig) {
		cfg.source = source
	}
}

// WithActor records who caused the change. It is forwarded to activity hooks.
func WithActor(actorID string) ReasonOption {
	return func(cfg *reasonConfig) {
		cfg.actorID = strings.TrimSpace(actorID)
	}
}

// WithOccurredAt pins the timestamp instead of using time.Now.
func WithOccurredAt(at time.Time) ReasonOption {
	return func(cfg *reasonConfig) {
		cfg.occurredAt = at
	}
}

// NewChangeReason builds a reason for event, which may be nil.
func NewChangeReason(event any, opts ...ReasonOption) ChangeReason {
	cfg := reasonConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	wasUser := event != nil
	if cfg.wasUser != nil {
		wasUser = *cfg.wasUser
	}
	if cfg.occurredAt.IsZero() {
		cfg.occurredAt = time.Now()
	}
	return ChangeReason{
		event:      event,
		wasUser:    wasUser,
		source:     cfg.source,
		actorID:    cfg.actorID,
		occurredAt: cfg.occurredAt,
	}
}

// Event returns the originating event, if any.
func (r ChangeReason) Event() any { return r.event }

// WasUser reports whether the change originated from a user.
func (r ChangeReason) WasUser() bool { return r.wasUser }

// Source returns the opaque context payload, if any.
func (r ChangeReason) Source() any { return r.source }

// ActorID returns the actor recorded with WithActor.
func (r ChangeReason) ActorID() string { return r.actorID }

// OccurredAt returns when the reason was built; zero for the zero value.
func (r ChangeReason) OccurredAt() time.Time { return r.occurredAt }
