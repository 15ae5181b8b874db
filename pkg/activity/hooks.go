package activity

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Event is a cursor lifecycle occurrence fanned out to hooks. Identifiers are
// strings so call sites are not coupled to a UUID type.
type Event struct {
	Verb       string
	ObjectType string
	// ObjectID identifies the root the event belongs to.
	ObjectID string
	// Path is the rendered cursor path the change was made through; the root
	// renders as "".
	Path     string
	ActorID  string
	UserID   string
	TenantID string
	Channel  string
	WasUser  bool
	// OldValue and NewValue hold plain copies of the value at Path.
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// Routable reports whether the event carries the fields hooks key on.
func (e Event) Routable() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Data flattens the event payload into a single map: Metadata plus path,
// was_user and the old and new values when present.
func (e Event) Data() map[string]any {
	data := make(map[string]any, len(e.Metadata)+4)
	for key, value := range e.Metadata {
		data[key] = value
	}
	data["path"] = e.Path
	data["was_user"] = e.WasUser
	if e.OldValue != nil {
		data["old_value"] = e.OldValue
	}
	if e.NewValue != nil {
		data["new_value"] = e.NewValue
	}
	return data
}

// ActivityHook receives normalized activity events.
type ActivityHook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy ActivityHook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []ActivityHook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Compact returns a copy of h without nil hooks, or nil when none remain.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook == nil {
			continue
		}
		out = append(out, hook)
	}
	return out
}

// Notify normalizes event and delivers it to every hook in order. Events
// that are not routable are dropped silently. Every hook runs even when an
// earlier one fails; failures are joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}
	normalized := NormalizeEvent(event)
	if !normalized.Routable() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// VerbFilter forwards only events whose verb is listed. An empty list
// forwards everything.
func VerbFilter(hook ActivityHook, verbs ...string) ActivityHook {
	if hook == nil {
		return nil
	}
	return HookFunc(func(ctx context.Context, event Event) error {
		if !MatchVerb(verbs, event.Verb) {
			return nil
		}
		return hook.Notify(ctx, event)
	})
}

// MatchVerb reports whether verb is listed, ignoring case and surrounding
// space. An empty list matches every verb.
func MatchVerb(verbs []string, verb string) bool {
	if len(verbs) == 0 {
		return true
	}
	verb = strings.TrimSpace(verb)
	for _, candidate := range verbs {
		if strings.EqualFold(strings.TrimSpace(candidate), verb) {
			return true
		}
	}
	return false
}

// NormalizeEvent trims identifiers, detaches metadata from the caller and
// stamps a timestamp when none is set.
func NormalizeEvent(event Event) Event {
	normalized := event
	for _, field := range []*string{
		&normalized.Verb,
		&normalized.ObjectType,
		&normalized.ObjectID,
		&normalized.ActorID,
		&normalized.UserID,
		&normalized.TenantID,
		&normalized.Channel,
	} {
		*field = strings.TrimSpace(*field)
	}
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
