package activity

import (
	"strings"
	"time"
)

const (
	// VerbChanged marks a mutation made through a cursor.
	VerbChanged = "refs.changed"
	// VerbNotified marks a manual notification that left the value alone.
	VerbNotified = "refs.notified"
	// ObjectTypeRoot is the object type of every cursor event.
	ObjectTypeRoot = "refs.root"
)

// RefEventInput carries what a root knows about one change.
type RefEventInput struct {
	RootID     string
	Path       string
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	WasUser    bool
	OldValue   any
	NewValue   any
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildRefChangedEvent describes a mutation of the root identified by
// input.RootID.
func BuildRefChangedEvent(input RefEventInput) Event {
	return buildRefEvent(VerbChanged, input)
}

// BuildRefNotifiedEvent describes a manual notification of a root.
func BuildRefNotifiedEvent(input RefEventInput) Event {
	return buildRefEvent(VerbNotified, input)
}

func buildRefEvent(verb string, input RefEventInput) Event {
	objectID := strings.TrimSpace(input.RootID)
	if objectID == "" {
		objectID = ObjectTypeRoot
	}
	return Event{
		Verb:       verb,
		ObjectType: ObjectTypeRoot,
		ObjectID:   objectID,
		Path:       input.Path,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Channel:    strings.TrimSpace(input.Channel),
		WasUser:    input.WasUser,
		OldValue:   input.OldValue,
		NewValue:   input.NewValue,
		Metadata:   cloneMap(input.Metadata),
		OccurredAt: input.OccurredAt,
	}
}
