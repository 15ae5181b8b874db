package refs

import (
	"context"
	"errors"

	"github.com/goliatone/go-refs/pkg/activity"
	"github.com/goliatone/go-refs/snapshot"
	"github.com/google/uuid"
)

// root is the single mutable cell behind every cursor of one Struct call.
type root struct {
	id        string
	value     any
	owner     *RootRef
	observers registry
	cfg       config
	emitter   *activity.Emitter
	frozen    bool
}

func newRoot(value any, cfg config) *root {
	return &root{
		id:    uuid.NewString(),
		value: value,
		cfg:   cfg,
		emitter: activity.NewEmitter(cfg.activityHooks, activity.Config{
			Enabled: len(cfg.activityHooks) > 0,
			Channel: cfg.activityChannel,
		}),
	}
}

func (r *root) deref() any {
	return r.value
}

// setOwner assigns the owning root cursor. It may be called exactly once.
func (r *root) setOwner(owner *RootRef) error {
	if r.owner != nil {
		return &OwnerError{Root: r.id, Err: ErrOwnerAlreadySet}
	}
	r.owner = owner
	return nil
}

// freeze returns a root cursor over a throwaway root holding value. The
// throwaway root shares the owner and configuration but never changes.
func (r *root) freeze(value any) *Ref {
	return &Ref{root: &root{
		id:     r.id,
		value:  value,
		owner:  r.owner,
		cfg:    r.cfg,
		frozen: true,
	}}
}

// set swaps value in and notifies observers before returning. The swap is
// never rolled back; observer and activity failures are reported together.
func (r *root) set(value any, reason ChangeReason, path snapshot.Path) error {
	if r.owner == nil {
		return &OwnerError{Root: r.id, Err: ErrOwnerNotSet}
	}
	if r.frozen {
		return ErrSnapshotReadOnly
	}

	previous := r.value
	old := r.freeze(previous)
	r.value = value
	r.cfg.logger.Debug("refs: root value replaced", "root", r.id, "path", path.String(), "was_user", reason.WasUser())

	current := r.owner.Ref
	if r.cfg.frozenNew {
		current = r.freeze(value)
	}

	errs := r.notifyObservers(reason, old, current, path)
	if err := r.emitChanged(reason, path, previous, value); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return &NotifyError{Root: r.id, Path: path.String(), Errs: errs}
}

func (r *root) notifyObservers(reason ChangeReason, old, current *Ref, path snapshot.Path) []error {
	errs := r.observers.notify(reason, old, current)
	for _, err := range errs {
		r.cfg.logger.Error("refs: observer failed", "root", r.id, "path", path.String(), "error", err)
	}
	return errs
}

func (r *root) emitChanged(reason ChangeReason, path snapshot.Path, previous, current any) error {
	if !r.emitter.Enabled() {
		return nil
	}
	oldValue, _ := snapshot.GetIn(previous, path)
	newValue, _ := snapshot.GetIn(current, path)
	return r.emit(reason, activity.BuildRefChangedEvent(r.eventInput(reason, path, oldValue, newValue)))
}

func (r *root) emitNotified(reason ChangeReason) error {
	if !r.emitter.Enabled() {
		return nil
	}
	return r.emit(reason, activity.BuildRefNotifiedEvent(r.eventInput(reason, nil, nil, nil)))
}

func (r *root) eventInput(reason ChangeReason, path snapshot.Path, oldValue, newValue any) activity.RefEventInput {
	return activity.RefEventInput{
		ActorID:    reason.ActorID(),
		RootID:     r.id,
		Path:       path.String(),
		OldValue:   snapshot.ToPlain(oldValue),
		NewValue:   snapshot.ToPlain(newValue),
		WasUser:    reason.WasUser(),
		OccurredAt: reason.OccurredAt(),
	}
}

func (r *root) emit(reason ChangeReason, event activity.Event) error {
	if err := r.emitter.Emit(reasonContext(reason), event); err != nil {
		r.cfg.logger.Warn("refs: activity emission failed", "root", r.id, "verb", event.Verb, "error", err)
		return errors.Join(ErrActivityFailed, err)
	}
	return nil
}

// reasonContext uses the reason source as the hook context when it is one.
func reasonContext(reason ChangeReason) context.Context {
	if ctx, ok := reason.Source().(context.Context); ok && ctx != nil {
		return ctx
	}
	return context.Background()
}
