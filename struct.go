package refs

import "github.com/goliatone/go-refs/snapshot"

// RootRef is the zero-path cursor that owns a root. It is a regular cursor and
// the public endpoint for observer management.
type RootRef struct {
	*Ref
}

// Struct deep converts x into a persistent value and returns the cursor that
// owns the new root. It is the only way to create a managed root.
func Struct(x any, opts ...Option) *RootRef {
	r := newRoot(snapshot.FromPlain(x), applyOptions(opts))
	owner := &RootRef{Ref: &Ref{root: r}}
	// a fresh root has no owner yet
	_ = r.setOwner(owner)
	r.cfg.logger.Debug("refs: root created", "root", r.id, "shape", snapshot.ShapeOf(r.value).String())
	return owner
}

// Layered creates a root from layers ordered strongest to weakest: keyed
// values are merged recursively and explicit values of stronger layers win.
func Layered(layers []any, opts ...Option) *RootRef {
	return Struct(snapshot.MergeLayers(layers...), opts...)
}

// Raw marks x as a leaf that is never converted into persistent structure.
func Raw(x any) snapshot.RawValue {
	return snapshot.Raw(x)
}

// Map deep converts a plain string keyed value into a keyed snapshot.
func Map(x any) snapshot.Keyed {
	return snapshot.Map(x)
}

// List deep converts a plain slice into a sequence snapshot.
func List(x any) snapshot.Sequence {
	return snapshot.List(x)
}

// ID returns the identifier of the owned root.
func (r *RootRef) ID() string {
	return r.root.id
}

// Observe registers o and returns the handle used to remove it. Each call
// creates an independent subscription, even for the same observer.
func (r *RootRef) Observe(o Observer) *Subscription {
	return r.root.observers.observe(o)
}

// ObserveFunc registers fn as an observer.
func (r *RootRef) ObserveFunc(fn func(old, new *Ref, reason ChangeReason) error) *Subscription {
	if fn == nil {
		return nil
	}
	return r.Observe(ObserverFunc(fn))
}

// Unobserve removes exactly the registration identified by sub and reports
// whether it was present. Other subscriptions keep firing.
func (r *RootRef) Unobserve(sub *Subscription) bool {
	return r.root.observers.unobserve(sub)
}

// Observers returns the number of active subscriptions.
func (r *RootRef) Observers() int {
	return r.root.observers.len()
}

// Notify invokes every observer with the root cursor as both the old and the
// new value, without changing the root.
func (r *RootRef) Notify(reason ChangeReason) error {
	return r.NotifyWith(reason, nil, nil)
}

// NotifyWith invokes every observer with explicit old and new cursors. nil
// cursors default to the root cursor.
func (r *RootRef) NotifyWith(reason ChangeReason, old, new *Ref) error {
	if old == nil {
		old = r.Ref
	}
	if new == nil {
		new = r.Ref
	}
	errs := r.root.notifyObservers(reason, old, new, nil)
	if err := r.root.emitNotified(reason); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	return &NotifyError{Root: r.root.id, Errs: errs}
}

// LayerWith merges layers ordered strongest to weakest on top of the current
// value, which acts as the weakest layer, and stores the result.
func (r *RootRef) LayerWith(reason ChangeReason, layers ...any) error {
	if len(layers) == 0 {
		return nil
	}
	combined := append(append([]any(nil), layers...), r.root.deref())
	return r.valErr(snapshot.MergeLayers(combined...), reason)
}
