package refs

import (
	"sync"
	"sync/atomic"
)

// Observer is invoked synchronously after every mutation of a root with the
// pre-mutation cursor, the post-mutation cursor and the reason.
type Observer interface {
	OnChange(old, new *Ref, reason ChangeReason) error
}

// ObserverFunc allows plain functions to satisfy Observer.
type ObserverFunc func(old, new *Ref, reason ChangeReason) error

// OnChange dispatches to the underlying function.
func (fn ObserverFunc) OnChange(old, new *Ref, reason ChangeReason) error {
	if fn == nil {
		return nil
	}
	return fn(old, new, reason)
}

// Subscription is the handle returned by Observe. Registering the same
// observer twice yields two independent subscriptions.
type Subscription struct {
	id       uint64
	observer Observer
	registry *registry
	active   atomic.Bool
}

// ID returns the registration sequence number, unique per root.
func (s *Subscription) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.id
}

// Active reports whether the subscription still receives notifications.
func (s *Subscription) Active() bool {
	return s != nil && s.active.Load()
}

// Cancel removes the subscription. Cancelling during a notification round
// suppresses its pending invocation; cancelling twice is a no-op.
func (s *Subscription) Cancel() {
	if s == nil || s.registry == nil {
		return
	}
	s.registry.unobserve(s)
}

// registry is the ordered observer collection embedded in every root.
type registry struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*Subscription
}

func (r *registry) observe(observer Observer) *Subscription {
	if observer == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sub := &Subscription{id: r.nextID, observer: observer, registry: r}
	sub.active.Store(true)
	r.subs = append(r.subs, sub)
	return sub
}

func (r *registry) unobserve(sub *Subscription) bool {
	if sub == nil || sub.registry != r {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := make([]*Subscription, 0, len(r.subs))
	removed := false
	for _, existing := range r.subs {
		if existing == sub {
			removed = true
			continue
		}
		kept = append(kept, existing)
	}
	r.subs = kept
	sub.active.Store(false)
	return removed
}

func (r *registry) snapshot() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Subscription, len(r.subs))
	copy(out, r.subs)
	return out
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}

// notify walks the registrations present at call time in order. Observers
// added during the round are not called; observers removed during the round
// are skipped. Every invocation is isolated so a failing observer never
// prevents later ones from running.
func (r *registry) notify(reason ChangeReason, old, new *Ref) []error {
	var errs []error
	for _, sub := range r.snapshot() {
		if !sub.active.Load() {
			continue
		}
		if err := invoke(sub, old, new, reason); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func invoke(sub *Subscription, old, new *Ref, reason ChangeReason) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = &ObserverPanicError{Subscription: sub.id, Value: recovered}
		}
	}()
	return sub.observer.OnChange(old, new, reason)
}
