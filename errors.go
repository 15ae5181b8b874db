package refs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-refs/snapshot"
)

var (
	// ErrOwnerAlreadySet indicates setOwner was invoked twice on one root.
	ErrOwnerAlreadySet = errors.New("refs: owner already set")
	// ErrOwnerNotSet indicates a mutation reached a root before its owner was
	// assigned.
	ErrOwnerNotSet = errors.New("refs: owner not set")
	// ErrSnapshotReadOnly indicates a write through a cursor handed to
	// observers as the pre-mutation value.
	ErrSnapshotReadOnly = errors.New("refs: snapshot cursor is read-only")
	// ErrObserverPanic marks observer invocations that panicked.
	ErrObserverPanic = errors.New("refs: observer panicked")
	// ErrActivityFailed marks activity hook failures reported by a mutation.
	ErrActivityFailed = errors.New("refs: activity emission failed")

	// ErrShapeMismatch is the snapshot shape error, re-exported for errors.Is.
	ErrShapeMismatch = snapshot.ErrShapeMismatch
	// ErrPathNotFound is the snapshot missing path error.
	ErrPathNotFound = snapshot.ErrPathNotFound
	// ErrIndexOutOfRange is the snapshot out of range error.
	ErrIndexOutOfRange = snapshot.ErrIndexOutOfRange
)

// ShapeMismatchError reports a navigation or write that is invalid for the
// shape found at a path.
type ShapeMismatchError = snapshot.ShapeMismatchError

// PathError reports a write routed through a missing path.
type PathError = snapshot.PathError

// OwnerError reports misuse of the root owner protocol. Root identifies the
// root the call was made on.
type OwnerError struct {
	Root string
	Err  error
}

func (e *OwnerError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v (root=%s)", e.Err, e.Root)
}

func (e *OwnerError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ObserverPanicError captures a panic raised by an observer.
type ObserverPanicError struct {
	Subscription uint64
	Value        any
}

func (e *ObserverPanicError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("refs: observer %d panicked: %v", e.Subscription, e.Value)
}

func (e *ObserverPanicError) Unwrap() error {
	return ErrObserverPanic
}

// NotifyError collects the failures of one notification round. The root
// value has already been swapped when it is returned.
type NotifyError struct {
	Root string
	Path string
	Errs []error
}

func (e *NotifyError) Error() string {
	if e == nil {
		return "<nil>"
	}
	parts := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("refs: notify root=%s path=%q: %s", e.Root, e.Path, strings.Join(parts, "; "))
}

func (e *NotifyError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return e.Errs
}
