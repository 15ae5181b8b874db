package refs

import (
	"fmt"

	"github.com/goliatone/go-refs/snapshot"
)

// Ref is a lazy handle identifying a root and a path into its value. A Ref
// holds no materialized value: every read resolves the path against the
// current root value, so a Ref taken before a mutation observes it.
//
// Refs handed to observers as the old value are bound to a frozen root and
// keep returning the pre-mutation value forever.
type Ref struct {
	root *root
	path snapshot.Path
}

// Get derives a child cursor with key appended to the path. It never reads
// the root and always succeeds; invalid segments surface as absent reads or
// write errors.
func (r *Ref) Get(key any) *Ref {
	return &Ref{root: r.root, path: r.path.Append(key)}
}

// In derives a descendant cursor for several segments at once.
func (r *Ref) In(path ...any) *Ref {
	return &Ref{root: r.root, path: r.path.Append(path...)}
}

// Child is the eager form of Get: it fails with a ShapeMismatchError when key
// does not apply to the value currently under the cursor.
func (r *Ref) Child(key any) (*Ref, error) {
	value, found := r.Lookup()
	shape := snapshot.ShapeAbsent
	if found {
		shape = snapshot.ShapeOf(value)
	}
	_, isKey := key.(string)
	switch {
	case shape == snapshot.ShapeKeyed && isKey:
	case shape == snapshot.ShapeSequence && !isKey && isIndex(key):
	case shape == snapshot.ShapeOpaque:
	case shape == snapshot.ShapeKeyed:
		return nil, r.mismatch("get", shape, snapshot.ShapeSequence)
	case shape == snapshot.ShapeSequence:
		return nil, r.mismatch("get", shape, snapshot.ShapeKeyed)
	default:
		return nil, r.mismatch("get", shape, snapshot.ShapeKeyed, snapshot.ShapeSequence, snapshot.ShapeOpaque)
	}
	return r.Get(key), nil
}

// Path returns a copy of the cursor path.
func (r *Ref) Path() snapshot.Path {
	return r.path.Append()
}

// Deref resolves the path against the current root value. Paths that do not
// resolve yield nil; use Lookup to tell absent from a stored nil.
func (r *Ref) Deref() any {
	value, _ := r.Lookup()
	return value
}

// Lookup resolves the path and reports whether every segment applied.
func (r *Ref) Lookup() (any, bool) {
	return snapshot.GetIn(r.root.deref(), r.path)
}

// Plain returns the value under the cursor converted back to plain Go values.
func (r *Ref) Plain() any {
	return snapshot.ToPlain(r.Deref())
}

// Shape resolves the shape of the value currently under the cursor.
func (r *Ref) Shape() snapshot.Shape {
	value, found := r.Lookup()
	if !found {
		return snapshot.ShapeAbsent
	}
	return snapshot.ShapeOf(value)
}

// Val replaces the value under the cursor with value and notifies observers.
// It is equivalent to Update with a function returning value. The cursor is
// returned for chaining; a non-nil error after a successful swap is a
// *NotifyError.
func (r *Ref) Val(value any, reason ChangeReason) (*Ref, error) {
	return r.Update(func(any) any { return value }, reason)
}

// Update replaces the value under the cursor with fn applied to the current
// value and notifies observers. fn receives nil when the final segment is
// missing.
func (r *Ref) Update(fn func(any) any, reason ChangeReason) (*Ref, error) {
	next, err := snapshot.UpdateIn(r.root.deref(), r.path, fn)
	if err != nil {
		return r, err
	}
	return r, r.root.set(next, reason, r.path)
}

// Owner returns the root cursor this cursor writes through.
func (r *Ref) Owner() *RootRef {
	return r.root.owner
}

// Frozen reports whether the cursor is bound to a pre-mutation snapshot.
func (r *Ref) Frozen() bool {
	return r.root.frozen
}

// RootID returns the identifier of the root the cursor belongs to.
func (r *Ref) RootID() string {
	return r.root.id
}

func (r *Ref) String() string {
	if len(r.path) == 0 {
		return fmt.Sprintf("Ref(%s)", r.root.id)
	}
	return fmt.Sprintf("Ref(%s %s)", r.root.id, r.path.String())
}

func (r *Ref) mismatch(op string, got snapshot.Shape, want ...snapshot.Shape) error {
	return &ShapeMismatchError{Op: op, Path: r.Path(), Want: want, Got: got}
}

func isIndex(key any) bool {
	switch key.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	default:
		return false
	}
}
