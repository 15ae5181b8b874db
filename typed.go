package refs

import "github.com/goliatone/go-refs/snapshot"

// view carries the operations every shape supports. The typed views embed it
// and add only the navigation that is valid for their shape.
type view struct {
	ref *Ref
}

// Ref returns the untyped cursor behind the view.
func (v view) Ref() *Ref { return v.ref }

// Path returns a copy of the cursor path.
func (v view) Path() snapshot.Path { return v.ref.Path() }

// Deref resolves the current value under the cursor.
func (v view) Deref() any { return v.ref.Deref() }

// Val replaces the value under the cursor.
func (v view) Val(value any, reason ChangeReason) error {
	_, err := v.ref.Val(value, reason)
	return err
}

// Update replaces the value under the cursor with fn applied to it.
func (v view) Update(fn func(any) any, reason ChangeReason) error {
	_, err := v.ref.Update(fn, reason)
	return err
}

// LeafRef is a cursor over a scalar, time, regexp, func or Raw value.
type LeafRef struct{ view }

// SeqRef is a cursor over a sequence; it navigates by integer index.
type SeqRef struct{ view }

// KeyedRef is a cursor over a keyed value; it navigates by string key.
type KeyedRef struct{ view }

// OpaqueRef is a cursor over a container that is neither keyed nor a
// sequence. It supports key based reads only.
type OpaqueRef struct{ view }

// AsLeaf checks that the cursor currently points at a leaf.
func (r *Ref) AsLeaf() (LeafRef, error) {
	if err := r.expect("as-leaf", snapshot.ShapeLeaf); err != nil {
		return LeafRef{}, err
	}
	return LeafRef{view{r}}, nil
}

// AsSeq checks that the cursor currently points at a sequence.
func (r *Ref) AsSeq() (SeqRef, error) {
	if err := r.expect("as-sequence", snapshot.ShapeSequence); err != nil {
		return SeqRef{}, err
	}
	return SeqRef{view{r}}, nil
}

// AsKeyed checks that the cursor currently points at a keyed value.
func (r *Ref) AsKeyed() (KeyedRef, error) {
	if err := r.expect("as-keyed", snapshot.ShapeKeyed); err != nil {
		return KeyedRef{}, err
	}
	return KeyedRef{view{r}}, nil
}

// AsOpaque checks that the cursor currently points at an opaque container.
func (r *Ref) AsOpaque() (OpaqueRef, error) {
	if err := r.expect("as-opaque", snapshot.ShapeOpaque); err != nil {
		return OpaqueRef{}, err
	}
	return OpaqueRef{view{r}}, nil
}

func (r *Ref) expect(op string, want snapshot.Shape) error {
	if got := r.Shape(); got != want {
		return r.mismatch(op, got, want)
	}
	return nil
}

// Get derives the cursor for element i. Negative indexes count from the end.
func (s SeqRef) Get(i int) *Ref {
	return s.ref.Get(i)
}

// Len returns the current number of elements, or zero when the value under
// the cursor is no longer a sequence.
func (s SeqRef) Len() int {
	return snapshot.Len(s.ref.Deref())
}

// Push appends value to the sequence.
func (s SeqRef) Push(value any, reason ChangeReason) error {
	return s.ref.Get(s.Len()).valErr(value, reason)
}

// Get derives the cursor for key.
func (k KeyedRef) Get(key string) *Ref {
	return k.ref.Get(key)
}

// Keys returns the current keys in sorted order.
func (k KeyedRef) Keys() []string {
	return snapshot.Keys(k.ref.Deref())
}

// Has reports whether key is currently present.
func (k KeyedRef) Has(key string) bool {
	_, found := k.ref.Get(key).Lookup()
	return found
}

// Set stores value under key, creating the key when it is missing.
func (k KeyedRef) Set(key string, value any, reason ChangeReason) error {
	return k.ref.Get(key).valErr(value, reason)
}

// Delete removes key. Removing a missing key still notifies observers.
func (k KeyedRef) Delete(key string, reason ChangeReason) error {
	next, err := snapshot.DeleteIn(k.ref.root.deref(), k.ref.path.Append(key))
	if err != nil {
		return err
	}
	return k.ref.root.set(next, reason, k.ref.path.Append(key))
}

// MergeDeep merges value into the keyed value: nested keyed values merge key
// by key, everything else is replaced and nil entries are ignored.
func (k KeyedRef) MergeDeep(value any, reason ChangeReason) error {
	_, err := k.ref.Update(func(current any) any {
		return snapshot.MergeDeep(current, value)
	}, reason)
	return err
}

// Get derives the cursor for key. Reads through opaque containers use string
// keys for maps and integer indexes for slices, or the container's Lookup.
func (o OpaqueRef) Get(key any) *Ref {
	return o.ref.Get(key)
}

func (r *Ref) valErr(value any, reason ChangeReason) error {
	_, err := r.Val(value, reason)
	return err
}
