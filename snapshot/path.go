package snapshot

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

var (
	// ErrPathNotFound indicates a write through a missing intermediate segment.
	ErrPathNotFound = errors.New("snapshot: path not found")
	// ErrIndexOutOfRange indicates a sequence write past its end.
	ErrIndexOutOfRange = errors.New("snapshot: index out of range")
	// ErrShapeMismatch indicates an operation that is invalid for the shape
	// found at a path.
	ErrShapeMismatch = errors.New("snapshot: shape mismatch")
)

// Path is an ordered sequence of string keys and integer indexes.
type Path []any

// Append returns a new path with segments added; p is never modified.
func (p Path) Append(segments ...any) Path {
	out := make(Path, 0, len(p)+len(segments))
	out = append(out, p...)
	return append(out, segments...)
}

// String renders the path as dotted keys with bracketed indexes, e.g.
// "g[0].b[0]". The empty path renders as "".
func (p Path) String() string {
	var b strings.Builder
	for _, segment := range p {
		if key, ok := segment.(string); ok {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(key)
			continue
		}
		fmt.Fprintf(&b, "[%v]", segment)
	}
	return b.String()
}

// PathError reports a write that could not be routed through a path.
type PathError struct {
	Op   string
	Path Path
	Err  error
}

func (e *PathError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("snapshot: %s %q: %v", e.Op, e.Path.String(), e.Err)
}

func (e *PathError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ShapeMismatchError reports an operation applied to a value of the wrong
// shape.
type ShapeMismatchError struct {
	Op   string
	Path Path
	Want []Shape
	Got  Shape
}

func (e *ShapeMismatchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("snapshot: %s %q: want %s, got %s", e.Op, e.Path.String(), joinShapes(e.Want), e.Got)
}

func (e *ShapeMismatchError) Unwrap() error {
	return ErrShapeMismatch
}

// Lookuper lets opaque containers take part in path reads.
type Lookuper interface {
	Lookup(key any) (any, bool)
}

// GetIn resolves path against v. Any segment that does not apply to the value
// it meets (missing key, index out of range, wrong key kind, scalar) yields
// an absent result rather than an error.
func GetIn(v any, path Path) (any, bool) {
	current := v
	for _, segment := range path {
		next, ok := child(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

func child(v any, segment any) (any, bool) {
	switch typed := v.(type) {
	case Keyed:
		key, ok := segment.(string)
		if !ok {
			return nil, false
		}
		return typed.Get(key)
	case Sequence:
		i, ok := resolveIndex(segment, typed.Len())
		if !ok {
			return nil, false
		}
		return typed.Get(i), true
	case Lookuper:
		return typed.Lookup(segment)
	}
	if ShapeOf(v) != ShapeOpaque {
		return nil, false
	}
	return reflectChild(reflect.ValueOf(v), segment)
}

func reflectChild(v reflect.Value, segment any) (any, bool) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map:
		key, ok := segment.(string)
		if !ok || v.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		value := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !value.IsValid() {
			return nil, false
		}
		return value.Interface(), true
	case reflect.Slice, reflect.Array:
		i, ok := resolveIndex(segment, v.Len())
		if !ok {
			return nil, false
		}
		return v.Index(i).Interface(), true
	default:
		return nil, false
	}
}

// resolveIndex converts an integer segment into a position in [0, n),
// counting negative indexes from the end.
func resolveIndex(segment any, n int) (int, bool) {
	i, ok := toInt(segment)
	if !ok {
		return 0, false
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func toInt(segment any) (int, bool) {
	switch i := segment.(type) {
	case int:
		return i, true
	case string, nil:
		return 0, false
	}
	v := reflect.ValueOf(segment)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i := v.Int()
		if i < math.MinInt || i > math.MaxInt {
			return 0, false
		}
		return int(i), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	default:
		return 0, false
	}
}

// isInteger reports whether segment has an integer kind, whether or not it
// fits in an int.
func isInteger(segment any) bool {
	switch reflect.ValueOf(segment).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	default:
		return false
	}
}

// SetIn returns a copy of v with the value at path replaced by x.
func SetIn(v any, path Path, x any) (any, error) {
	return UpdateIn(v, path, func(any) any { return x })
}

// UpdateIn returns a copy of v with the value at path replaced by fn applied
// to the current value. fn receives nil when the final segment is missing.
// The result of fn is deep converted with FromPlain. Missing final keys are
// created and an index equal to the sequence length appends; missing
// intermediates fail with a PathError.
func UpdateIn(v any, path Path, fn func(any) any) (any, error) {
	if fn == nil {
		return nil, fmt.Errorf("snapshot: update function is required")
	}
	return updateIn(v, path, 0, fn)
}

func updateIn(v any, path Path, depth int, fn func(any) any) (any, error) {
	if depth == len(path) {
		return FromPlain(fn(v)), nil
	}
	segment := path[depth]
	last := depth == len(path)-1
	at := path[:depth+1]

	switch typed := v.(type) {
	case Keyed:
		key, ok := segment.(string)
		if !ok {
			return nil, &ShapeMismatchError{Op: "update", Path: at, Want: []Shape{ShapeSequence}, Got: ShapeKeyed}
		}
		current, found := typed.Get(key)
		if !found && !last {
			return nil, &PathError{Op: "update", Path: at, Err: ErrPathNotFound}
		}
		next, err := updateIn(current, path, depth+1, fn)
		if err != nil {
			return nil, err
		}
		return typed.Set(key, next), nil
	case Sequence:
		i, ok := toInt(segment)
		if !ok && isInteger(segment) {
			return nil, &PathError{Op: "update", Path: at, Err: ErrIndexOutOfRange}
		}
		if !ok {
			return nil, &ShapeMismatchError{Op: "update", Path: at, Want: []Shape{ShapeKeyed}, Got: ShapeSequence}
		}
		n := typed.Len()
		if i < 0 {
			i += n
		}
		switch {
		case i >= 0 && i < n:
			next, err := updateIn(typed.Get(i), path, depth+1, fn)
			if err != nil {
				return nil, err
			}
			return typed.Set(i, next), nil
		case i == n && last:
			next, err := updateIn(nil, path, depth+1, fn)
			if err != nil {
				return nil, err
			}
			return typed.Append(next), nil
		default:
			return nil, &PathError{Op: "update", Path: at, Err: ErrIndexOutOfRange}
		}
	default:
		return nil, &ShapeMismatchError{
			Op:   "update",
			Path: path[:depth],
			Want: []Shape{ShapeKeyed, ShapeSequence},
			Got:  ShapeOf(v),
		}
	}
}

// DeleteIn returns a copy of v without the entry at path. Deleting a missing
// key is a no-op; deleting from a sequence removes the element and shifts the
// tail.
func DeleteIn(v any, path Path) (any, error) {
	if len(path) == 0 {
		return nil, nil
	}
	parent, last := path[:len(path)-1], path[len(path)-1]
	container, ok := GetIn(v, parent)
	if !ok {
		return nil, &PathError{Op: "delete", Path: parent, Err: ErrPathNotFound}
	}
	var replacement any
	switch typed := container.(type) {
	case Keyed:
		key, ok := last.(string)
		if !ok {
			return nil, &ShapeMismatchError{Op: "delete", Path: path, Want: []Shape{ShapeSequence}, Got: ShapeKeyed}
		}
		replacement = typed.Delete(key)
	case Sequence:
		i, ok := resolveIndex(last, typed.Len())
		if !ok {
			return nil, &PathError{Op: "delete", Path: path, Err: ErrIndexOutOfRange}
		}
		replacement = listWithout(typed, i)
	default:
		return nil, &ShapeMismatchError{
			Op:   "delete",
			Path: parent,
			Want: []Shape{ShapeKeyed, ShapeSequence},
			Got:  ShapeOf(container),
		}
	}
	return SetIn(v, parent, replacement)
}

func listWithout(seq Sequence, index int) Sequence {
	out := seq.Slice(0, index)
	for i := index + 1; i < seq.Len(); i++ {
		out = out.Append(seq.Get(i))
	}
	return out
}
