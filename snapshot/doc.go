// Package snapshot provides the persistent values that back a refs root.
//
// Plain nested Go values (string keyed maps, slices, structs) are deep
// converted into structurally shared persistent maps and lists from
// github.com/benbjohnson/immutable. Every operation in this package returns a
// new value and never mutates its inputs:
//
//	v := snapshot.FromPlain(map[string]any{"g": []any{map[string]any{"a": 40}}})
//	next, err := snapshot.SetIn(v, snapshot.Path{"g", 0, "a"}, 41)
//
// Reads through invalid paths yield an absent result (GetIn returns ok=false).
// Writes report PathError for missing intermediates and ShapeMismatchError when
// routed through a leaf or opaque value.
//
// Raw marks values that must never be converted; they are always leaves.
package snapshot
