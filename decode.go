package refs

import (
	"github.com/goliatone/go-refs/internal/hydrate"
	"github.com/goliatone/go-refs/snapshot"
)

// DecodeContext identifies the root and path a decoded value was read from.
type DecodeContext = hydrate.Context

// DecodeOption configures Decode.
type DecodeOption[T any] = hydrate.DecoderOption[T]

// DecodeWithPreHook rewrites the plain payload before it is decoded.
func DecodeWithPreHook[T any](hook func(DecodeContext, any) (any, error)) DecodeOption[T] {
	return hydrate.WithPreHook[T](hook)
}

// DecodeWithPostHook adjusts or validates the decoded value.
func DecodeWithPostHook[T any](hook func(DecodeContext, *T) error) DecodeOption[T] {
	return hydrate.WithPostHook[T](hook)
}

// DecodeUseNumber keeps numbers as json.Number when decoding into any.
func DecodeUseNumber[T any]() DecodeOption[T] {
	return hydrate.WithUseNumber[T]()
}

// DecodeDisallowUnknownFields rejects keys without a matching struct field.
func DecodeDisallowUnknownFields[T any]() DecodeOption[T] {
	return hydrate.WithDisallowUnknownFields[T]()
}

// Decode hydrates the plain form of the value under r into T. A path that does
// not resolve fails with a *PathError wrapping ErrPathNotFound.
func Decode[T any](r *Ref, opts ...DecodeOption[T]) (T, error) {
	value, found := r.Lookup()
	if !found {
		var zero T
		return zero, &PathError{Op: "decode", Path: r.Path(), Err: ErrPathNotFound}
	}
	ctx := hydrate.Context{Root: r.root.id, Path: r.path.String()}
	return hydrate.NewDecoder(opts...).Decode(ctx, snapshot.ToPlain(value))
}

// DecodeWithCustom replaces JSON decoding with fn.
func DecodeWithCustom[T any](fn func(DecodeContext, any) (T, error)) DecodeOption[T] {
	return hydrate.WithCustomDecoder[T](fn)
}
