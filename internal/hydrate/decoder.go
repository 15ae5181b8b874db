// Package hydrate decodes plain payloads read through a cursor into typed Go
// values, with hooks around the decode step.
package hydrate

import (
	"bytes"
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNilPayload indicates there was nothing to decode.
var ErrNilPayload = errors.New("hydrate: payload is nil")

// Context identifies where a payload was read from.
type Context struct {
	Root string
	Path string
}

// Error reports the stage of the pipeline that failed.
type Error struct {
	Stage string
	Path  string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("hydrate: %s at path %q: %v", e.Stage, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// PreHook rewrites the payload before it is decoded. Returning nil keeps the
// current payload.
type PreHook func(Context, any) (any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the JSON decode step.
type CustomDecoder[T any] func(Context, any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder runs a payload through clone, pre-hooks, decode and post-hooks.
type Decoder[T any] struct {
	pre    []PreHook
	post   []PostHook[T]
	tweaks []func(*jsoniter.Decoder)
	custom CustomDecoder[T]
}

// WithPreHook appends hook to the pre-decode stage.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

// WithPostHook appends hook to the post-decode stage.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithUseNumber keeps numbers decoded into interfaces as json.Number.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.tweaks = append(d.tweaks, (*jsoniter.Decoder).UseNumber)
	}
}

// WithDisallowUnknownFields rejects payload keys without a matching field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.tweaks = append(d.tweaks, (*jsoniter.Decoder).DisallowUnknownFields)
	}
}

// WithCustomDecoder replaces the JSON decode step. Decoder tweaks such as
// WithUseNumber no longer apply.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

// NewDecoder builds a decoder from opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T. The payload is cloned first so hooks may
// mutate it without affecting the caller.
func (d *Decoder[T]) Decode(ctx Context, payload any) (T, error) {
	var zero T
	if payload == nil {
		return zero, &Error{Stage: "load", Path: ctx.Path, Err: ErrNilPayload}
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, &Error{Stage: "clone", Path: ctx.Path, Err: err}
	}
	if current, err = d.runPre(ctx, current); err != nil {
		return zero, &Error{Stage: "pre-hook", Path: ctx.Path, Err: err}
	}

	result, err := d.decode(ctx, current)
	if err != nil {
		return zero, &Error{Stage: "decode", Path: ctx.Path, Err: err}
	}

	for _, hook := range d.post {
		if err := hook(ctx, &result); err != nil {
			return zero, &Error{Stage: "post-hook", Path: ctx.Path, Err: err}
		}
	}
	return result, nil
}

func (d *Decoder[T]) runPre(ctx Context, current any) (any, error) {
	for _, hook := range d.pre {
		next, err := hook(ctx, current)
		if err != nil {
			return nil, err
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

func (d *Decoder[T]) decode(ctx Context, payload any) (T, error) {
	if d.custom != nil {
		return d.custom(ctx, payload)
	}
	var result T
	buffer, err := jsonAPI.Marshal(payload)
	if err != nil {
		return result, err
	}
	decoder := jsonAPI.NewDecoder(bytes.NewReader(buffer))
	for _, tweak := range d.tweaks {
		tweak(decoder)
	}
	err = decoder.Decode(&result)
	return result, err
}

func clonePayload(payload any) (any, error) {
	buffer, err := jsonAPI.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var out any
	err = jsonAPI.Unmarshal(buffer, &out)
	return out, err
}
