package refs

import (
	"errors"
	"fmt"
)

// EvaluationError reports a rule that failed to compile or run. Path is the
// cursor path the rule ran against, "$" for the root, and empty when the
// failure happened before any cursor was involved.
type EvaluationError struct {
	Engine string
	Expr   string
	Path   string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	expr := "<empty>"
	if e.Expr != "" {
		expr = fmt.Sprintf("%q", e.Expr)
	}
	return fmt.Sprintf("refs: %s evaluator expr=%s path=%s: %v", e.Engine, expr, e.Path, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// annotateEvaluation attaches engine, expression and path to err. Fields an
// existing EvaluationError already carries are kept.
func annotateEvaluation(engine, expr, path string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		return &EvaluationError{Engine: engine, Expr: expr, Path: path, Err: err}
	}
	for _, field := range []struct {
		target *string
		value  string
	}{
		{&evalErr.Engine, engine},
		{&evalErr.Expr, expr},
		{&evalErr.Path, path},
	} {
		if *field.target == "" {
			*field.target = field.value
		}
	}
	return evalErr
}
