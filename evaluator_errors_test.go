package refs

import (
	"errors"
	"testing"
)

func TestAnnotateEvaluationCreatesMetadata(t *testing.T) {
	base := errors.New("boom")
	err := annotateEvaluation("expr", "flag && missing", "g[0].b", base)

	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "flag && missing" || evalErr.Path != "g[0].b" {
		t.Fatalf("unexpected metadata %+v", evalErr)
	}
	if !errors.Is(err, base) {
		t.Fatalf("wrapped error should unwrap to base error")
	}
	if err.Error() != `refs: expr evaluator expr="flag && missing" path=g[0].b: boom` {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAnnotateEvaluationFillsMissingFields(t *testing.T) {
	base := errors.New("compile failure")
	existing := &EvaluationError{Engine: "expr", Err: base}

	err := annotateEvaluation("cel", "rule", "o.f", existing)
	if err != existing || !errors.Is(err, base) {
		t.Fatalf("expected the existing error to be returned, got %v", err)
	}
	if existing.Engine != "expr" || existing.Expr != "rule" || existing.Path != "o.f" {
		t.Fatalf("unexpected metadata %+v", existing)
	}
	if annotateEvaluation("cel", "rule", "$", nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}
