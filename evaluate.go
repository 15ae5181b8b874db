package refs

import (
	"errors"
	"fmt"
	"time"
)

var ErrNoEvaluator = errors.New("refs: evaluator not configured")

// Evaluate executes expr against the plain value under the cursor. The value
// is bound as "value", its entries are bound at the top level when it is
// keyed, and the cursor path is bound as "path".
func (r *Ref) Evaluate(expr string) (Response[any], error) {
	return r.EvaluateWith(RuleContext{}, expr)
}

// EvaluateWith executes expr using ctx, falling back to the value and path of
// the cursor when ctx leaves them empty.
func (r *Ref) EvaluateWith(ctx RuleContext, expr string) (Response[any], error) {
	if expr == "" {
		return Response[any]{}, ErrEmptyExpression
	}
	evaluator, err := r.root.resolveEvaluator()
	if err != nil {
		return Response[any]{}, err
	}
	if ctx.Snapshot == nil {
		ctx.Snapshot = r.Plain()
	}
	if ctx.Path == "" {
		ctx.Path = r.path.String()
	}
	ctx = ctx.withDefaults()
	start := time.Now()
	value, evalErr := evaluator.Evaluate(ctx, expr)
	evalErr = annotateEvaluation(evaluatorEngineName(evaluator), expr, ctx.pathLabel(), evalErr)
	r.root.logEvaluation(evaluator, expr, ctx, time.Since(start), evalErr)
	if evalErr != nil {
		return Response[any]{}, evalErr
	}
	return Response[any]{Value: value}, nil
}

// ObserveWhen registers o behind a rule compiled once with the configured
// evaluator. After each mutation the rule runs against the new root value
// and o fires only when it yields true. Rule failures are reported as
// observer failures.
func (r *RootRef) ObserveWhen(rule string, o Observer) (*Subscription, error) {
	if rule == "" {
		return nil, ErrEmptyExpression
	}
	if o == nil {
		return nil, fmt.Errorf("refs: observer must not be nil")
	}
	evaluator, err := r.root.resolveEvaluator()
	if err != nil {
		return nil, err
	}
	engine := evaluatorEngineName(evaluator)
	compiled, err := evaluator.Compile(rule)
	if err != nil {
		return nil, annotateEvaluation(engine, rule, "$", err)
	}
	gate := ObserverFunc(func(old, new *Ref, reason ChangeReason) error {
		ctx := RuleContext{
			Snapshot: new.Plain(),
			Path:     new.path.String(),
			Metadata: map[string]any{"was_user": reason.WasUser()},
		}.withDefaults()
		start := time.Now()
		result, err := compiled.Evaluate(ctx)
		err = annotateEvaluation(engine, rule, ctx.pathLabel(), err)
		r.root.logEvaluation(evaluator, rule, ctx, time.Since(start), err)
		if err != nil {
			return err
		}
		if matched, ok := result.(bool); !ok || !matched {
			return nil
		}
		return o.OnChange(old, new, reason)
	})
	return r.Observe(gate), nil
}

func (r *root) resolveEvaluator() (Evaluator, error) {
	if r.cfg.evaluator != nil {
		return r.cfg.evaluator, nil
	}
	evaluator := NewExprEvaluator(
		EngineProgramCache(r.cfg.programCache),
		EngineFunctions(r.cfg.functions),
	)
	if evaluator == nil {
		return nil, ErrNoEvaluator
	}
	r.cfg.evaluator = evaluator
	return evaluator, nil
}

func (r *root) logEvaluation(evaluator Evaluator, expr string, ctx RuleContext, duration time.Duration, err error) {
	r.cfg.evaluatorLogger.LogEvaluation(EvaluatorLogEvent{
		Engine:   evaluatorEngineName(evaluator),
		Expr:     expr,
		Path:     ctx.pathLabel(),
		Duration: duration,
		Err:      err,
	})
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
