package refs

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// exprEvaluator runs rules with github.com/expr-lang/expr. Programs compile
// against an open environment, so the bound names may differ per call.
type exprEvaluator struct {
	cfg engineConfig
}

// NewExprEvaluator returns the expr-lang evaluator. It is the default engine
// of every root.
func NewExprEvaluator(opts ...EngineOption) Evaluator {
	return &exprEvaluator{cfg: newEngineConfig(opts)}
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression("expr", expression); err != nil {
		return nil, err
	}
	program, err := cachedProgram(e.cfg, "expr", expression, func() (*exprvm.Program, error) {
		return exprlang.Compile(expression, e.compileOptions()...)
	})
	if err != nil {
		return nil, annotateEvaluation("expr", expression, "", err)
	}
	return &compiledRule{
		engine:     "expr",
		expression: expression,
		run: func(ctx RuleContext) (any, error) {
			return exprlang.Run(program, ctx.bindings())
		},
	}, nil
}

func (e *exprEvaluator) compileOptions() []exprlang.Option {
	opts := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if e.cfg.functions == nil {
		return opts
	}
	opts = append(opts, exprlang.Function("call", e.cfg.functions.dispatch))
	for _, name := range e.cfg.functions.Names() {
		opts = append(opts, exprlang.Function(name, e.cfg.functions.bind(name)))
	}
	return opts
}
