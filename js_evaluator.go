//go:build js_eval

package refs

import (
	"fmt"

	"github.com/dop251/goja"
)

// jsEvaluator runs rules with goja. Every evaluation gets a fresh runtime.
type jsEvaluator struct {
	cfg engineConfig
}

// NewJSEvaluator returns an evaluator backed by goja.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	return &jsEvaluator{cfg: newEngineConfig(opts)}
}

func (e *jsEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *jsEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression("js", expression); err != nil {
		return nil, err
	}
	program, err := cachedProgram(e.cfg, "js", expression, func() (*goja.Program, error) {
		return goja.Compile("rule", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	})
	if err != nil {
		return nil, annotateEvaluation("js", expression, "", err)
	}
	return &compiledRule{
		engine:     "js",
		expression: expression,
		run: func(ctx RuleContext) (any, error) {
			vm := goja.New()
			if err := e.bind(vm, ctx); err != nil {
				return nil, err
			}
			value, err := vm.RunProgram(program)
			if err != nil {
				return nil, err
			}
			return value.Export(), nil
		},
	}, nil
}

func (e *jsEvaluator) bind(vm *goja.Runtime, ctx RuleContext) error {
	for name, value := range ctx.bindings() {
		if err := vm.Set(name, value); err != nil {
			return err
		}
	}
	if e.cfg.functions == nil {
		return nil
	}
	if err := vm.Set("call", e.cfg.functions.dispatch); err != nil {
		return err
	}
	for _, name := range e.cfg.functions.Names() {
		if err := vm.Set(name, e.cfg.functions.bind(name)); err != nil {
			return err
		}
	}
	return nil
}

func jsEvaluatorAvailable() bool {
	return true
}

func isJSEvaluator(e Evaluator) bool {
	_, ok := e.(*jsEvaluator)
	return ok
}
