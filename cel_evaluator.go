package refs

import (
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

var anySliceType = reflect.TypeOf([]any{})

// celEvaluator runs rules with cel-go. CEL is statically checked, so every
// bound name is declared and programs are compiled per expression and set of
// names. Compile therefore defers the work to the first evaluation.
type celEvaluator struct {
	cfg engineConfig
}

// NewCELEvaluator returns an evaluator backed by cel-go. Registered functions
// are reached through call(name) and call(name, [args...]).
func NewCELEvaluator(opts ...EngineOption) Evaluator {
	return &celEvaluator{cfg: newEngineConfig(opts)}
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *celEvaluator) Compile(expression string) (CompiledRule, error) {
	if err := requireExpression("cel", expression); err != nil {
		return nil, err
	}
	return &compiledRule{
		engine:     "cel",
		expression: expression,
		run: func(ctx RuleContext) (any, error) {
			bindings := ctx.bindings()
			program, err := e.program(expression, declaredNames(bindings))
			if err != nil {
				return nil, err
			}
			out, _, err := program.Eval(bindings)
			if err != nil {
				return nil, err
			}
			return out.Value(), nil
		},
	}, nil
}

func (e *celEvaluator) program(expression string, names []string) (celgo.Program, error) {
	key := expression + "\x00" + strings.Join(names, ",")
	return cachedProgram(e.cfg, "cel", key, func() (celgo.Program, error) {
		env, err := celgo.NewEnv(e.envOptions(names)...)
		if err != nil {
			return nil, err
		}
		checked, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, issues.Err()
		}
		return env.Program(checked)
	})
}

func (e *celEvaluator) envOptions(names []string) []celgo.EnvOption {
	opts := make([]celgo.EnvOption, 0, len(names)+1)
	for _, name := range names {
		declared := celgo.DynType
		if name == "now" {
			declared = celgo.TimestampType
		}
		opts = append(opts, celgo.Variable(name, declared))
	}
	if e.cfg.functions == nil {
		return opts
	}
	binding := celgo.FunctionBinding(e.call)
	return append(opts, celgo.Function("call",
		celgo.Overload("call_string", []*celgo.Type{celgo.StringType}, celgo.DynType, binding),
		celgo.Overload("call_string_list", []*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)}, celgo.DynType, binding),
	))
}

// call adapts the registry to CEL. CEL has no variadic functions, so the
// arguments arrive as a single list.
func (e *celEvaluator) call(values ...ref.Val) ref.Val {
	args := make([]any, 0, 4)
	args = append(args, values[0].Value())
	if len(values) > 1 {
		native, err := values[1].ConvertToNative(anySliceType)
		if err != nil {
			return types.NewErr("refs: call arguments: %v", err)
		}
		list, _ := native.([]any)
		args = append(args, list...)
	}
	result, err := e.cfg.functions.dispatch(args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

func declaredNames(bindings map[string]any) []string {
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
