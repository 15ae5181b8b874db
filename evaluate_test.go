package refs

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func newEvaluatorOrSkip(t *testing.T, name string, build func(...EngineOption) Evaluator, opts ...EngineOption) Evaluator {
	t.Helper()
	if name == "js" && !jsEvaluatorAvailable() {
		t.Skip("js evaluator requires the js_eval build tag")
	}
	evaluator := build(opts...)
	if evaluator == nil {
		t.Skipf("%s evaluator unavailable", name)
	}
	return evaluator
}

func TestEvaluateAgainstCursor(t *testing.T) {
	cases := []struct {
		name string
		path []any
		expr string
	}{
		{name: "root entry", expr: "a > 3"},
		{name: "nested entry", path: []any{"o"}, expr: "f == 65"},
		{name: "value binding", path: []any{"o"}, expr: "value.f == 65"},
		{name: "path binding", path: []any{"o"}, expr: `path == "o"`},
		{name: "leaf value", path: []any{"g", 1, "a"}, expr: "value == 50"},
	}
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new)
			state := Struct(plainBase(), WithEvaluator(evaluator))
			for _, tc := range cases {
				resp, err := state.In(tc.path...).Evaluate(tc.expr)
				if err != nil {
					t.Fatalf("%s: evaluate %q: %v", tc.name, tc.expr, err)
				}
				if matched, ok := resp.Value.(bool); !ok || !matched {
					t.Fatalf("%s: expected true for %q, got %#v", tc.name, tc.expr, resp.Value)
				}
			}
		})
	}
}

func TestEvaluateWithOverridesSnapshot(t *testing.T) {
	state := Struct(plainBase())
	resp, err := state.EvaluateWith(RuleContext{
		Snapshot: map[string]any{"a": 1},
		Args:     map[string]any{"limit": 2},
	}, "a < args.limit")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != true {
		t.Fatalf("expected override snapshot to be used, got %#v", resp.Value)
	}
}

func TestEvaluateRejectsEmptyExpression(t *testing.T) {
	state := Struct(plainBase())
	if _, err := state.Evaluate(""); !errors.Is(err, ErrEmptyExpression) {
		t.Fatalf("expected ErrEmptyExpression, got %v", err)
	}
	for _, factory := range evaluatorFactories {
		evaluator := factory.new()
		if evaluator == nil {
			continue
		}
		if _, err := evaluator.Compile("  "); !errors.Is(err, ErrEmptyExpression) {
			t.Fatalf("%s: expected ErrEmptyExpression, got %v", factory.name, err)
		}
	}
}

func TestEvaluateErrorCarriesPath(t *testing.T) {
	state := Struct(plainBase())

	_, err := state.Evaluate("a >")
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %v", err)
	}
	if evalErr.Engine != "expr" || evalErr.Path != "$" || evalErr.Expr != "a >" {
		t.Fatalf("unexpected evaluation error metadata %+v", evalErr)
	}

	_, err = state.Get("o").Evaluate("f >")
	if !errors.As(err, &evalErr) || evalErr.Path != "o" {
		t.Fatalf("expected path o, got %v", err)
	}
}

func TestObserveWhenGatesObserver(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new)
			state := Struct(map[string]any{"a": 1}, WithEvaluator(evaluator))
			var seen []any
			sub, err := state.ObserveWhen("a > 3", ObserverFunc(func(old, current *Ref, _ ChangeReason) error {
				seen = append(seen, []any{old.Get("a").Deref(), current.Get("a").Deref()})
				return nil
			}))
			if err != nil {
				t.Fatalf("observe when: %v", err)
			}
			if !sub.Active() {
				t.Fatalf("expected active subscription")
			}

			if _, err := state.Get("a").Val(2, ChangeReason{}); err != nil {
				t.Fatalf("val: %v", err)
			}
			if len(seen) != 0 {
				t.Fatalf("expected gated observer to stay silent, got %v", seen)
			}
			if _, err := state.Get("a").Val(5, ChangeReason{}); err != nil {
				t.Fatalf("val: %v", err)
			}
			if len(seen) != 1 {
				t.Fatalf("expected one gated notification, got %v", seen)
			}
			pair := seen[0].([]any)
			if pair[0] != 2 || pair[1] != 5 {
				t.Fatalf("unexpected old/new pair %v", pair)
			}
		})
	}
}

func TestObserveWhenValidatesInputs(t *testing.T) {
	state := Struct(map[string]any{"a": 1})
	noop := ObserverFunc(func(_, _ *Ref, _ ChangeReason) error { return nil })

	if _, err := state.ObserveWhen("", noop); err == nil {
		t.Fatalf("expected empty rule to fail")
	}
	if _, err := state.ObserveWhen("a > 1", nil); err == nil {
		t.Fatalf("expected nil observer to fail")
	}
	_, err := state.ObserveWhen("a >", noop)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected compile failure, got %v", err)
	}
	if state.Observers() != 0 {
		t.Fatalf("expected failed registrations to leave no observers")
	}
}

func TestObserveWhenNonBoolResultDoesNotFire(t *testing.T) {
	state := Struct(map[string]any{"a": 1})
	fired := false
	if _, err := state.ObserveWhen("a", ObserverFunc(func(_, _ *Ref, _ ChangeReason) error {
		fired = true
		return nil
	})); err != nil {
		t.Fatalf("observe when: %v", err)
	}
	if _, err := state.Get("a").Val(7, ChangeReason{}); err != nil {
		t.Fatalf("val: %v", err)
	}
	if fired {
		t.Fatalf("expected non boolean rule result to suppress the observer")
	}
}

func TestEvaluatorProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new, EngineProgramCache(cache))
			state := Struct(plainBase(), WithEvaluator(evaluator))
			for i := 0; i < 3; i++ {
				if _, err := state.Evaluate("a > 3"); err != nil {
					t.Fatalf("evaluate: %v", err)
				}
			}
			if cache.misses != 1 || cache.hits != 2 {
				t.Fatalf("expected 1 miss and 2 hits, got %d misses and %d hits", cache.misses, cache.hits)
			}
		})
	}
}

func TestDefaultEvaluatorUsesProgramCacheOption(t *testing.T) {
	cache := &fakeProgramCache{}
	state := Struct(plainBase(), WithProgramCache(cache))
	for i := 0; i < 2; i++ {
		if _, err := state.Evaluate("a > 3"); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if cache.misses != 1 || cache.hits != 1 {
		t.Fatalf("expected cached program reuse, got %d misses and %d hits", cache.misses, cache.hits)
	}
}

func TestEvaluatorCustomFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("upper", func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, errors.New("upper expects one argument")
		}
		return strings.ToUpper(args[0].(string)), nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	expressions := map[string]string{
		"expr": `upper(sku) == "ABC"`,
		"cel":  `call("upper", [sku]) == "ABC"`,
		"js":   `upper(sku) === "ABC"`,
	}
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new, EngineFunctions(registry))
			state := Struct(map[string]any{"sku": "abc"}, WithEvaluator(evaluator))
			resp, err := state.Evaluate(expressions[factory.name])
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if resp.Value != true {
				t.Fatalf("expected custom function to run, got %#v", resp.Value)
			}
		})
	}
}

func TestWithCustomFunctionReachesDefaultEvaluator(t *testing.T) {
	state := Struct(map[string]any{"n": 2}, WithCustomFunction("double", func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	}))
	resp, err := state.Evaluate("double(n) == 4")
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if resp.Value != true {
		t.Fatalf("expected registered function to be callable, got %#v", resp.Value)
	}
}

func TestFunctionRegistryValidatesNames(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(...any) (any, error) { return "ok", nil }
	if err := registry.Register("Upper", fn); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register("upper", fn); !errors.Is(err, ErrFunctionExists) {
		t.Fatalf("expected case insensitive duplicate to fail, got %v", err)
	}
	for _, name := range []string{"", "two words", "9lives", "call"} {
		if err := registry.Register(name, fn); err == nil {
			t.Fatalf("expected %q to be rejected", name)
		}
	}
	if err := registry.Register("noop", nil); err == nil {
		t.Fatalf("expected nil function to be rejected")
	}
	if _, err := registry.Call("missing"); !errors.Is(err, ErrFunctionNotFound) {
		t.Fatalf("expected ErrFunctionNotFound, got %v", err)
	}
	if got, err := registry.dispatch("UPPER"); err != nil || got != "ok" {
		t.Fatalf("expected dispatch by name, got %v (%v)", got, err)
	}
	if _, err := registry.dispatch(42); err == nil {
		t.Fatalf("expected non string name to fail")
	}

	clone := registry.Clone()
	_ = registry.Register("later", fn)
	if _, ok := clone.Lookup("later"); ok {
		t.Fatalf("expected clone to be isolated from later registrations")
	}
	var missing *FunctionRegistry
	if missing.Clone() != nil || missing.Names() != nil {
		t.Fatalf("expected nil registry helpers to be nil safe")
	}
}

func TestEvaluatorsShareNamespacedCache(t *testing.T) {
	cache := &fakeProgramCache{}
	exprState := Struct(plainBase(), WithEvaluator(NewExprEvaluator(EngineProgramCache(cache))))
	celState := Struct(plainBase(), WithEvaluator(NewCELEvaluator(EngineProgramCache(cache))))
	if _, err := exprState.Evaluate("a > 3"); err != nil {
		t.Fatalf("expr: %v", err)
	}
	if _, err := celState.Evaluate("a > 3"); err != nil {
		t.Fatalf("cel: %v", err)
	}
	if len(cache.items) != 2 || cache.misses != 2 {
		t.Fatalf("expected one entry per engine, got %d entries", len(cache.items))
	}
}

func TestMemoryProgramCache(t *testing.T) {
	cache := NewProgramCache()
	exprState := Struct(plainBase(), WithEvaluator(NewExprEvaluator(EngineProgramCache(cache))))
	celState := Struct(plainBase(), WithEvaluator(NewCELEvaluator(EngineProgramCache(cache))))
	for i := 0; i < 2; i++ {
		if _, err := exprState.Evaluate("a > 3"); err != nil {
			t.Fatalf("expr: %v", err)
		}
		if _, err := celState.Evaluate("a > 3"); err != nil {
			t.Fatalf("cel: %v", err)
		}
	}
	if cache.Len() != 2 {
		t.Fatalf("expected one program per engine, got %d", cache.Len())
	}
	if _, ok := cache.Get("expr:a > 3"); !ok {
		t.Fatalf("expected expr program under its namespaced key")
	}

	var empty MemoryProgramCache
	empty.Set("k", 1)
	if got, ok := empty.Get("k"); !ok || got != 1 {
		t.Fatalf("expected zero value cache to be usable, got %v (%t)", got, ok)
	}
}

func TestRootsGetDefaultProgramCache(t *testing.T) {
	state := Struct(plainBase())
	cache, ok := state.root.cfg.programCache.(*MemoryProgramCache)
	if !ok {
		t.Fatalf("expected default MemoryProgramCache, got %T", state.root.cfg.programCache)
	}
	for i := 0; i < 2; i++ {
		if _, err := state.Evaluate("a > 3"); err != nil {
			t.Fatalf("evaluate: %v", err)
		}
	}
	if cache.Len() != 1 {
		t.Fatalf("expected compiled rule to be reused, got %d entries", cache.Len())
	}
}

func TestLoggerEvaluatorLogger(t *testing.T) {
	logger := &recordingLogger{}
	state := Struct(plainBase(), WithEvaluatorLogger(LoggerEvaluatorLogger(logger)))
	if _, err := state.Evaluate("a > 3"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := state.Evaluate("a >"); err == nil {
		t.Fatalf("expected compile failure")
	}
	if !logger.has("debug", "refs: rule evaluated") || !logger.has("warn", "refs: rule evaluation failed") {
		t.Fatalf("expected evaluation log entries, got %+v", logger.entries)
	}
}

func TestEvaluatorLoggerRecordsPath(t *testing.T) {
	var events []EvaluatorLogEvent
	state := Struct(plainBase(), WithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})))

	if _, err := state.Get("o").Evaluate("f == 65"); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if _, err := state.Evaluate("a >"); err == nil {
		t.Fatalf("expected compile failure")
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 log events, got %d", len(events))
	}
	if events[0].Engine != "expr" || events[0].Path != "o" || events[0].Err != nil {
		t.Fatalf("unexpected first event %+v", events[0])
	}
	if events[1].Path != "$" || events[1].Err == nil {
		t.Fatalf("unexpected second event %+v", events[1])
	}
}

func TestEvaluatorEngineName(t *testing.T) {
	if got := evaluatorEngineName(NewExprEvaluator()); got != "expr" {
		t.Fatalf("expected expr, got %q", got)
	}
	if got := evaluatorEngineName(NewCELEvaluator()); got != "cel" {
		t.Fatalf("expected cel, got %q", got)
	}
	if got := evaluatorEngineName(nil); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}

type constantEvaluator struct {
	result   any
	compiled int
}

func (e *constantEvaluator) Evaluate(ctx RuleContext, expr string) (any, error) {
	rule, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *constantEvaluator) Compile(expr string) (CompiledRule, error) {
	e.compiled++
	return &compiledRule{
		engine:     "constant",
		expression: expr,
		run:        func(RuleContext) (any, error) { return e.result, nil },
	}, nil
}

func TestCustomEvaluatorDrivesObserveWhen(t *testing.T) {
	evaluator := &constantEvaluator{result: true}
	state := Struct(plainBase(), WithEvaluator(evaluator))
	calls := 0
	if _, err := state.ObserveWhen("anything", ObserverFunc(func(_, _ *Ref, _ ChangeReason) error {
		calls++
		return nil
	})); err != nil {
		t.Fatalf("observe when: %v", err)
	}
	for _, next := range []int{6, 7} {
		if _, err := state.Get("a").Val(next, ChangeReason{}); err != nil {
			t.Fatalf("val: %v", err)
		}
	}
	if calls != 2 || evaluator.compiled != 1 {
		t.Fatalf("expected rule compiled once and fired twice, got %d compiles and %d calls", evaluator.compiled, calls)
	}
	if got := evaluatorEngineName(evaluator); got != "custom" {
		t.Fatalf("expected custom engine name, got %q", got)
	}
}

func TestWithCustomFunctionLogsRejectedNames(t *testing.T) {
	logger := &recordingLogger{}
	noop := func(...any) (any, error) { return nil, nil }
	state := Struct(plainBase(),
		WithCustomFunction("double", noop),
		WithCustomFunction("double", noop),
		WithCustomFunction("not-an-ident", noop),
		WithLogger(logger),
	)
	warnings := 0
	for _, entry := range logger.entries {
		if entry.level == "warn" && entry.msg == "refs: option ignored" {
			warnings++
		}
	}
	if warnings != 2 {
		t.Fatalf("expected two ignored options to be logged, got %+v", logger.entries)
	}
	if names := state.root.cfg.functions.Names(); !reflect.DeepEqual(names, []string{"double"}) {
		t.Fatalf("expected only the valid registration to survive, got %v", names)
	}
}
