package refs

import (
	"errors"
	"strings"
)

// ErrEmptyExpression indicates a blank rule.
var ErrEmptyExpression = errors.New("refs: expression must not be empty")

// EngineOption configures the built-in expr, CEL and JS evaluators.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache     ProgramCache
	functions *FunctionRegistry
}

// EngineProgramCache stores compiled programs in cache. Keys are prefixed
// with the engine name so one cache can back several evaluators.
func EngineProgramCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineFunctions exposes the functions registered in registry at the time
// of the call.
func EngineFunctions(registry *FunctionRegistry) EngineOption {
	return func(cfg *engineConfig) {
		cfg.functions = registry.Clone()
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// cachedProgram returns the program cached under engine and key, compiling
// and storing it on a miss.
func cachedProgram[P any](cfg engineConfig, engine, key string, compile func() (P, error)) (P, error) {
	key = engine + ":" + key
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(key); ok {
			if program, ok := cached.(P); ok {
				return program, nil
			}
		}
	}
	program, err := compile()
	if err != nil {
		var zero P
		return zero, err
	}
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
	return program, nil
}

// compiledRule is the CompiledRule shared by the built-in engines. run
// receives a context with defaults applied.
type compiledRule struct {
	engine     string
	expression string
	run        func(RuleContext) (any, error)
}

func (r *compiledRule) Evaluate(ctx RuleContext) (any, error) {
	ctx = ctx.withDefaults()
	value, err := r.run(ctx)
	if err != nil {
		return nil, annotateEvaluation(r.engine, r.expression, ctx.pathLabel(), err)
	}
	return value, nil
}

func requireExpression(engine, expression string) error {
	if strings.TrimSpace(expression) == "" {
		return annotateEvaluation(engine, expression, "", ErrEmptyExpression)
	}
	return nil
}
