package refs

import "time"

// Response stores a typed result produced by an evaluator.
type Response[T any] struct {
	Value T
}

// RuleContext carries inputs needed when evaluating an expression against the
// value under a cursor.
type RuleContext struct {
	Snapshot any
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Path     string
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// pathLabel names the evaluated position in errors and logs; the root is "$".
func (ctx RuleContext) pathLabel() string {
	if ctx.Path == "" {
		return "$"
	}
	return ctx.Path
}

// reservedBindings are always bound by the engine and never shadowed by keys
// of the evaluated value.
var reservedBindings = map[string]struct{}{
	"now":      {},
	"args":     {},
	"metadata": {},
	"value":    {},
	"path":     {},
	"call":     {},
}

// bindings builds the variables shared by every engine. The evaluated value is
// bound as "value" and, when it is keyed, each of its entries is also bound
// at the top level.
func (ctx RuleContext) bindings() map[string]any {
	env := map[string]any{
		"now":      ctx.timestamp(),
		"args":     ctx.Args,
		"metadata": ctx.Metadata,
		"value":    ctx.Snapshot,
		"path":     ctx.Path,
	}
	if keyed, ok := ctx.Snapshot.(map[string]any); ok {
		for key, value := range keyed {
			if _, reserved := reservedBindings[key]; reserved {
				continue
			}
			env[key] = value
		}
	}
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}
