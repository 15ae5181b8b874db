package refs

import (
	"strings"

	"github.com/goliatone/go-refs/pkg/activity"
)

// Option configures a root created by Struct or Layered.
type Option func(*config)

type config struct {
	logger          Logger
	evaluator       Evaluator
	programCache    ProgramCache
	functions       *FunctionRegistry
	evaluatorLogger EvaluatorLogger
	activityHooks   activity.Hooks
	activityChannel string
	frozenNew       bool
	optionErrs      []error
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	if cfg.evaluatorLogger == nil {
		cfg.evaluatorLogger = noopEvaluatorLogger{}
	}
	if cfg.programCache == nil {
		cfg.programCache = NewProgramCache()
	}
	for _, err := range cfg.optionErrs {
		cfg.logger.Warn("refs: option ignored", "error", err)
	}
	cfg.optionErrs = nil
	return cfg
}

// WithEvaluator configures the engine used by Evaluate and ObserveWhen. The
// expr engine is used when none is configured.
func WithEvaluator(e Evaluator) Option {
	return func(cfg *config) {
		cfg.evaluator = e
	}
}

// WithFrozenNewValue makes observers receive a frozen post-mutation cursor as
// the new value instead of the live root cursor. Reentrant mutations from an
// observer are then invisible through that argument.
func WithFrozenNewValue() Option {
	return func(cfg *config) {
		cfg.frozenNew = true
	}
}

// WithActivityHooks attaches activity hooks notified after every mutation.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	normalized := hooks.Compact()
	return func(cfg *config) {
		cfg.activityHooks = normalized
	}
}

// WithActivityChannel overrides the channel stamped on emitted events.
func WithActivityChannel(channel string) Option {
	return func(cfg *config) {
		cfg.activityChannel = strings.TrimSpace(channel)
	}
}
