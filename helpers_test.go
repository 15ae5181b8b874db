package refs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
)

var evaluatorFactories = []struct {
	name string
	new  func(opts ...EngineOption) Evaluator
}{
	{name: "expr", new: NewExprEvaluator},
	{name: "cel", new: NewCELEvaluator},
	{name: "js", new: NewJSEvaluator},
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("unable to resolve caller for fixture %q", name)
	}
	path := filepath.Join(filepath.Dir(file), "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", path, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", path, err)
	}
	return out
}

// fixturePath converts JSON numbers into integer path segments.
func fixturePath(segments []any) []any {
	out := make([]any, len(segments))
	for i, segment := range segments {
		if number, ok := segment.(float64); ok {
			out[i] = int(number)
			continue
		}
		out[i] = segment
	}
	return out
}

type fakeProgramCache struct {
	mu     sync.Mutex
	items  map[string]any
	hits   int
	misses int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.items[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return value, ok
}

func (c *fakeProgramCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.items == nil {
		c.items = map[string]any{}
	}
	c.items[key] = value
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	entries []logEntry
}

func (l *recordingLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *recordingLogger) Error(msg string, args ...any) { l.record("error", msg, args) }

func (l *recordingLogger) record(level, msg string, args []any) {
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *recordingLogger) has(level, msg string) bool {
	for _, entry := range l.entries {
		if entry.level == level && entry.msg == msg {
			return true
		}
	}
	return false
}

func plainBase() map[string]any {
	return map[string]any{
		"a": 5,
		"d": []any{1, 2, 3},
		"g": []any{
			map[string]any{"a": 40, "b": []any{"d"}},
			map[string]any{"a": 50, "b": []any{"e"}},
		},
		"l": []any{[]any{60}},
		"o": map[string]any{"f": 65},
	}
}
