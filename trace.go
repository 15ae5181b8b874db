package refs

import (
	"fmt"

	"github.com/goliatone/go-refs/snapshot"
	jsoniter "github.com/json-iterator/go"
)

var traceJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Trace records how a cursor path resolved against the root value, one step
// per segment. Resolution stops at the first segment that does not apply.
type Trace struct {
	Root  string      `json:"root"`
	Path  string      `json:"path"`
	Found bool        `json:"found"`
	Steps []TraceStep `json:"steps"`
}

// TraceStep details a single segment of a traced path. Value is only set for
// leaves.
type TraceStep struct {
	Segment string         `json:"segment"`
	Path    string         `json:"path"`
	Shape   snapshot.Shape `json:"shape"`
	Found   bool           `json:"found"`
	Value   any            `json:"value,omitempty"`
}

// Trace resolves the cursor path segment by segment against the current root
// value.
func (r *Ref) Trace() Trace {
	trace := Trace{
		Root:  r.root.id,
		Path:  r.path.String(),
		Found: true,
		Steps: make([]TraceStep, 0, len(r.path)),
	}
	current := r.root.deref()
	for i, segment := range r.path {
		step := TraceStep{
			Segment: fmt.Sprint(segment),
			Path:    r.path[:i+1].String(),
			Shape:   snapshot.ShapeAbsent,
		}
		next, found := snapshot.GetIn(current, snapshot.Path{segment})
		if !found {
			trace.Found = false
			trace.Steps = append(trace.Steps, step)
			break
		}
		step.Found = true
		step.Shape = snapshot.ShapeOf(next)
		if step.Shape == snapshot.ShapeLeaf {
			step.Value = snapshot.ToPlain(next)
		}
		trace.Steps = append(trace.Steps, step)
		current = next
	}
	return trace
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return traceJSON.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := traceJSON.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
