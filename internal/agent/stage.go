package agent

// Stage contract shared by every pipeline step. A stage is a pure
// transformation from a typed input to a typed output plus a success flag;
// stages never return Go errors past their boundary — failures are carried
// in the output envelope and interpreted by the orchestrator alone.

// StageInput carries a typed payload plus read-only metadata accumulated by
// earlier stages. Metadata is never mutated in place: each stage builds a new
// map merging its own additions.
type StageInput[T any] struct {
	Payload  T
	Metadata map[string]any
}

// StageOutput carries a typed payload, forwarded metadata and the stage
// outcome. Invariant: Success == false implies ErrorMessage is non-empty,
// Success == true implies ErrorMessage is empty.
type StageOutput[T any] struct {
	Payload      T
	Metadata     map[string]any
	Success      bool
	ErrorMessage string
}

func succeed[T any](payload T, metadata map[string]any) StageOutput[T] {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return StageOutput[T]{Payload: payload, Metadata: metadata, Success: true}
}

func fail[T any](message string) StageOutput[T] {
	if message == "" {
		message = "stage failed"
	}
	return StageOutput[T]{Metadata: map[string]any{}, Success: false, ErrorMessage: message}
}

// mergeMetadata returns a fresh map containing base entries overlaid with
// extra entries. Neither argument is modified.
func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
