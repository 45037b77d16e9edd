package llm

import "context"

// Summarizer turns assembled work item text into a natural-language summary.
// It is an opaque, best-effort capability: callers must tolerate an empty or
// failed summary without altering hierarchy or grouping output. Retry and
// rate-limit policy live inside the implementation, not in callers.
type Summarizer interface {
	Summarize(ctx context.Context, prompt string) (string, error)
}
