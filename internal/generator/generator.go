// Package generator produces planning artifacts from a natural-language brief.
// The production deployment points this at an LLM backend; the bundled
// template generator keeps the rest of the system runnable and testable
// without one.
package generator

import "context"

// StatusFunc receives human-readable progress messages while a generation run
// is in flight ("analyzing brief", "drafting tasks", ...). Implementations
// must not block.
type StatusFunc func(message string)

type Generator interface {
	// Generate returns one raw text blob per section kind. Content is not
	// guaranteed to be valid JSON; consumers must degrade to literal text.
	Generate(ctx context.Context, brief string, status StatusFunc) (map[string]string, error)
}
