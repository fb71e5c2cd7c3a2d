package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hoangdanh165/devplanner/internal/model"
)

// TemplateGenerator derives plan sections from the brief with simple
// heuristics. Deterministic, so tests can assert on output shape.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(ctx context.Context, brief string, status StatusFunc) (map[string]string, error) {
	if status == nil {
		status = func(string) {}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	status("analyzing brief")
	title := briefTitle(brief)

	sections := make(map[string]string, len(model.SectionKinds()))

	status("drafting overview")
	sections[model.SectionOverview] = mustJSON(map[string]any{
		"title":   title,
		"summary": strings.TrimSpace(brief),
	})

	status("listing features")
	sections[model.SectionFeatures] = mustJSON(map[string]any{
		"features": []map[string]string{
			{"name": "Core workflow", "description": "Primary user journey described in the brief."},
			{"name": "Authentication", "description": "Email/password and OAuth sign-in."},
			{"name": "Persistence", "description": "Durable storage of user data."},
		},
	})

	status("choosing tech stack")
	sections[model.SectionTechStack] = mustJSON(map[string]any{
		"frontend": []string{"React", "TypeScript"},
		"backend":  []string{"Go", "PostgreSQL"},
	})

	status("drafting tasks")
	sections[model.SectionTasks] = mustJSON(map[string]any{
		"tasks": []map[string]any{
			{"order": 1, "title": "Project scaffolding", "estimate": "1d"},
			{"order": 2, "title": "Data model and storage", "estimate": "2d"},
			{"order": 3, "title": "Auth and session handling", "estimate": "2d"},
			{"order": 4, "title": "Core feature implementation", "estimate": "5d"},
		},
	})

	status("sketching diagrams")
	sections[model.SectionDiagrams] = mustJSON(map[string]any{
		"mermaid": "graph TD; Client-->API; API-->DB;",
	})

	status("writing docs")
	sections[model.SectionDocs] = fmt.Sprintf("# %s\n\n%s\n", title, strings.TrimSpace(brief))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func briefTitle(brief string) string {
	line := strings.TrimSpace(brief)
	if idx := strings.IndexAny(line, ".\n"); idx > 0 {
		line = line[:idx]
	}
	if len(line) > 60 {
		line = strings.TrimSpace(line[:60])
	}
	if line == "" {
		return "Untitled project"
	}
	return line
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		// Only reachable with non-serializable values, which the
		// templates above never produce.
		panic(err)
	}
	return string(data)
}
