package generator

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hoangdanh165/devplanner/internal/model"
)

func TestTemplateGeneratorProducesAllSections(t *testing.T) {
	t.Parallel()

	gen := NewTemplateGenerator()
	sections, err := gen.Generate(context.Background(), "A task planner for developers.", nil)
	require.NoError(t, err)

	for _, kind := range model.SectionKinds() {
		require.Contains(t, sections, kind)
		require.NotEmpty(t, sections[kind])
	}

	// Structured sections are valid JSON objects.
	for _, kind := range []string{model.SectionOverview, model.SectionFeatures, model.SectionTechStack, model.SectionTasks, model.SectionDiagrams} {
		var fields map[string]any
		require.NoError(t, json.Unmarshal([]byte(sections[kind]), &fields), "section %s", kind)
	}

	var overview struct {
		Title   string `json:"title"`
		Summary string `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(sections[model.SectionOverview]), &overview))
	require.Equal(t, "A task planner for developers", overview.Title)
}

func TestTemplateGeneratorReportsProgress(t *testing.T) {
	t.Parallel()

	var messages []string
	gen := NewTemplateGenerator()
	_, err := gen.Generate(context.Background(), "brief", func(message string) {
		messages = append(messages, message)
	})
	require.NoError(t, err)
	require.NotEmpty(t, messages)
	require.Equal(t, "analyzing brief", messages[0])
}

func TestTemplateGeneratorHonorsCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewTemplateGenerator()
	_, err := gen.Generate(ctx, "brief", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBriefTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		brief string
		want  string
	}{
		{name: "first sentence", brief: "A planner. With details.", want: "A planner"},
		{name: "first line", brief: "A planner\nmore text", want: "A planner"},
		{name: "empty brief", brief: "   ", want: "Untitled project"},
		{
			name:  "long brief is truncated",
			brief: "This is a very long brief that keeps going on and on and on without a sentence break",
			want:  "This is a very long brief that keeps going on and on and on",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, briefTitle(tt.brief))
		})
	}
}
