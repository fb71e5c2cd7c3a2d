package planner

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeSection(t *testing.T) {
	t.Parallel()

	t.Run("valid JSON populates fields", func(t *testing.T) {
		t.Parallel()

		section := DecodeSection("roadmap", `{"milestones":["mvp","beta"],"weeks":6}`)
		require.Equal(t, "roadmap", section.Kind)
		require.NotNil(t, section.Fields)
		require.Equal(t, float64(6), section.Fields["weeks"])
	})

	t.Run("malformed JSON degrades to raw text", func(t *testing.T) {
		t.Parallel()

		raw := "## Roadmap\n\n- week 1: scaffold"
		section := DecodeSection("roadmap", raw)
		require.Nil(t, section.Fields)
		require.Equal(t, raw, section.Raw)
	})

	t.Run("JSON array is not an object and keeps raw", func(t *testing.T) {
		t.Parallel()

		section := DecodeSection("tech", `["go","postgres"]`)
		require.Nil(t, section.Fields)
		require.Equal(t, `["go","postgres"]`, section.Raw)
	})

	t.Run("raw is always carried even when fields decode", func(t *testing.T) {
		t.Parallel()

		section := DecodeSection("docs", `{"body":"hello"}`)
		require.Equal(t, `{"body":"hello"}`, section.Raw)
		require.Equal(t, "hello", section.Fields["body"])
	})
}
