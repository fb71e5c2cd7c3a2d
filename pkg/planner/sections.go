package planner

import "encoding/json"

// Section is one decoded planning artifact. Generated content is not
// guaranteed to be valid JSON; when it is not, Raw carries the literal text
// and Fields is nil. Consumers must render Raw in that case rather than fail.
type Section struct {
	Kind   string
	Fields map[string]any
	Raw    string
}

// DecodeSection never fails: unparseable content degrades to the raw text.
func DecodeSection(kind string, raw string) Section {
	section := Section{Kind: kind, Raw: raw}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err == nil {
		section.Fields = fields
	}
	return section
}
