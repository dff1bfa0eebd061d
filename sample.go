package docpreview

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// SampleContext returns the fixed illustrative context used by the
// authoring preview. It covers the whole reference variable namespace.
func SampleContext() Context {
	return Context{
		"company": map[string]any{
			"name":     "Acme Care Services",
			"logo_url": "https://via.placeholder.com/120x48?text=Logo",
		},
		"period": map[string]any{
			"month_label": "January 2025",
		},
		"totals": map[string]any{
			"total_hours":  42.5,
			"total_amount": 3825,
		},
		"per_case": []any{
			map[string]any{"case_id": "C-1001", "hours": 12},
			map[string]any{"case_id": "C-1002", "hours": 18.5},
			map[string]any{"case_id": "C-1003", "hours": 12},
		},
		"report": map[string]any{
			"case_id":         "C-1001",
			"month":           "2025-01",
			"status":          "submitted",
			"background":      "Client referred in autumn after a change in housing situation.",
			"actions":         "Weekly home visits and coordination with the school.",
			"progress":        "Attendance has improved and routines are more stable.",
			"challenges":      "Evening schedule remains irregular.",
			"factors":         "Supportive extended family; limited public transport.",
			"assessment":      "Positive trend, continued support recommended.",
			"recommendations": "Continue current plan for three months and reassess.",
		},
	}
}

// LoadContext decodes a YAML (or JSON) context file
func LoadContext(r io.Reader) (Context, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return Context{}, nil
		}
		return nil, fmt.Errorf("failed to parse context: %w", err)
	}
	return normalize(raw).(map[string]any), nil
}

// normalize converts decoder output into the map/list shapes the
// expander walks
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
