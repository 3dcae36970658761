// Package dryrun renders the request a mutating command would send without
// sending it.
package dryrun

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// Preview describes one mutation that was not performed.
type Preview struct {
	DryRun    bool           `json:"dryRun"`
	Operation string         `json:"operation"`
	Resource  string         `json:"resource"`
	Target    string         `json:"target,omitempty"`
	Fields    map[string]any `json:"fields"`
	Warnings  []string       `json:"warnings,omitempty"`
}

// New builds a preview whose fields are the JSON encoding of body, so the
// preview lists exactly the keys the request would carry.
func New(operation, resource, target string, body any) (*Preview, error) {
	fields := map[string]any{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s preview: %w", resource, err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("%s preview must be an object: %w", resource, err)
		}
	}
	return &Preview{
		DryRun:    true,
		Operation: operation,
		Resource:  resource,
		Target:    target,
		Fields:    fields,
	}, nil
}

// Write prints the preview with fields in key order.
func (p *Preview) Write(w io.Writer) error {
	header := fmt.Sprintf("[DRY-RUN] Would %s %s", p.Operation, p.Resource)
	if p.Target != "" {
		header += " " + p.Target
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %s\n", k, formatValue(p.Fields[k]))
	}

	if len(p.Warnings) > 0 {
		_, _ = fmt.Fprintln(w, "Warnings:")
		for _, warning := range p.Warnings {
			_, _ = fmt.Fprintf(w, "  ! %s\n", warning)
		}
	}

	_, err := fmt.Fprintln(w, "No changes made (dry-run mode)")
	return err
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%g", val)
	case map[string]any, []any:
		data, _ := json.Marshal(val)
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
