// Package outfmt selects and writes the output format for commands.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Mode is the output format chosen with --output.
type Mode int

const (
	Text Mode = iota
	JSON
	// JSONL writes one compact value per line. Lists are split per element.
	JSONL
)

var modeNames = map[string]Mode{
	"":       Text,
	"text":   Text,
	"json":   JSON,
	"jsonl":  JSONL,
	"ndjson": JSONL,
}

// Parse maps an --output value to a Mode. Matching ignores case.
func Parse(s string) (Mode, error) {
	if mode, ok := modeNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return mode, nil
	}
	return Text, fmt.Errorf("invalid output format: %q (use text, json, jsonl or ndjson)", s)
}

// Options is the output configuration resolved from the global flags.
type Options struct {
	Mode    Mode
	Compact bool
	// Query is a jq expression applied before JSON is written.
	Query string
}

type optionsKey struct{}

// WithOptions stores opts in ctx for the formatter.
func WithOptions(ctx context.Context, opts Options) context.Context {
	return context.WithValue(ctx, optionsKey{}, opts)
}

// FromContext returns the options stored in ctx. Without any, output is text.
func FromContext(ctx context.Context) Options {
	opts, _ := ctx.Value(optionsKey{}).(Options)
	return opts
}

// IsJSON reports whether ctx selects json or jsonl output.
func IsJSON(ctx context.Context) bool {
	return FromContext(ctx).Mode != Text
}

// Encode writes v as JSON without HTML escaping, indented unless compact.
func Encode(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
