package ffmpeg

import (
	"fmt"
	"strings"
)

// FilterBuilder helps construct simple ffmpeg filter chains
type FilterBuilder struct {
	filters []string
}

// NewFilterBuilder creates a new filter builder
func NewFilterBuilder() *FilterBuilder {
	return &FilterBuilder{
		filters: make([]string, 0),
	}
}

// Scale adds a scale filter
func (fb *FilterBuilder) Scale(width, height int) *FilterBuilder {
	if width <= 0 || height <= 0 {
		// Return self without adding filter - allows chaining to continue
		return fb
	}
	fb.filters = append(fb.filters, fmt.Sprintf("scale=%d:%d", width, height))
	return fb
}

// Format adds a pixel format conversion
func (fb *FilterBuilder) Format(pixFmt string) *FilterBuilder {
	if pixFmt == "" {
		return fb
	}
	fb.filters = append(fb.filters, "format="+pixFmt)
	return fb
}

// Custom adds a filter verbatim
func (fb *FilterBuilder) Custom(filter string) *FilterBuilder {
	if filter == "" {
		return fb
	}
	fb.filters = append(fb.filters, filter)
	return fb
}

// Build returns the complete filter string joined with commas
func (fb *FilterBuilder) Build() string {
	if len(fb.filters) == 0 {
		return ""
	}
	return strings.Join(fb.filters, ",")
}

// Graph assembles a -filter_complex string out of labelled chains
type Graph struct {
	chains []string
}

// Chain appends a chain reading the given pads and writing to output.
// An empty output leaves the chain unlabelled, which ffmpeg maps to the
// default output stream.
func (g *Graph) Chain(inputs []string, filter string, output string) *Graph {
	var b strings.Builder
	for _, in := range inputs {
		b.WriteString("[" + in + "]")
	}
	b.WriteString(filter)
	if output != "" {
		b.WriteString("[" + output + "]")
	}
	g.chains = append(g.chains, b.String())
	return g
}

// Len returns the number of chains
func (g *Graph) Len() int {
	return len(g.chains)
}

// String joins the chains with semicolons
func (g *Graph) String() string {
	return strings.Join(g.chains, ";")
}
