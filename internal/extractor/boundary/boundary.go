// Package boundary provides a lightweight structural extraction
// capability based on top-level declaration patterns. It is not an AST
// parser: it finds function/class boundaries with per-language line
// patterns, which is enough to keep one declaration per chunk for the
// common cases. Real AST-backed capabilities can be registered
// alongside it and take precedence per language.
package boundary

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Ensure Capability implements the interface.
var _ driven.StructuralExtractor = (*Capability)(nil)

// minBoundaries is the smallest number of declarations worth keeping a
// structural split for. Below this the window fallback does fine.
const minBoundaries = 2

// langPatterns maps a language to declaration patterns. The first
// submatch, when present, is the declared symbol name.
var langPatterns = map[string][]*regexp.Regexp{
	"go": {
		regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`^type\s+([A-Za-z_][A-Za-z0-9_]*)`),
	},
	"python": {
		regexp.MustCompile(`^(?:async\s+)?def\s+([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`^class\s+([A-Za-z_][A-Za-z0-9_]*)`),
	},
	"javascript": {
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`^(?:export\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?\(`),
	},
	"typescript": {
		regexp.MustCompile(`^(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`^(?:export\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`^(?:export\s+)?interface\s+([A-Za-z_$][A-Za-z0-9_$]*)`),
		regexp.MustCompile(`^(?:export\s+)?const\s+([A-Za-z_$][A-Za-z0-9_$]*)\s*=\s*(?:async\s*)?\(`),
	},
	"rust": {
		regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`^(?:pub(?:\([^)]*\))?\s+)?(?:struct|enum|trait)\s+([A-Za-z_][A-Za-z0-9_]*)`),
		regexp.MustCompile(`^impl\b`),
	},
}

// Capability finds top-level declaration boundaries.
type Capability struct{}

// New creates the boundary capability.
func New() *Capability {
	return &Capability{}
}

// Languages returns the languages this capability handles.
func (c *Capability) Languages() []string {
	langs := make([]string, 0, len(langPatterns))
	for lang := range langPatterns {
		langs = append(langs, lang)
	}
	return langs
}

// Spans splits content on top-level declarations. The preamble before
// the first declaration becomes its own span. Returns nil when fewer
// than two declarations are found, signalling the window fallback.
func (c *Capability) Spans(content string) ([]driven.CodeSpan, error) {
	lines := strings.Split(content, "\n")

	// The pattern sets are disjoint enough that running all of them and
	// keeping the densest split is safe and avoids threading the
	// detected language through the capability interface.
	var best []driven.CodeSpan
	for _, patterns := range langPatterns {
		spans := splitOn(lines, patterns)
		if len(spans) > len(best) {
			best = spans
		}
	}

	if countDeclared(best) < minBoundaries {
		return nil, nil
	}
	return best, nil
}

// splitOn builds spans from lines matching any of the given patterns.
func splitOn(lines []string, patterns []*regexp.Regexp) []driven.CodeSpan {
	type boundary struct {
		line   int // 1-based
		symbol string
	}

	var boundaries []boundary
	for i, line := range lines {
		for _, p := range patterns {
			m := p.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			b := boundary{line: i + 1}
			if len(m) > 1 {
				b.symbol = m[1]
			}
			boundaries = append(boundaries, b)
			break
		}
	}

	if len(boundaries) == 0 {
		return nil
	}

	var spans []driven.CodeSpan

	// Preamble before the first declaration.
	if boundaries[0].line > 1 {
		spans = append(spans, driven.CodeSpan{LineStart: 1, LineEnd: boundaries[0].line - 1})
	}

	for i, b := range boundaries {
		end := len(lines)
		if i+1 < len(boundaries) {
			end = boundaries[i+1].line - 1
		}

		span := driven.CodeSpan{LineStart: b.line, LineEnd: end}
		if b.symbol != "" {
			span.Symbols = []string{b.symbol}
		}
		spans = append(spans, span)
	}

	return spans
}

// countDeclared counts spans that carry a declaration (not the preamble).
func countDeclared(spans []driven.CodeSpan) int {
	n := 0
	for _, s := range spans {
		if len(s.Symbols) > 0 {
			n++
		}
	}
	return n
}
