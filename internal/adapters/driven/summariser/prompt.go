// Package summariser holds the prompt construction and response
// parsing shared by the provider-specific wiki summariser adapters.
package summariser

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/codewiki/internal/core/domain"
	"github.com/custodia-labs/codewiki/internal/core/ports/driven"
)

// Prompt size limits. The file tree and README dominate the context
// window; both are capped upstream but trimmed again here.
const (
	maxTreeLines   = 400
	maxReadmeChars = 16_000
)

// systemPrompt instructs the model on output shape. JSON output keeps
// parsing deterministic across providers.
const systemPrompt = `You are a technical writer producing concise wiki pages for code repositories.
Respond with a single JSON object, no markdown fences, with exactly these keys:
  "summary": a 2-3 sentence overview of what the repository does
  "long_summary": a few paragraphs covering purpose, architecture, main components, and notable technologies
Do not include any text outside the JSON object.`

// BuildPrompt renders the repository context into the user prompt.
func BuildPrompt(rc domain.RepoContext) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Repository: %s/%s\n", rc.Owner, rc.Name)
	if rc.CommitSHA != "" {
		fmt.Fprintf(&b, "Commit: %s\n", rc.CommitSHA)
	}
	if len(rc.Languages) > 0 {
		fmt.Fprintf(&b, "Languages: %s\n", formatLanguages(rc.Languages))
	}

	if len(rc.FileTree) > 0 {
		tree := rc.FileTree
		if len(tree) > maxTreeLines {
			tree = tree[:maxTreeLines]
		}
		b.WriteString("\nFile tree:\n")
		for _, path := range tree {
			b.WriteString(path)
			b.WriteByte('\n')
		}
		if len(rc.FileTree) > maxTreeLines {
			fmt.Fprintf(&b, "... and %d more files\n", len(rc.FileTree)-maxTreeLines)
		}
	}

	if rc.ReadmeContent != "" {
		readme := rc.ReadmeContent
		if len(readme) > maxReadmeChars {
			readme = readme[:maxReadmeChars]
		}
		b.WriteString("\nREADME:\n")
		b.WriteString(readme)
		b.WriteByte('\n')
	}

	b.WriteString("\nWrite the wiki page JSON now.")
	return b.String()
}

// formatLanguages renders the file-extension counts as "go (12), rs (3)",
// most frequent first so the model sees the dominant language early.
func formatLanguages(langs map[string]int) string {
	type entry struct {
		name  string
		count int
	}
	entries := make([]entry, 0, len(langs))
	for name, count := range langs {
		entries = append(entries, entry{name, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].name < entries[j].name
	})

	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("%s (%d)", e.name, e.count)
	}
	return strings.Join(parts, ", ")
}

// SystemPrompt returns the shared system instruction.
func SystemPrompt() string {
	return systemPrompt
}

// wikiJSON is the expected model output shape.
type wikiJSON struct {
	Summary     string `json:"summary"`
	LongSummary string `json:"long_summary"`
}

// ParseContent extracts wiki content from a model response. The happy
// path is strict JSON; models that wrap the object in prose or fences
// are handled by slicing out the outermost braces. A response with no
// usable summary is an error so the retry loop can take another attempt.
func ParseContent(raw string) (*driven.WikiContent, error) {
	trimmed := strings.TrimSpace(raw)

	var parsed wikiJSON
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("response is not JSON: %q", truncate(trimmed, 120))
		}
		if err := json.Unmarshal([]byte(trimmed[start:end+1]), &parsed); err != nil {
			return nil, fmt.Errorf("parse response JSON: %w", err)
		}
	}

	parsed.Summary = strings.TrimSpace(parsed.Summary)
	parsed.LongSummary = strings.TrimSpace(parsed.LongSummary)
	if parsed.Summary == "" {
		return nil, fmt.Errorf("response has empty summary")
	}
	if parsed.LongSummary == "" {
		parsed.LongSummary = parsed.Summary
	}

	return &driven.WikiContent{
		Summary:     parsed.Summary,
		LongSummary: parsed.LongSummary,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
