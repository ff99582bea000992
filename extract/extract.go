// Package extract pulls legal-citation entities out of free text. The
// regex mode is a pure function over the input; the graph-aware mode
// additionally matches known node labels for recall on multi-word
// doctrine names the citation shapes never catch.
package extract

import (
	"regexp"
	"strings"

	"github.com/dharmasetu/setu/kg"
)

// citationPatterns are the high-confidence citation shapes. Order matters:
// the first pattern to hit supplies the primary entity downstream.
var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Section\s+\d+[A-Z]?`),
	regexp.MustCompile(`(?i)Article\s+\d+[A-Z]?`),
	regexp.MustCompile(`(?i)Part\s+[IVX]+`),
	regexp.MustCompile(`(?i)Chapter\s+[IVX]+`),
	regexp.MustCompile(`(?i)Order\s+[IVX]+`),
	regexp.MustCompile(`(?i)Rule\s+\d+`),
}

// seedPatterns restrict extraction to the shapes the context expander
// traverses from.
var seedPatterns = []*regexp.Regexp{
	citationPatterns[0],
	citationPatterns[1],
}

// stopTerms are node labels too generic to match against text.
var stopTerms = map[string]bool{
	"the": true, "and": true, "act": true, "law": true,
	"part": true, "section": true, "article": true,
}

// normalize collapses internal whitespace runs to a single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func matchPatterns(text string, patterns []*regexp.Regexp) []string {
	var out []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		for _, m := range p.FindAllString(text, -1) {
			m = normalize(m)
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

// Citations returns the distinct citation-shaped substrings of text,
// whitespace-normalized, in first-match order.
func Citations(text string) []string {
	return matchPatterns(text, citationPatterns)
}

// Seeds returns only Section and Article shapes, the entities the
// expander uses as traversal roots.
func Seeds(text string) []string {
	return matchPatterns(text, seedPatterns)
}

// isNumeric reports whether s consists entirely of ASCII digits.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// WithGraph augments Citations with graph-node matching: any node label
// of at least 4 characters that is neither numeric nor a stop term and
// appears in the text as a whole word (plain containment when the label
// cannot form a word-boundary pattern) is added. Results keep regex hits
// first, then graph hits in node insertion order.
func WithGraph(text string, g *kg.Graph) []string {
	out := Citations(text)
	if g == nil {
		return out
	}

	seen := make(map[string]bool, len(out))
	for _, e := range out {
		seen[e] = true
	}

	lower := strings.ToLower(text)
	for _, node := range g.AllNodes() {
		label := node.Label
		if len(label) < 4 || isNumeric(label) || stopTerms[strings.ToLower(label)] {
			continue
		}
		if seen[label] {
			continue
		}
		if containsWord(text, lower, label) {
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

// containsWord tests for a case-insensitive whole-word occurrence of
// label in text, falling back to substring containment if the label
// cannot be compiled into a boundary pattern.
func containsWord(text, lowerText, label string) bool {
	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(label) + `\b`)
	if err != nil {
		return strings.Contains(lowerText, strings.ToLower(label))
	}
	if re.MatchString(text) {
		return true
	}
	return strings.Contains(lowerText, strings.ToLower(label))
}
