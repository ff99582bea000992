package eval

import (
	"strings"
	"unicode"

	setu "github.com/dharmasetu/setu"
)

// normalizeLLMText normalizes Unicode characters commonly inserted by
// LLMs so that substring matching works reliably: Unicode whitespace
// becomes ASCII space, Unicode hyphens become ASCII hyphen, and
// zero-width characters are stripped.
func normalizeLLMText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == '\u2010' || r == '\u2011' || r == '\u2012' || r == '\u2013' || r == '\u2014':
			b.WriteByte('-')
		case r == '\u200B' || r == '\u200C' || r == '\u200D' || r == '\uFEFF':
			// strip zero-width characters
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// computeAccuracy checks what fraction of expected facts appear in the
// answer. Matching ignores case, extra spaces, and hyphen variants.
func computeAccuracy(answer string, expectedFacts []string) float64 {
	if answer == "" || len(expectedFacts) == 0 {
		return 0
	}

	normalized := normalizeLLMText(strings.ToLower(answer))
	spaceless := strings.ReplaceAll(normalized, " ", "")
	found := 0
	for _, fact := range expectedFacts {
		for _, alt := range strings.Split(fact, "|") {
			alt = strings.TrimSpace(alt)
			if alt == "" {
				continue
			}
			normAlt := normalizeLLMText(strings.ToLower(alt))
			if strings.Contains(normalized, normAlt) ||
				strings.Contains(spaceless, strings.ReplaceAll(normAlt, " ", "")) {
				found++
				break
			}
		}
	}
	return float64(found) / float64(len(expectedFacts))
}

// computeContextRecall checks what fraction of expected facts the
// retrieved passages contain. This separates retrieval failures from
// generation failures.
func computeContextRecall(citations []setu.Citation, expectedFacts []string) float64 {
	if len(citations) == 0 || len(expectedFacts) == 0 {
		return 0
	}

	var corpus strings.Builder
	for _, c := range citations {
		corpus.WriteString(c.Text)
		corpus.WriteByte(' ')
	}
	return computeAccuracy(corpus.String(), expectedFacts)
}

// computeRelevance checks what fraction of retrieved passages share
// significant words with the question.
func computeRelevance(citations []setu.Citation, question string) float64 {
	if len(citations) == 0 {
		return 0
	}
	questionWords := significantWords(question)
	if len(questionWords) == 0 {
		return 0.5
	}

	relevant := 0
	for _, c := range citations {
		text := strings.ToLower(c.Text)
		matches := 0
		for _, w := range questionWords {
			if strings.Contains(text, w) {
				matches++
			}
		}
		if float64(matches)/float64(len(questionWords)) >= 0.3 {
			relevant++
		}
	}
	return clamp(float64(relevant) / float64(len(citations)))
}

// computeCitationQuality rewards answers that name specific provisions
// and the documents they were retrieved from.
func computeCitationQuality(answer string, citations []setu.Citation) float64 {
	if answer == "" {
		return 0
	}

	lower := strings.ToLower(answer)
	score := 0.5

	provisionMarkers := []string{"section", "article", "chapter", "clause"}
	markers := 0
	for _, m := range provisionMarkers {
		if strings.Contains(lower, m) {
			markers++
		}
	}
	if markers > 0 {
		score += 0.1 * float64(min(markers, 3))
	}

	for _, c := range citations {
		doc := strings.ToLower(strings.ReplaceAll(c.SourceDoc, "_", " "))
		if doc != "" && strings.Contains(strings.ReplaceAll(lower, "_", " "), doc) {
			score += 0.1
			break
		}
	}
	return clamp(score)
}

func significantWords(text string) []string {
	stopWords := map[string]bool{
		"the": true, "are": true, "was": true, "were": true,
		"for": true, "with": true, "under": true, "does": true,
		"what": true, "which": true, "who": true, "how": true,
		"where": true, "when": true, "that": true, "this": true,
		"and": true,
	}

	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.Trim(strings.ToLower(w), ".,;:!?\"'()[]")
		if len(w) > 2 && !stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
