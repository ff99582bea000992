package ingest

import (
	"math"
	"regexp"
	"strings"
)

// Statute text is segmented at provision boundaries so each passage
// carries one section or article. Oversized provisions are further
// split at sentence boundaries under a token budget, with a short
// overlap so a split never strands a sentence from its context.
const (
	maxSegmentTokens = 512
	segmentOverlap   = 64
)

// provisionPattern matches the start of a numbered provision in Indian
// statute text: "302. Punishment for murder", "Section 103.",
// "Article 21." or a chapter heading.
var provisionPattern = regexp.MustCompile(
	`(?i)^(?:(?:section|article)\s+)?\d+[A-Z]?\.\s|^chapter\s+[IVXLCDM0-9]+\b`,
)

// SegmentText splits raw document text into passage-sized segments.
// Provision boundaries win over paragraph boundaries; anything still
// over the token budget is split at sentences.
func SegmentText(text string) []string {
	var segments []string
	for _, block := range splitProvisions(text) {
		if estimateTokens(block) <= maxSegmentTokens {
			segments = append(segments, block)
			continue
		}
		segments = append(segments, splitBySentences(block)...)
	}
	return segments
}

// splitProvisions breaks text at provision starts. Text before the
// first provision (the preamble) becomes its own segment. A document
// with no recognizable provisions falls back to paragraph blocks.
func splitProvisions(text string) []string {
	lines := strings.Split(text, "\n")

	var blocks []string
	var current strings.Builder
	sawProvision := false

	flush := func() {
		b := strings.TrimSpace(current.String())
		if b != "" {
			blocks = append(blocks, b)
		}
		current.Reset()
	}

	for _, line := range lines {
		if provisionPattern.MatchString(strings.TrimSpace(line)) {
			flush()
			sawProvision = true
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	flush()

	if !sawProvision {
		return splitParagraphs(text)
	}
	return blocks
}

// splitParagraphs splits text on blank-line boundaries.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitBySentences breaks an oversized block into fragments at sentence
// boundaries, carrying a trailing overlap into each new fragment.
func splitBySentences(text string) []string {
	sentences := splitSentences(text)
	var fragments []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := estimateTokens(sent)

		if currentTokens+sentTokens > maxSegmentTokens && current.Len() > 0 {
			fragments = append(fragments, strings.TrimSpace(current.String()))
			overlap := trailingWords(current.String(), segmentOverlap)
			current.Reset()
			currentTokens = 0
			if overlap != "" {
				current.WriteString(overlap)
				current.WriteString(" ")
				currentTokens = estimateTokens(overlap)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}

	if current.Len() > 0 {
		fragments = append(fragments, strings.TrimSpace(current.String()))
	}
	return fragments
}

// splitSentences splits on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		cur.WriteRune(runes[i])
		if runes[i] == '.' || runes[i] == '?' || runes[i] == '!' {
			if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
				s := strings.TrimSpace(cur.String())
				if s != "" {
					sentences = append(sentences, s)
				}
				cur.Reset()
			}
		}
	}
	if cur.Len() > 0 {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// estimateTokens approximates token count as words * 1.3.
func estimateTokens(text string) int {
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}

// trailingWords returns the tail of text worth at most maxTokens.
func trailingWords(text string, maxTokens int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	maxWords := int(float64(maxTokens) / 1.3)
	if maxWords > len(words) {
		maxWords = len(words)
	}
	if maxWords == 0 {
		return ""
	}
	return strings.Join(words[len(words)-maxWords:], " ")
}
