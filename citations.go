package setu

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dharmasetu/setu/extract"
	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/retrieval"
)

// Citation is one retrieved passage with a minted identifier and the
// UI metadata the frontend renders.
type Citation struct {
	UUID       string  `json:"uuid"`
	Text       string  `json:"text"`
	SourceDoc  string  `json:"source_doc"`
	PageNumber int     `json:"page_number"`
	LawType    string  `json:"law_type"`
	Score      float64 `json:"score"`
	EntityName string  `json:"entity_name,omitempty"`
	Summary    string  `json:"summary"`
}

// summaryMaxLen bounds citation tooltip summaries.
const summaryMaxLen = 150

// buildCitations mints one citation per retrieved passage and returns
// the entity-to-citation map used to link graph nodes back to their
// sources. Every entity found in a passage maps to that passage's
// citation; the first entity becomes the citation's primary name.
func buildCitations(docs []retrieval.Document, g *kg.Graph) ([]Citation, map[string]string) {
	var citations []Citation
	citationMap := make(map[string]string)

	for _, doc := range docs {
		id := uuid.NewString()
		entities := extract.WithGraph(doc.Text, g)

		primary := ""
		if len(entities) > 0 {
			primary = entities[0]
		}

		citations = append(citations, Citation{
			UUID:       id,
			Text:       doc.Text,
			SourceDoc:  doc.SourceDoc,
			PageNumber: doc.PageNumber,
			LawType:    doc.LawType,
			Score:      doc.Score,
			EntityName: primary,
			Summary:    summarize(doc.Text),
		})
		for _, ent := range entities {
			citationMap[ent] = id
		}
	}
	return citations, citationMap
}

// summarize produces a tooltip-sized summary: short texts pass through,
// longer ones cut at the last sentence boundary when at least half the
// window survives, otherwise at the window with an ellipsis.
func summarize(text string) string {
	if len(text) <= summaryMaxLen {
		return text
	}

	truncated := truncateUTF8(text, summaryMaxLen)
	lastPeriod := strings.LastIndex(truncated, ".")
	if lastPeriod > summaryMaxLen/2 {
		return text[:lastPeriod+1]
	}
	return strings.TrimRight(truncated, " \t\n") + "..."
}

// truncateUTF8 cuts text at n bytes, backing up so the cut never lands
// mid-rune on multibyte passages.
func truncateUTF8(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
