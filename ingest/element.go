// Package ingest builds the retrieval corpus and the knowledge graph
// from parsed legal documents: passage embedding into the store, and
// LLM triple extraction into the graph.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dharmasetu/setu/parser"
)

// Element is one parsed block of a source document, carrying the
// metadata the retrieval payload needs.
type Element struct {
	Text       string `json:"text"`
	SourceDoc  string `json:"source_doc"`
	PageNumber int    `json:"page_number"`
	LawType    string `json:"law_type"`
}

// rawElement is the parsed-elements file shape produced by the document
// parsing step.
type rawElement struct {
	Text     string `json:"text"`
	Type     string `json:"type"`
	Metadata struct {
		Filename   string `json:"filename"`
		PageNumber int    `json:"page_number"`
	} `json:"metadata"`
}

// LoadElements reads a parsed-elements JSON file and enriches each
// element with source and law-type metadata.
func LoadElements(path string) ([]Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading parsed elements: %w", err)
	}

	var raw []rawElement
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	elements := make([]Element, 0, len(raw))
	for _, r := range raw {
		elements = append(elements, Element{
			Text:       r.Text,
			SourceDoc:  sourceDocName(r.Metadata.Filename),
			PageNumber: r.Metadata.PageNumber,
			LawType:    classifyLawType(r.Metadata.Filename),
		})
	}
	return elements, nil
}

// ElementsFromFile extracts text from a source document and segments it
// at provision boundaries. Used for direct ingestion of PDFs and
// spreadsheets without a separate parsing step.
func ElementsFromFile(path string) ([]Element, error) {
	text, err := parser.ExtractText(path)
	if err != nil {
		return nil, err
	}

	filename := filepath.Base(path)
	source := sourceDocName(filename)
	lawType := classifyLawType(filename)

	segments := SegmentText(text)
	elements := make([]Element, 0, len(segments))
	for _, seg := range segments {
		elements = append(elements, Element{
			Text:      seg,
			SourceDoc: source,
			LawType:   lawType,
		})
	}
	return elements, nil
}

func sourceDocName(filename string) string {
	if filename == "" {
		return "Unknown"
	}
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// classifyLawType tags constitutional sources; everything else is
// statute law.
func classifyLawType(filename string) string {
	if strings.Contains(filename, "Constitution") {
		return "Constitutional"
	}
	return "Statute"
}
