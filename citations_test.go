package setu

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dharmasetu/setu/kg"
	"github.com/dharmasetu/setu/retrieval"
)

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "short text passes through",
			text: "Section 302 punishes murder.",
			want: "Section 302 punishes murder.",
		},
		{
			name: "cuts at sentence boundary past half",
			text: strings.Repeat("x", 100) + ". " + strings.Repeat("y", 100),
			want: strings.Repeat("x", 100) + ".",
		},
		{
			name: "ellipsis when no usable boundary",
			text: strings.Repeat("z", 200),
			want: strings.Repeat("z", 150) + "...",
		},
		{
			name: "early period does not count",
			text: "Ab. " + strings.Repeat("c", 200),
			want: ("Ab. " + strings.Repeat("c", 146)) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := summarize(tt.text)
			if got != tt.want {
				t.Errorf("summarize() = %q, want %q", got, tt.want)
			}
			if len(got) > summaryMaxLen+3 {
				t.Errorf("summary too long: %d", len(got))
			}
		})
	}
}

func TestSummarizeMultibyte(t *testing.T) {
	// 3-byte Devanagari runes offset by one ASCII byte, so the 150-byte
	// window lands mid-rune.
	text := "a" + strings.Repeat("क", 100)

	got := summarize(text)
	if !utf8.ValidString(got) {
		t.Fatalf("summary is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("summary = %q, want ellipsis suffix", got)
	}
	if len(got) > summaryMaxLen+3 {
		t.Errorf("summary too long: %d", len(got))
	}
}

func TestBuildCitations(t *testing.T) {
	g := kg.New()
	g.AddNode("Culpable Homicide", "")

	docs := []retrieval.Document{
		{
			Text:       "Section 302 punishes murder. Culpable homicide is defined elsewhere.",
			SourceDoc:  "IPC",
			PageNumber: 120,
			LawType:    "Statute",
			Score:      0.91,
		},
		{Text: "No entities in this passage at all.", SourceDoc: "Misc", PageNumber: 1},
	}

	citations, citationMap := buildCitations(docs, g)

	if len(citations) != 2 {
		t.Fatalf("got %d citations, want 2", len(citations))
	}

	first := citations[0]
	if first.UUID == "" || first.UUID == citations[1].UUID {
		t.Error("citation UUIDs must be distinct and non-empty")
	}
	if first.EntityName != "Section 302" {
		t.Errorf("primary entity = %q, want regex hit first", first.EntityName)
	}
	if first.SourceDoc != "IPC" || first.PageNumber != 120 || first.Score != 0.91 {
		t.Errorf("provenance lost: %+v", first)
	}
	if first.Summary == "" {
		t.Error("summary missing")
	}

	// Every extracted entity maps to the citation that mentions it.
	if citationMap["Section 302"] != first.UUID {
		t.Errorf("citation map missing regex entity: %v", citationMap)
	}
	if citationMap["Culpable Homicide"] != first.UUID {
		t.Errorf("citation map missing graph entity: %v", citationMap)
	}

	if citations[1].EntityName != "" {
		t.Errorf("entity-free passage should have no primary entity, got %q", citations[1].EntityName)
	}
}
