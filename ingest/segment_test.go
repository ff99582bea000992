package ingest

import (
	"strings"
	"testing"
)

func TestSegmentTextSplitsAtProvisions(t *testing.T) {
	text := `THE INDIAN PENAL CODE
An Act to provide a general Penal Code for India.

299. Culpable homicide.
Whoever causes death by doing an act with the intention of causing death commits culpable homicide.

300. Murder.
Culpable homicide is murder if the act by which the death is caused is done with the intention of causing death.`

	segments := SegmentText(text)
	if len(segments) != 3 {
		t.Fatalf("got %d segments, want 3: %q", len(segments), segments)
	}
	if !strings.HasPrefix(segments[0], "THE INDIAN PENAL CODE") {
		t.Errorf("preamble segment = %q", segments[0])
	}
	if !strings.HasPrefix(segments[1], "299.") {
		t.Errorf("segment 1 = %q", segments[1])
	}
	if !strings.HasPrefix(segments[2], "300.") {
		t.Errorf("segment 2 = %q", segments[2])
	}
}

func TestSegmentTextChapterHeadings(t *testing.T) {
	text := "CHAPTER XVI\nOF OFFENCES AFFECTING THE HUMAN BODY\n\nSection 103. Punishment for murder.\nWhoever commits murder shall be punished with death or imprisonment for life."

	segments := SegmentText(text)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2: %q", len(segments), segments)
	}
	if !strings.HasPrefix(segments[1], "Section 103.") {
		t.Errorf("segment 1 = %q", segments[1])
	}
}

func TestSegmentTextParagraphFallback(t *testing.T) {
	text := "First paragraph without numbering.\n\nSecond paragraph without numbering."
	segments := SegmentText(text)
	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2: %q", len(segments), segments)
	}
}

func TestSegmentTextOversizedProvision(t *testing.T) {
	sentence := "The expression culpable homicide includes acts done with knowledge of likely death. "
	long := "302. Punishment.\n" + strings.Repeat(sentence, 80)

	segments := SegmentText(long)
	if len(segments) < 2 {
		t.Fatalf("oversized provision should split, got %d segments", len(segments))
	}
	for i, seg := range segments {
		if estimateTokens(seg) > maxSegmentTokens+segmentOverlap {
			t.Errorf("segment %d exceeds budget: %d tokens", i, estimateTokens(seg))
		}
	}
	// Overlap repeats trailing words of the previous fragment.
	if !strings.Contains(segments[1], "likely death") {
		t.Errorf("segment 1 missing overlap context: %q", segments[1][:80])
	}
}

func TestEstimateTokens(t *testing.T) {
	if got := estimateTokens(""); got != 0 {
		t.Errorf("empty text = %d tokens", got)
	}
	if got := estimateTokens("one two three four"); got != 6 {
		t.Errorf("four words = %d tokens, want 6", got)
	}
}
