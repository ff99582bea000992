// Package parser extracts plain text from uploaded documents for audit.
// PDF and spreadsheet formats get dedicated extractors; anything else is
// decoded best-effort as UTF-8 text.
package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// ErrInsufficientText is returned when a document yields too little
// usable text to audit.
var ErrInsufficientText = errors.New("parser: insufficient text extracted")

// minUsableChars is the minimum extracted length for a document to be
// auditable.
const minUsableChars = 10

// ExtractText extracts the plain text of the file at path, dispatching
// on the filename extension. Extraction that produces fewer than 10
// usable characters fails with ErrInsufficientText.
func ExtractText(path string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		text, err = extractPDF(path)
	case ".xlsx", ".xls":
		text, err = extractXLSX(path)
	default:
		text, err = extractRaw(path)
	}
	if err != nil {
		// Foreign-format extraction failures fall back to raw decoding
		// before giving up.
		raw, rawErr := extractRaw(path)
		if rawErr != nil {
			return "", fmt.Errorf("extracting %s: %w", filepath.Base(path), err)
		}
		text = raw
	}

	text = strings.TrimSpace(text)
	if len(text) < minUsableChars {
		return "", fmt.Errorf("%w: %s yielded %d characters", ErrInsufficientText, filepath.Base(path), len(text))
	}
	return text, nil
}

// sanitizeUTF8 drops invalid byte sequences so raw decoding of binary
// formats never produces garbage runes.
func sanitizeUTF8(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
