package parser

import (
	"fmt"
	"os"
)

// extractRaw reads the file and decodes it as UTF-8, dropping invalid
// sequences. This is both the .txt path and the fallback for formats
// without a dedicated extractor.
func extractRaw(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	return sanitizeUTF8(data), nil
}
