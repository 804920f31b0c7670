// Package ingestion implements the document ingestion pipeline. It extracts
// plain text from an uploaded file, persists the document, embeds the full
// text, and stores the embedding alongside it. The pipeline is invoked by
// the `docqa ingest` CLI command and the document upload endpoint.
package ingestion

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/docbase-ai/docqa-go/internal/rag"
)

// supportedExtensions maps file extensions to their extraction strategy.
// Plain-text formats pass through unchanged; CSV is flattened row by row.
var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".log": true,
	".csv": true,
}

// SupportedExtensions returns the file extensions ingestion accepts, for use
// in error messages and CLI help text.
func SupportedExtensions() []string {
	return []string{".txt", ".md", ".log", ".csv"}
}

// ExtractText converts raw file bytes into the plain text that gets embedded
// and stored. The extraction strategy is chosen by file extension; an
// unsupported extension is a caller error (rag.ErrInvalidInput), as is a file
// whose extracted text is empty.
func ExtractText(filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("ingestion: unsupported file type %q (supported: %s): %w",
			ext, strings.Join(SupportedExtensions(), ", "), rag.ErrInvalidInput)
	}

	var text string
	switch ext {
	case ".csv":
		flattened, err := flattenCSV(data)
		if err != nil {
			return "", fmt.Errorf("ingestion: parse csv %s: %v: %w", filename, err, rag.ErrInvalidInput)
		}
		text = flattened
	default:
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("ingestion: %s contains no extractable text: %w", filename, rag.ErrInvalidInput)
	}
	return text, nil
}

// flattenCSV renders a CSV file as one line per record with cells joined by
// single spaces, so the embedder sees rows as natural-language-adjacent text.
func flattenCSV(data []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	// Rows with varying cell counts are common in real exports.
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for i, record := range records {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(strings.Join(record, " "))
	}
	return b.String(), nil
}
