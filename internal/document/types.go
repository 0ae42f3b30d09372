// Package document defines the structured representation of a converted
// document and the retrieval chunks derived from it. Document conversion
// itself (OCR, table structure recognition) is an external capability
// consumed through the Converter interface.
package document

import "context"

// Table is one recognized table. Columns preserves column order; each row
// maps column name to cell text.
type Table struct {
	ID      string              `json:"id"`
	Page    int                 `json:"page"`
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"content"`
}

// TextChunk is one text section of the document.
type TextChunk struct {
	Header string `json:"header"`
	Text   string `json:"text"`
	Page   int    `json:"page"`
}

// ParsedDocument is the structured output of document conversion.
type ParsedDocument struct {
	Text   string      `json:"text"`
	Tables []Table     `json:"tables"`
	Chunks []TextChunk `json:"chunks"`
}

// Converter turns raw document bytes into a ParsedDocument. Implementations
// wrap the external conversion capability.
type Converter interface {
	Convert(ctx context.Context, data []byte, sourceName string) (*ParsedDocument, error)
}
