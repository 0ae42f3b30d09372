package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidDocument indicates input that cannot be decoded into a
// ParsedDocument.
var ErrInvalidDocument = errors.New("invalid document")

// JSONConverter decodes documents that were already converted upstream
// (OCR and table structure recognition run elsewhere) and arrive as the
// standard parsed-document JSON shape.
type JSONConverter struct{}

// NewJSONConverter creates a converter for pre-parsed JSON documents.
func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

// Convert decodes the bytes into a ParsedDocument.
func (c *JSONConverter) Convert(_ context.Context, data []byte, sourceName string) (*ParsedDocument, error) {
	var doc ParsedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidDocument, sourceName, err)
	}
	return &doc, nil
}

var _ Converter = (*JSONConverter)(nil)
