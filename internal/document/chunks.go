package document

import (
	"fmt"
	"strings"
)

// ChunkKind discriminates table chunks from text chunks.
type ChunkKind string

const (
	ChunkTable ChunkKind = "table"
	ChunkText  ChunkKind = "text"
)

// Chunk is one retrieval candidate: a single table or text section with a
// human-readable provenance label. Embedding is attached lazily by the
// retrieval layer and reused across all parameters of a run.
type Chunk struct {
	Kind    ChunkKind
	Index   int
	Content string
	Source  string

	// Exactly one of Table/Text is set, pointing into the parsed document.
	Table *Table
	Text  *TextChunk

	Embedding []float32
}

// PrepareChunks splits a parsed document into retrieval candidates: one
// chunk per table and one per text section. Content is head-truncated to
// maxChars, trading tail precision for staying inside the embedding
// capability's bounded input.
func PrepareChunks(doc *ParsedDocument, maxChars int) []*Chunk {
	chunks := make([]*Chunk, 0, len(doc.Tables)+len(doc.Chunks))

	for i := range doc.Tables {
		table := &doc.Tables[i]
		chunks = append(chunks, &Chunk{
			Kind:    ChunkTable,
			Index:   i,
			Content: truncate(renderTable(table), maxChars),
			Source:  fmt.Sprintf("Table %d", i+1),
			Table:   table,
		})
	}

	for i := range doc.Chunks {
		text := &doc.Chunks[i]
		chunks = append(chunks, &Chunk{
			Kind:    ChunkText,
			Index:   i,
			Content: truncate(text.Text, maxChars),
			Source:  fmt.Sprintf("Text Chunk %d", i+1),
			Text:    text,
		})
	}

	return chunks
}

// renderTable produces a textual rendering of a table for embedding:
// header row followed by one line per row, cells in column order.
func renderTable(t *Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " | "))
	for _, row := range t.Rows {
		b.WriteByte('\n')
		cells := make([]string, len(t.Columns))
		for i, col := range t.Columns {
			cells[i] = row[col]
		}
		b.WriteString(strings.Join(cells, " | "))
	}
	return b.String()
}

func truncate(s string, maxChars int) string {
	if maxChars > 0 && len(s) > maxChars {
		return s[:maxChars]
	}
	return s
}
