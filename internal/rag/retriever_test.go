package rag

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docintel/internal/config"
)

const knowledgeDoc = `# Credit Bureau Knowledge

## Bureau Score

The CIBIL score ranges from 300 to 900 and reflects creditworthiness.

### Score Bands

Scores above 750 are considered prime.

## Days Past Due

DPD measures how late payments are, in days.
`

// stubProvider maps known texts to fixed vectors so similarity is
// deterministic without a live embedding endpoint.
type stubProvider struct{}

func (stubProvider) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "score"):
		return []float32{1, 0, 0}, nil
	case strings.Contains(lower, "dpd") || strings.Contains(lower, "past due"):
		return []float32{0, 1, 0}, nil
	default:
		return []float32{0, 0, 1}, nil
	}
}

func (s stubProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := s.EmbedQuery(ctx, t)
		out[i] = v
	}
	return out, nil
}

func writeKnowledge(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "domain_knowledge.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testConfig(path string) config.RAGConfig {
	return config.RAGConfig{
		Enabled:       true,
		KnowledgePath: path,
		TopK:          2,
		MinSimilarity: 0.5,
		MaxChunkChars: 500,
	}
}

func TestParseKnowledgeBase(t *testing.T) {
	chunks := ParseKnowledgeBase(knowledgeDoc)
	require.Len(t, chunks, 4)

	assert.Empty(t, chunks[0].Title, "preamble before the first section keeps an empty title")
	assert.Contains(t, chunks[0].Text, "Credit Bureau Knowledge")

	assert.Equal(t, "Bureau Score", chunks[1].Title)
	assert.Contains(t, chunks[1].Text, "CIBIL score")

	assert.Equal(t, "Bureau Score - Score Bands", chunks[2].Title)
	assert.Equal(t, "Days Past Due", chunks[3].Title)
}

func TestParseKnowledgeBaseDropsEmpty(t *testing.T) {
	chunks := ParseKnowledgeBase("## Empty Section\n\n## Filled\ncontent here\n")
	require.Len(t, chunks, 1)
	assert.Equal(t, "Filled", chunks[0].Title)
}

func TestInitializeMissingFile(t *testing.T) {
	r := NewRetriever(testConfig("/nonexistent/knowledge.md"), stubProvider{}, nil)
	assert.False(t, r.Initialize(context.Background()))
	assert.False(t, r.Ready())
}

func TestInitializeEmptyFile(t *testing.T) {
	path := writeKnowledge(t, "")
	r := NewRetriever(testConfig(path), stubProvider{}, nil)
	assert.False(t, r.Initialize(context.Background()))
}

func TestRetrieveKnowledge(t *testing.T) {
	path := writeKnowledge(t, knowledgeDoc)
	r := NewRetriever(testConfig(path), stubProvider{}, nil)
	require.True(t, r.Initialize(context.Background()))

	matches := r.RetrieveKnowledge(context.Background(), "bureau credit score", 2, 0.5)
	require.NotEmpty(t, matches)
	assert.Contains(t, matches[0].Title, "Bureau Score")
	assert.GreaterOrEqual(t, matches[0].Similarity, 0.5)
}

func TestContextForParameter(t *testing.T) {
	path := writeKnowledge(t, knowledgeDoc)
	r := NewRetriever(testConfig(path), stubProvider{}, nil)
	require.True(t, r.Initialize(context.Background()))

	ctx := r.ContextForParameter(context.Background(), "CIBIL Score", "Credit bureau score (300-900 range)")
	assert.Contains(t, ctx, "Domain Knowledge Context:")
	assert.Contains(t, ctx, "[Bureau Score]")
	assert.Contains(t, ctx, "similarity:")
}

func TestContextForParameterUninitialized(t *testing.T) {
	r := NewRetriever(testConfig("/nonexistent/knowledge.md"), stubProvider{}, nil)
	assert.Empty(t, r.ContextForParameter(context.Background(), "CIBIL Score", "score"))
}

func TestRetrieveKnowledgeNoMatches(t *testing.T) {
	path := writeKnowledge(t, knowledgeDoc)
	r := NewRetriever(testConfig(path), stubProvider{}, nil)
	require.True(t, r.Initialize(context.Background()))

	matches := r.RetrieveKnowledge(context.Background(), "completely unrelated topic", 2, 0.9)
	assert.Empty(t, matches)
}
