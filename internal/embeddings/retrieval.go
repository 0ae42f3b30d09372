package embeddings

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fyrsmithlabs/docintel/internal/document"
)

// ScoredChunk pairs a document chunk with its similarity to a query.
type ScoredChunk struct {
	Chunk *document.Chunk
	Score float64
}

// CosineSimilarity computes cosine similarity between two vectors.
// Zero-norm or mismatched vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// FindRelevantChunks ranks chunks against the query by cosine similarity,
// returning at most topK chunks scoring at or above threshold, best first.
// Ties keep input order.
//
// The query is embedded once. Candidate embeddings are computed lazily and
// cached on the chunk, so repeated calls over the same chunk list (one per
// parameter) embed each chunk at most once.
func FindRelevantChunks(ctx context.Context, provider Provider, query string, chunks []*document.Chunk, topK int, threshold float64) ([]ScoredChunk, error) {
	if len(chunks) == 0 {
		return nil, nil
	}

	queryVec, err := provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	var missing []*document.Chunk
	var missingTexts []string
	for _, chunk := range chunks {
		if chunk.Embedding == nil {
			missing = append(missing, chunk)
			missingTexts = append(missingTexts, chunk.Content)
		}
	}
	if len(missing) > 0 {
		vecs, err := provider.EmbedDocuments(ctx, missingTexts)
		if err != nil {
			return nil, fmt.Errorf("embedding chunks: %w", err)
		}
		if len(vecs) != len(missing) {
			return nil, fmt.Errorf("%w: got %d vectors for %d chunks", ErrEmbeddingFailed, len(vecs), len(missing))
		}
		for i, chunk := range missing {
			chunk.Embedding = vecs[i]
		}
	}

	scored := make([]ScoredChunk, len(chunks))
	for i, chunk := range chunks {
		scored[i] = ScoredChunk{
			Chunk: chunk,
			Score: CosineSimilarity(queryVec, chunk.Embedding),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	var result []ScoredChunk
	for _, sc := range scored {
		if len(result) >= topK {
			break
		}
		if sc.Score >= threshold {
			result = append(result, sc)
		}
	}
	return result, nil
}
