// Package rag provides retrieval over a curated domain knowledge base.
// The knowledge base feeds the LLM fallback with grounding context; it is
// optional, and extraction proceeds without it.
package rag

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/config"
	"github.com/fyrsmithlabs/docintel/internal/embeddings"
)

// KnowledgeChunk is one titled section of the knowledge document.
type KnowledgeChunk struct {
	Section    string
	Subsection string
	Title      string
	Text       string
}

// Match is a knowledge chunk scored against a query.
type Match struct {
	Title      string
	Text       string
	Similarity float64
}

// Retriever indexes the knowledge document in an embedded vector store and
// serves similarity queries. The index is built once by Initialize and is
// read-only afterwards, so concurrent readers are safe.
type Retriever struct {
	cfg        config.RAGConfig
	provider   embeddings.Provider
	logger     *zap.Logger
	collection *chromem.Collection
	ready      bool
}

// NewRetriever creates a retriever; call Initialize before use.
func NewRetriever(cfg config.RAGConfig, provider embeddings.Provider, logger *zap.Logger) *Retriever {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{cfg: cfg, provider: provider, logger: logger}
}

// Initialize loads and indexes the knowledge base. It returns false, never
// an error, when the source is missing or empty: RAG is an optional
// collaborator, not a hard dependency.
func (r *Retriever) Initialize(ctx context.Context) bool {
	content, err := os.ReadFile(r.cfg.KnowledgePath)
	if err != nil {
		r.logger.Warn("knowledge base not found",
			zap.String("path", r.cfg.KnowledgePath),
			zap.Error(err))
		return false
	}

	chunks := ParseKnowledgeBase(string(content))
	if len(chunks) == 0 {
		r.logger.Warn("no knowledge chunks found", zap.String("path", r.cfg.KnowledgePath))
		return false
	}

	embedFn := func(ctx context.Context, text string) ([]float32, error) {
		return r.provider.EmbedQuery(ctx, text)
	}

	db := chromem.NewDB()
	collection, err := db.CreateCollection("domain_knowledge", nil, embedFn)
	if err != nil {
		r.logger.Warn("failed to create knowledge collection", zap.Error(err))
		return false
	}

	docs := make([]chromem.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = chromem.Document{
			ID:       fmt.Sprintf("chunk-%d", i),
			Metadata: map[string]string{"title": chunk.Title},
			Content:  chunk.Text,
		}
	}
	if err := collection.AddDocuments(ctx, docs, 1); err != nil {
		r.logger.Warn("failed to index knowledge chunks", zap.Error(err))
		return false
	}

	r.collection = collection
	r.ready = true
	r.logger.Info("knowledge base initialized", zap.Int("chunks", len(chunks)))
	return true
}

// Ready reports whether the index is usable.
func (r *Retriever) Ready() bool {
	return r.ready
}

// RetrieveKnowledge returns the topK knowledge chunks most similar to the
// query, filtered to similarity at or above minSimilarity, best first.
func (r *Retriever) RetrieveKnowledge(ctx context.Context, query string, topK int, minSimilarity float64) []Match {
	if !r.ready {
		return nil
	}

	n := topK
	if count := r.collection.Count(); n > count {
		n = count
	}
	if n <= 0 {
		return nil
	}

	results, err := r.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		r.logger.Warn("knowledge retrieval failed", zap.Error(err))
		return nil
	}

	var matches []Match
	for _, res := range results {
		similarity := float64(res.Similarity)
		if similarity < minSimilarity {
			continue
		}
		matches = append(matches, Match{
			Title:      res.Metadata["title"],
			Text:       res.Content,
			Similarity: similarity,
		})
	}
	return matches
}

// ContextForParameter formats the knowledge chunks relevant to a parameter
// into a single context string for the LLM prompt. Returns an empty string
// when the index is uninitialized or nothing matches.
func (r *Retriever) ContextForParameter(ctx context.Context, name, description string) string {
	if !r.ready {
		return ""
	}

	query := fmt.Sprintf("%s: %s", name, description)
	matches := r.RetrieveKnowledge(ctx, query, r.cfg.TopK, r.cfg.MinSimilarity)
	if len(matches) == 0 {
		return ""
	}

	parts := []string{"Domain Knowledge Context:"}
	for _, m := range matches {
		text := m.Text
		if r.cfg.MaxChunkChars > 0 && len(text) > r.cfg.MaxChunkChars {
			text = text[:r.cfg.MaxChunkChars]
		}
		parts = append(parts, fmt.Sprintf("\n[%s] (similarity: %.2f)", m.Title, m.Similarity), text)
	}
	return strings.Join(parts, "\n")
}

// ParseKnowledgeBase splits markdown content into titled chunks at section
// ("## ") and subsection ("### ") boundaries, discarding empty chunks.
func ParseKnowledgeBase(content string) []KnowledgeChunk {
	var chunks []KnowledgeChunk
	var section, subsection string
	var current []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		current = current[:0]
		if text == "" {
			return
		}
		title := section
		if subsection != "" {
			title = section + " - " + subsection
		}
		chunks = append(chunks, KnowledgeChunk{
			Section:    section,
			Subsection: subsection,
			Title:      title,
			Text:       text,
		})
	}

	for _, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "## "):
			flush()
			section = strings.TrimSpace(strings.TrimPrefix(line, "## "))
			subsection = ""
		case strings.HasPrefix(line, "### "):
			flush()
			subsection = strings.TrimSpace(strings.TrimPrefix(line, "### "))
		default:
			current = append(current, line)
		}
	}
	flush()

	return chunks
}
