package extraction

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/config"
	"github.com/fyrsmithlabs/docintel/internal/crif"
	"github.com/fyrsmithlabs/docintel/internal/document"
	"github.com/fyrsmithlabs/docintel/internal/embeddings"
	"github.com/fyrsmithlabs/docintel/internal/llm"
)

// llmPromptChunkCap bounds how much chunk content goes into the fallback
// prompt.
const llmPromptChunkCap = 2000

// Extractor runs the per-parameter extraction pipeline: embedding-guided
// chunk selection, deterministic extraction with a full-report fallback,
// then an LLM grounded with domain knowledge as last resort.
type Extractor struct {
	specs      SpecTable
	provider   embeddings.Provider
	generator  llm.Client
	knowledge  KnowledgeRetriever
	confidence *ConfidenceModel
	retrieval  config.RetrievalConfig
	logger     *zap.Logger
}

// New creates an extractor. knowledge may be nil to disable RAG; generator
// may be nil to disable the LLM fallback.
func New(
	specs SpecTable,
	provider embeddings.Provider,
	generator llm.Client,
	knowledge KnowledgeRetriever,
	confidence *ConfidenceModel,
	retrieval config.RetrievalConfig,
	logger *zap.Logger,
) *Extractor {
	if knowledge == nil {
		knowledge = NoOpRetriever{}
	}
	if generator == nil {
		generator = llm.NoOpClient{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		specs:      specs,
		provider:   provider,
		generator:  generator,
		knowledge:  knowledge,
		confidence: confidence,
		retrieval:  retrieval,
		logger:     logger,
	}
}

// Extract runs the pipeline for each requested parameter id and returns
// one well-formed result per id. Component failures degrade the affected
// parameter, never the siblings.
func (e *Extractor) Extract(ctx context.Context, doc *document.ParsedDocument, parameterIDs []string) map[string]*Result {
	report := crif.ParseReport(doc)
	chunks := document.PrepareChunks(doc, e.retrieval.ChunkMaxChars)
	return e.ExtractFromReport(ctx, report, chunks, parameterIDs)
}

// ExtractFromReport extracts against a pre-parsed report and chunk list.
// Chunk embeddings are cached on the chunks and reused across parameters.
func (e *Extractor) ExtractFromReport(ctx context.Context, report *crif.Report, chunks []*document.Chunk, parameterIDs []string) map[string]*Result {
	results := make(map[string]*Result, len(parameterIDs))
	for _, id := range parameterIDs {
		results[id] = e.extractParameter(ctx, id, report, chunks)
	}
	return results
}

func (e *Extractor) extractParameter(ctx context.Context, id string, report *crif.Report, chunks []*document.Chunk) *Result {
	spec, ok := e.specs[id]
	if !ok {
		e.logger.Warn("no spec registered for parameter", zap.String("parameter", id))
		return &Result{
			Source: "Parameter spec not found",
			Status: StatusExtractionFailed,
		}
	}

	if spec.Category == CategoryPolicy {
		return &Result{
			Source: "Not applicable (policy parameter)",
			Status: StatusNotApplicable,
		}
	}

	query := fmt.Sprintf("%s: %s", spec.Name, spec.Description)
	ragContext := e.knowledge.ContextForParameter(ctx, spec.Name, spec.Description)

	scored, err := embeddings.FindRelevantChunks(ctx, e.provider, query, chunks, e.retrieval.TopK, e.retrieval.SimilarityThreshold)
	if err != nil {
		e.logger.Warn("chunk retrieval failed",
			zap.String("parameter", id),
			zap.Error(err))
		return &Result{
			Source:     "Chunk retrieval unavailable",
			Status:     StatusNotFound,
			RAGContext: ragContext,
		}
	}
	if len(scored) == 0 {
		return &Result{
			Source:     "No relevant sections found",
			Status:     StatusNotFound,
			RAGContext: ragContext,
		}
	}

	best := scored[0]
	similarity := best.Score

	value, source, method := e.extractDeterministic(spec, report, best.Chunk)

	if value == nil && ragContext != "" && e.generator.Available() {
		if result := e.extractWithLLM(ctx, spec, best.Chunk, ragContext, similarity); result != nil {
			return result
		}
	}

	if value == nil {
		return &Result{
			Source:          source,
			Status:          StatusNotFound,
			SimilarityScore: similarity,
			RAGContext:      ragContext,
		}
	}

	confidence := e.confidence.Score(spec, value, method)
	// Derived aggregates are document-wide; similarity locates nothing
	// for them, so it never boosts them.
	if spec.Category != CategoryDerived {
		confidence = clamp01(confidence * e.confidence.SimilarityBoost(similarity))
	}

	return &Result{
		Value:            value,
		Source:           source,
		Confidence:       confidence,
		Status:           StatusExtracted,
		SimilarityScore:  similarity,
		ExtractionMethod: method,
		RAGContext:       ragContext,
	}
}

// extractDeterministic tries chunk-scoped extraction first and falls back
// to the full report. Chunk-local extraction is an optimization, never a
// requirement.
func (e *Extractor) extractDeterministic(spec *ParameterSpec, report *crif.Report, chunk *document.Chunk) (any, string, Method) {
	switch spec.Category {
	case CategoryDirect:
		return e.extractDirect(spec, report, chunk)
	case CategoryFlag:
		return e.extractFlag(spec, report, chunk)
	case CategoryDerived:
		return e.extractDerived(spec, report)
	default:
		return nil, "Unknown category", MethodFullReport
	}
}

func (e *Extractor) extractDirect(spec *ParameterSpec, report *crif.Report, chunk *document.Chunk) (any, string, Method) {
	accessor, ok := directAccessors[spec.ID]
	if !ok {
		return nil, "Unknown direct parameter", MethodFullReport
	}

	if chunk.Kind == document.ChunkTable && chunk.Table != nil {
		if value, ok := accessor.fromTable(chunk.Table); ok {
			source := fmt.Sprintf("%s (from %s)", accessor.tableSource, chunk.Source)
			return value, source, MethodChunkScoped
		}
	}

	return accessor.fromReport(report), accessor.reportSource, MethodFullReport
}

func (e *Extractor) extractFlag(spec *ParameterSpec, report *crif.Report, chunk *document.Chunk) (any, string, Method) {
	predicate, ok := flagPredicates[spec.ID]
	if !ok {
		return nil, "Unknown flag parameter", MethodFullReport
	}

	if predicate != nil && chunk.Kind == document.ChunkText && chunk.Text != nil {
		accounts := crif.ParseAccountBlocks(chunk.Text.Text)
		if len(accounts) > 0 {
			matched := 0
			for i := range accounts {
				if predicate(&accounts[i]) {
					matched++
				}
			}
			if matched > 0 {
				source := fmt.Sprintf("Account Remarks (%d/%d accounts in chunk)", matched, len(accounts))
				return true, source, MethodChunkScoped
			}
		}
	}

	var value bool
	var matched int
	if predicate != nil {
		value, matched = report.FlagInAnyAccount(predicate)
	}
	source := fmt.Sprintf("Account Remarks (%d/%d accounts)", matched, len(report.Accounts))
	return value, source, MethodFullReport
}

func (e *Extractor) extractDerived(spec *ParameterSpec, report *crif.Report) (any, string, Method) {
	accessor, ok := derivedAccessors[spec.ID]
	if !ok {
		return nil, "Unknown derived parameter", MethodFullReport
	}
	source := fmt.Sprintf("Computed from %d accounts", len(report.Accounts))
	return accessor(report), source, MethodFullReport
}

// extractWithLLM asks the generator for the value, grounded with domain
// knowledge and the best chunk's content. Returns nil when the call fails
// outright, letting the caller degrade to NotFound.
func (e *Extractor) extractWithLLM(ctx context.Context, spec *ParameterSpec, chunk *document.Chunk, ragContext string, similarity float64) *Result {
	content := chunk.Content
	if len(content) > llmPromptChunkCap {
		content = content[:llmPromptChunkCap]
	}

	prompt := fmt.Sprintf(`You are extracting structured data from a credit bureau report.

Domain Knowledge:
%s

Document Section:
%s

Extract the following parameter:
- Name: %s
- Description: %s
- Expected Type: %s

Instructions:
1. Use the domain knowledge above to understand what to look for
2. Extract the EXACT value from the document section
3. If the value is not found in this section, return exactly: NOT_FOUND
4. If the parameter is not applicable to this document, return exactly: NOT_APPLICABLE
5. Return ONLY the extracted value, nothing else (no explanations, no formatting)

Value:`, ragContext, content, spec.Name, spec.Description, spec.Type)

	response, err := e.generator.Generate(ctx, prompt, "")
	if err != nil {
		e.logger.Warn("LLM extraction failed",
			zap.String("parameter", spec.ID),
			zap.Error(err))
		return nil
	}

	answer := strings.TrimSpace(response)
	switch answer {
	case "", "NOT_FOUND":
		return &Result{
			Source:           chunk.Source,
			Status:           StatusNotFound,
			ExtractionMethod: MethodLLMAssisted,
			RAGContext:       ragContext,
		}
	case "NOT_APPLICABLE":
		return &Result{
			Source:           chunk.Source,
			Status:           StatusNotApplicable,
			ExtractionMethod: MethodLLMAssisted,
			RAGContext:       ragContext,
		}
	}

	value := coerceValue(answer, spec.Type)
	confidence := clamp01(e.confidence.Score(spec, value, MethodLLMAssisted) * e.confidence.SimilarityBoost(similarity))

	return &Result{
		Value:            value,
		Source:           chunk.Source,
		Confidence:       confidence,
		Status:           StatusExtracted,
		SimilarityScore:  similarity,
		ExtractionMethod: MethodLLMAssisted,
		RAGContext:       ragContext,
	}
}

// coerceValue converts the LLM's raw answer to the expected type. An
// unconvertible answer stays a string; validation then zeroes its
// confidence while the value remains visible.
func coerceValue(answer string, t ValueType) any {
	switch t {
	case TypeInt:
		cleaned := stripNumericJunk(answer)
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return int(f)
		}
	case TypeFloat:
		cleaned := stripNumericJunk(answer)
		if f, err := strconv.ParseFloat(cleaned, 64); err == nil {
			return f
		}
	case TypeBool:
		switch strings.ToLower(answer) {
		case "true", "yes", "1", "y":
			return true
		default:
			return false
		}
	}
	return answer
}

func stripNumericJunk(s string) string {
	return strings.NewReplacer(",", "", " ", "").Replace(s)
}
