// Package extraction implements per-parameter value extraction from parsed
// financial documents. Embeddings decide where to look, deterministic
// parsing decides what to extract, and an LLM with domain knowledge is the
// last resort.
package extraction

import "context"

// Status is the outcome of one parameter extraction.
type Status string

const (
	// StatusExtracted means a value was successfully extracted.
	StatusExtracted Status = "extracted"

	// StatusNotFound means the document was searched but the value was
	// not found.
	StatusNotFound Status = "not_found"

	// StatusNotApplicable marks policy parameters that never live in
	// documents.
	StatusNotApplicable Status = "not_applicable"

	// StatusExtractionFailed means the parameter could not be processed.
	StatusExtractionFailed Status = "extraction_failed"
)

// Category drives the extraction strategy for a parameter.
type Category string

const (
	// CategoryDirect values are read from a single recognized table.
	CategoryDirect Category = "direct"

	// CategoryFlag values are boolean predicates over account remarks.
	CategoryFlag Category = "flag"

	// CategoryDerived values are aggregates computed over the whole
	// report.
	CategoryDerived Category = "derived"

	// CategoryPolicy values are external configuration, never document
	// content.
	CategoryPolicy Category = "policy"
)

// ValueType is the expected runtime type of an extracted value.
type ValueType string

const (
	TypeInt    ValueType = "int"
	TypeFloat  ValueType = "float"
	TypeBool   ValueType = "bool"
	TypeString ValueType = "string"
	TypeNone   ValueType = "none"
)

// Method tags how a value was obtained; it determines the base
// confidence weight.
type Method string

const (
	// MethodChunkScoped is deterministic extraction from the best
	// matching chunk.
	MethodChunkScoped Method = "chunk_scoped"

	// MethodFullReport is deterministic extraction over the whole
	// parsed report.
	MethodFullReport Method = "full_report"

	// MethodLLMAssisted is the LLM fallback grounded with domain
	// knowledge.
	MethodLLMAssisted Method = "llm_assisted"
)

// ParameterSpec describes one extractable parameter: what it is, what type
// it carries and how to tell a valid value from garbage.
type ParameterSpec struct {
	ID          string
	Name        string
	Description string
	Type        ValueType
	Category    Category

	// AllowedSources names the document sections the value may come
	// from; informational, used in prompts and provenance.
	AllowedSources []string

	// Validator is an optional domain predicate, called only on values
	// that already match Type.
	Validator func(any) bool
}

// Validate reports whether a value is acceptable for this spec. A nil
// value is valid only for policy parameters.
func (s *ParameterSpec) Validate(value any) bool {
	if value == nil {
		return s.Category == CategoryPolicy
	}
	if !typeMatches(value, s.Type) {
		return false
	}
	if s.Validator != nil && !s.Validator(value) {
		return false
	}
	return true
}

func typeMatches(value any, t ValueType) bool {
	switch t {
	case TypeInt:
		_, ok := value.(int)
		return ok
	case TypeFloat:
		_, ok := value.(float64)
		return ok
	case TypeBool:
		_, ok := value.(bool)
		return ok
	case TypeString:
		_, ok := value.(string)
		return ok
	default:
		return false
	}
}

// Result is the outcome of extracting one parameter. Field names are a
// stable external contract.
type Result struct {
	Value            any     `json:"value"`
	Source           string  `json:"source"`
	Confidence       float64 `json:"confidence"`
	Status           Status  `json:"status"`
	SimilarityScore  float64 `json:"similarity_score,omitempty"`
	ExtractionMethod Method  `json:"extraction_method,omitempty"`
	RAGContext       string  `json:"rag_context,omitempty"`
}

// KnowledgeRetriever is the optional domain knowledge capability. A no-op
// implementation stands in when RAG is disabled.
type KnowledgeRetriever interface {
	ContextForParameter(ctx context.Context, name, description string) string
	Ready() bool
}

// NoOpRetriever is a disabled knowledge retriever.
type NoOpRetriever struct{}

func (NoOpRetriever) ContextForParameter(context.Context, string, string) string { return "" }
func (NoOpRetriever) Ready() bool                                                { return false }

var _ KnowledgeRetriever = NoOpRetriever{}
