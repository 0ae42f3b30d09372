package extraction

import "github.com/fyrsmithlabs/docintel/internal/config"

// ConfidenceModel scores extraction results from hand-tuned constants.
// The constants are configuration, not invariants; callers swap them per
// deployment.
type ConfidenceModel struct {
	cfg config.ConfidenceConfig
}

// NewConfidenceModel creates a model from config.
func NewConfidenceModel(cfg config.ConfidenceConfig) *ConfidenceModel {
	return &ConfidenceModel{cfg: cfg}
}

// Score computes methodWeight × typeCertainty for a value, clamped to
// [0,1]. A value failing the parameter spec's validation scores exactly 0
// no matter
// how it was obtained.
func (m *ConfidenceModel) Score(spec *ParameterSpec, value any, method Method) float64 {
	if !spec.Validate(value) {
		return 0.0
	}

	var typeCertainty float64
	switch {
	case value == nil:
		typeCertainty = 0.0
	case typeMatches(value, spec.Type):
		typeCertainty = 1.0
	default:
		typeCertainty = 0.5
	}

	return clamp01(m.methodWeight(method) * typeCertainty)
}

// SimilarityBoost maps a similarity score to a confidence multiplier via
// the configured bands. Bands are sorted descending; the first band whose
// floor is met wins, and the last band is the floor for everything else.
// With no bands configured the boost is a neutral 0.5.
func (m *ConfidenceModel) SimilarityBoost(similarity float64) float64 {
	if len(m.cfg.SimilarityBoosts) == 0 {
		return 0.5
	}
	for _, band := range m.cfg.SimilarityBoosts {
		if similarity >= band.MinSimilarity {
			return band.Boost
		}
	}
	return m.cfg.SimilarityBoosts[len(m.cfg.SimilarityBoosts)-1].Boost
}

func (m *ConfidenceModel) methodWeight(method Method) float64 {
	switch method {
	case MethodChunkScoped:
		return m.cfg.MethodWeights.ChunkScoped
	case MethodFullReport:
		return m.cfg.MethodWeights.FullReport
	case MethodLLMAssisted:
		return m.cfg.MethodWeights.LLMAssisted
	default:
		return 0.5
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
