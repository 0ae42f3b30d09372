package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docintel/internal/config"
	"github.com/fyrsmithlabs/docintel/internal/document"
	"github.com/fyrsmithlabs/docintel/internal/extraction"
	"github.com/fyrsmithlabs/docintel/internal/gstr"
	"github.com/fyrsmithlabs/docintel/internal/parsecache"
)

// flatProvider embeds everything identically so every chunk ranks at
// similarity 1 and deterministic extraction always has a chunk to work on.
type flatProvider struct{}

func (flatProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (flatProvider) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

// countingConverter wraps JSONConverter and counts conversions, proving
// cache hits skip it.
type countingConverter struct {
	inner document.Converter
	calls int
}

func (c *countingConverter) Convert(ctx context.Context, data []byte, name string) (*document.ParsedDocument, error) {
	c.calls++
	return c.inner.Convert(ctx, data, name)
}

func newTestService(t *testing.T, converter document.Converter) *Service {
	t.Helper()
	cfg := config.Default()
	cache, err := parsecache.New(t.TempDir(), nil)
	require.NoError(t, err)
	extractor := extraction.New(
		extraction.DefaultSpecs(),
		flatProvider{},
		nil,
		nil,
		extraction.NewConfidenceModel(cfg.Confidence),
		cfg.Retrieval,
		nil,
	)
	return New(converter, cache, extractor, gstr.New(nil), nil)
}

func bureauJSON(t *testing.T) []byte {
	t.Helper()
	doc := document.ParsedDocument{
		Tables: []document.Table{{
			ID:      "t1",
			Columns: []string{"Requested Service", "Score"},
			Rows: []map[string]string{
				{"Requested Service": "CB SCORE", "Score": "627"},
			},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func gstJSON(t *testing.T) []byte {
	t.Helper()
	doc := document.ParsedDocument{
		Text: "Form GSTR-3B\nMonth: April\nYear: 2025",
		Tables: []document.Table{{
			Page:    1,
			Columns: []string{"Description", "Total Taxable Value", "Integrated Tax", "Central Tax"},
			Rows: []map[string]string{
				{
					"Description":         "(a) Outward taxable supplies",
					"Total Taxable Value": "9,51,381",
					"Integrated Tax":      "0",
					"Central Tax":         "0",
				},
			},
		}},
	}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func TestExtractEndToEnd(t *testing.T) {
	svc := newTestService(t, document.NewJSONConverter())

	resp, err := svc.Extract(context.Background(),
		bureauJSON(t), "crif.json",
		gstJSON(t), "gstr.json",
		[]string{"bureau_credit_score", "bureau_overdue_threshold"})
	require.NoError(t, err)

	score := resp.BureauParameters["bureau_credit_score"]
	require.NotNil(t, score)
	assert.Equal(t, extraction.StatusExtracted, score.Status)
	assert.Equal(t, 627, score.Value)

	policy := resp.BureauParameters["bureau_overdue_threshold"]
	require.NotNil(t, policy)
	assert.Equal(t, extraction.StatusNotApplicable, policy.Status)

	require.Len(t, resp.GSTSales, 1)
	require.NotNil(t, resp.GSTSales[0].Sales)
	assert.Equal(t, 951381.0, *resp.GSTSales[0].Sales)
	assert.Equal(t, "April 2025", resp.GSTSales[0].Month)

	// score 0.95 and sales 1.0 average; the zero-confidence policy row
	// is excluded from the denominator.
	assert.InDelta(t, 0.975, resp.OverallConfidenceScore, 1e-9)
}

func TestExtractNoParameters(t *testing.T) {
	svc := newTestService(t, document.NewJSONConverter())

	_, err := svc.Extract(context.Background(), bureauJSON(t), "crif.json", nil, "", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestExtractWithoutGST(t *testing.T) {
	svc := newTestService(t, document.NewJSONConverter())

	resp, err := svc.Extract(context.Background(),
		bureauJSON(t), "crif.json", nil, "", []string{"bureau_credit_score"})
	require.NoError(t, err)
	assert.Empty(t, resp.GSTSales)
	assert.InDelta(t, 0.95, resp.OverallConfidenceScore, 1e-9)
}

func TestParseDocumentCaches(t *testing.T) {
	converter := &countingConverter{inner: document.NewJSONConverter()}
	svc := newTestService(t, converter)

	data := bureauJSON(t)
	first, err := svc.ParseDocument(context.Background(), data, "crif.json")
	require.NoError(t, err)
	second, err := svc.ParseDocument(context.Background(), data, "renamed.json")
	require.NoError(t, err)

	assert.Equal(t, 1, converter.calls, "identical bytes replay from cache regardless of name")
	assert.Equal(t, first, second)
}

func TestParseDocumentEmptyInput(t *testing.T) {
	svc := newTestService(t, document.NewJSONConverter())

	_, err := svc.ParseDocument(context.Background(), nil, "empty.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestOverallConfidence(t *testing.T) {
	bureau := map[string]*extraction.Result{
		"a": {Confidence: 0.95},
		"b": {Confidence: 0.0},
		"c": {Confidence: 0.6},
	}
	sales := []gstr.SalesRecord{{Confidence: 1.0}, {Confidence: 0.0}}

	got := OverallConfidence(bureau, sales)
	assert.InDelta(t, 0.85, got, 1e-9, "(0.95+0.6+1.0)/3 rounded to 3 decimals")
}

func TestOverallConfidenceAllZero(t *testing.T) {
	bureau := map[string]*extraction.Result{"a": {Confidence: 0.0}}
	assert.Zero(t, OverallConfidence(bureau, nil))
	assert.Zero(t, OverallConfidence(nil, nil))
}
