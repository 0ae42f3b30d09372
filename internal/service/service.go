// Package service wires the extraction pipeline end to end: parse cache,
// document conversion, bureau parameter extraction, sales extraction and
// response assembly.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/document"
	"github.com/fyrsmithlabs/docintel/internal/extraction"
	"github.com/fyrsmithlabs/docintel/internal/gstr"
	"github.com/fyrsmithlabs/docintel/internal/parsecache"
)

// ErrInvalidInput marks malformed requests: unreadable uploads or an
// empty parameter list.
var ErrInvalidInput = errors.New("invalid input")

// Response is the external envelope: one result per requested bureau
// parameter, the sales records, and the aggregate confidence.
type Response struct {
	BureauParameters       map[string]*extraction.Result `json:"bureau_parameters"`
	GSTSales               []gstr.SalesRecord            `json:"gst_sales"`
	OverallConfidenceScore float64                       `json:"overall_confidence_score"`
}

// Service is the pipeline façade.
type Service struct {
	converter document.Converter
	cache     *parsecache.Cache
	extractor *extraction.Extractor
	sales     *gstr.Extractor
	logger    *zap.Logger
}

// New assembles the façade. cache may be nil to run without caching.
func New(
	converter document.Converter,
	cache *parsecache.Cache,
	extractor *extraction.Extractor,
	sales *gstr.Extractor,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		converter: converter,
		cache:     cache,
		extractor: extractor,
		sales:     sales,
		logger:    logger,
	}
}

// ParseDocument converts raw bytes through the cache: identical bytes
// replay instantly regardless of filename. Cache failures only force a
// conversion, never an error.
func (s *Service) ParseDocument(ctx context.Context, data []byte, sourceName string) (*document.ParsedDocument, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty document %q", ErrInvalidInput, sourceName)
	}

	if s.cache != nil {
		if doc := s.cache.Get(data, sourceName); doc != nil {
			s.logger.Info("parse cache hit", zap.String("source", sourceName))
			return doc, nil
		}
	}

	doc, err := s.converter.Convert(ctx, data, sourceName)
	if err != nil {
		return nil, fmt.Errorf("converting %q: %w", sourceName, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(data, doc, sourceName); err != nil {
			s.logger.Warn("parse cache write failed",
				zap.String("source", sourceName),
				zap.Error(err))
		}
	}
	return doc, nil
}

// Extract runs the full pipeline over a bureau report and an optional
// GSTR-3B return, and assembles the response envelope. Only conversion and
// parameter-ingestion failures surface as errors; extraction failures
// degrade individual results.
func (s *Service) Extract(ctx context.Context, bureauData []byte, bureauName string, gstData []byte, gstName string, parameterIDs []string) (*Response, error) {
	if len(parameterIDs) == 0 {
		return nil, fmt.Errorf("%w: no parameters requested", ErrInvalidInput)
	}

	bureauDoc, err := s.ParseDocument(ctx, bureauData, bureauName)
	if err != nil {
		return nil, err
	}

	s.logger.Info("extracting bureau parameters",
		zap.String("source", bureauName),
		zap.Int("parameters", len(parameterIDs)))
	bureau := s.extractor.Extract(ctx, bureauDoc, parameterIDs)

	var sales []gstr.SalesRecord
	if len(gstData) > 0 {
		gstDoc, err := s.ParseDocument(ctx, gstData, gstName)
		if err != nil {
			return nil, err
		}
		s.logger.Info("extracting sales", zap.String("source", gstName))
		sales = s.sales.Extract(gstDoc)
	}

	return &Response{
		BureauParameters:       bureau,
		GSTSales:               sales,
		OverallConfidenceScore: OverallConfidence(bureau, sales),
	}, nil
}

// OverallConfidence is the arithmetic mean over every per-parameter and
// per-sales-row confidence strictly greater than 0, rounded to three
// decimals. Not-found entries are excluded from the denominator rather
// than averaged in as zeros; with no positive confidences the overall
// score is 0.
func OverallConfidence(bureau map[string]*extraction.Result, sales []gstr.SalesRecord) float64 {
	var sum float64
	var n int

	for _, res := range bureau {
		if res != nil && res.Confidence > 0 {
			sum += res.Confidence
			n++
		}
	}
	for _, rec := range sales {
		if rec.Confidence > 0 {
			sum += rec.Confidence
			n++
		}
	}

	if n == 0 {
		return 0.0
	}
	return math.Round(sum/float64(n)*1000) / 1000
}
