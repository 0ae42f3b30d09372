// Package gstr extracts monthly outward sales from GSTR-3B tax returns.
// The pipeline is a deterministic sibling of the bureau extraction: find
// the filing period in the header, find Table 3.1 by signature, read the
// taxable value cell.
package gstr

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/docintel/internal/document"
)

// Status values mirror the bureau extraction contract.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusNotFound  Status = "not_found"
)

// SalesRecord is one extracted filing-period sales figure. Sales is nil
// when Table 3.1 was not found.
type SalesRecord struct {
	Month      string   `json:"month"`
	Sales      *float64 `json:"sales"`
	Source     string   `json:"source"`
	Confidence float64  `json:"confidence"`
	Status     Status   `json:"status"`
}

// headerLines bounds the period search to the top of the document.
const headerLines = 20

var (
	monthFieldPattern = regexp.MustCompile(`(?i)(?:Month|Period)\s*[:\-]?\s*([A-Za-z]+)`)
	yearFieldPattern  = regexp.MustCompile(`(?i)(?:Year|Financial Year)\s*[:\-]?\s*(\d{4}(?:-\d{2,4})?)`)
	bareDatePattern   = regexp.MustCompile(`\b(January|February|March|April|May|June|July|August|September|October|November|December)\s*20\d{2}\b`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
	nonNumeric        = regexp.MustCompile(`[^\d.]`)
)

// Extractor pulls the single sales record out of a parsed GSTR-3B return.
type Extractor struct {
	logger *zap.Logger
}

// New creates a sales extractor.
func New(logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{logger: logger}
}

// Extract produces exactly one record: the filing period with its outward
// taxable sales on success, or a not-found record when no Table 3.1 shape
// exists in the document.
func (e *Extractor) Extract(doc *document.ParsedDocument) []SalesRecord {
	month := ExtractMonth(doc.Text)

	value, source, ok := e.extractSales(doc.Tables)
	if !ok {
		e.logger.Warn("GSTR-3B Table 3.1 not found")
		return []SalesRecord{{
			Month:      month,
			Source:     "GSTR-3B Table 3.1 not found",
			Confidence: 0.0,
			Status:     StatusNotFound,
		}}
	}

	return []SalesRecord{{
		Month:      month,
		Sales:      &value,
		Source:     source,
		Confidence: 1.0,
		Status:     StatusExtracted,
	}}
}

// ExtractMonth locates the filing period in the document header. It
// prefers explicit Month/Period and Year fields (using the first year of a
// financial-year range), then a bare "Month YYYY" token, then the literal
// "Unknown Month" sentinel.
func ExtractMonth(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > headerLines {
		lines = lines[:headerLines]
	}
	header := strings.Join(lines, "\n")

	monthMatch := monthFieldPattern.FindStringSubmatch(header)
	yearMatch := yearFieldPattern.FindStringSubmatch(header)
	if monthMatch != nil && yearMatch != nil {
		year := yearMatch[1]
		if idx := strings.Index(year, "-"); idx >= 0 {
			year = year[:idx]
		}
		return fmt.Sprintf("%s %s", monthMatch[1], year)
	}

	if date := bareDatePattern.FindString(header); date != "" {
		return date
	}

	return "Unknown Month"
}

// extractSales finds the first table matching the 3.1 signature and reads
// the outward taxable supplies cell.
func (e *Extractor) extractSales(tables []document.Table) (float64, string, bool) {
	for i := range tables {
		t := &tables[i]
		if !matchesTable31(t) {
			continue
		}

		value, ok := taxableValueFromTable(t)
		if !ok {
			continue
		}
		return value, fmt.Sprintf("GSTR-3B Table 3.1 (Page %d)", t.Page), true
	}
	return 0, "", false
}

// matchesTable31 applies the two-tier signature: a strong match requires
// both tax columns and a taxable column; a weak match is a substring scan
// over the flattened table text.
func matchesTable31(t *document.Table) bool {
	var hasIntegrated, hasCentral, hasTaxable bool
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "integrated") {
			hasIntegrated = true
		}
		if strings.Contains(lower, "central") {
			hasCentral = true
		}
		if strings.Contains(lower, "taxable") {
			hasTaxable = true
		}
	}
	if hasIntegrated && hasCentral && hasTaxable {
		return true
	}

	flat := whitespaceRun.ReplaceAllString(strings.ToLower(flattenTable(t)), " ")
	return strings.Contains(flat, "3.1") &&
		(strings.Contains(flat, "outward") || strings.Contains(flat, "supplies"))
}

func flattenTable(t *document.Table) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " "))
	for _, row := range t.Rows {
		for _, col := range t.Columns {
			b.WriteString(" ")
			b.WriteString(row[col])
		}
	}
	return b.String()
}

// taxableValueFromTable resolves the taxable-value column by name, falling
// back to the second column per the standard 3.1 layout, then reads the
// outward-taxable-supplies row.
func taxableValueFromTable(t *document.Table) (float64, bool) {
	taxableCol := ""
	for _, col := range t.Columns {
		lower := strings.ToLower(col)
		if strings.Contains(lower, "taxable") && strings.Contains(lower, "value") {
			taxableCol = col
			break
		}
	}
	if taxableCol == "" {
		if len(t.Columns) < 2 {
			return 0, false
		}
		taxableCol = t.Columns[1]
	}

	for _, row := range t.Rows {
		var parts []string
		for _, col := range t.Columns {
			parts = append(parts, row[col])
		}
		rowText := strings.ToLower(strings.Join(parts, " "))
		if strings.Contains(rowText, "(a)") || strings.Contains(rowText, "outward taxable supplies") {
			return CleanCurrency(row[taxableCol]), true
		}
	}
	return 0, false
}

// CleanCurrency strips every non-digit, non-dot character and parses the
// remainder; unparsable cells default to 0.0.
func CleanCurrency(val string) float64 {
	clean := nonNumeric.ReplaceAllString(val, "")
	if clean == "" {
		return 0.0
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0.0
	}
	return f
}
