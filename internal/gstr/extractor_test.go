package gstr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/docintel/internal/document"
)

func table31() document.Table {
	return document.Table{
		ID:      "t1",
		Page:    2,
		Columns: []string{"Description", "Total Taxable Value", "Integrated Tax", "Central Tax", "State Tax"},
		Rows: []map[string]string{
			{
				"Description":         "(a) Outward taxable supplies (other than zero rated)",
				"Total Taxable Value": "9,51,381",
				"Integrated Tax":      "0",
				"Central Tax":         "85,624",
				"State Tax":           "85,624",
			},
		},
	}
}

func TestExtractSales(t *testing.T) {
	doc := &document.ParsedDocument{
		Text:   "Form GSTR-3B\nMonth: April\nYear: 2025-26\nGSTIN: 07AAAAA0000A1Z5",
		Tables: []document.Table{table31()},
	}

	records := New(nil).Extract(doc)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "April 2025", rec.Month, "first year of the range wins")
	require.NotNil(t, rec.Sales)
	assert.Equal(t, 951381.0, *rec.Sales)
	assert.Equal(t, "GSTR-3B Table 3.1 (Page 2)", rec.Source)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.Equal(t, StatusExtracted, rec.Status)
}

func TestExtractNoTable(t *testing.T) {
	doc := &document.ParsedDocument{
		Text: "Form GSTR-3B\nPeriod: May\nYear: 2025",
		Tables: []document.Table{{
			Columns: []string{"GSTIN", "Legal Name"},
			Rows:    []map[string]string{{"GSTIN": "07AAA", "Legal Name": "Acme"}},
		}},
	}

	records := New(nil).Extract(doc)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "May 2025", rec.Month)
	assert.Nil(t, rec.Sales)
	assert.Equal(t, "GSTR-3B Table 3.1 not found", rec.Source)
	assert.Zero(t, rec.Confidence)
	assert.Equal(t, StatusNotFound, rec.Status)
}

func TestExtractWeakSignature(t *testing.T) {
	doc := &document.ParsedDocument{
		Text: "Form GSTR-3B",
		Tables: []document.Table{{
			Page:    1,
			Columns: []string{"Nature of Supplies", "Value"},
			Rows: []map[string]string{
				{"Nature of Supplies": "3.1 Outward taxable supplies", "Value": "1,00,000.50"},
			},
		}},
	}

	records := New(nil).Extract(doc)
	require.Len(t, records, 1)

	rec := records[0]
	require.NotNil(t, rec.Sales)
	assert.Equal(t, 100000.50, *rec.Sales, "second column is the taxable value by layout convention")
	assert.Equal(t, StatusExtracted, rec.Status)
}

func TestExtractMonth(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "month and year fields", text: "Month: April\nYear: 2025", want: "April 2025"},
		{name: "period field", text: "Period - March\nFinancial Year: 2024-25", want: "March 2024"},
		{name: "bare date", text: "GSTR-3B return for June 2025 filing", want: "June 2025"},
		{name: "nothing", text: "no period anywhere", want: "Unknown Month"},
		{
			name: "header only",
			text: "line\nline\nline\nline\nline\nline\nline\nline\nline\nline\n" +
				"line\nline\nline\nline\nline\nline\nline\nline\nline\nline\n" +
				"Month: April\nYear: 2025",
			want: "Unknown Month",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMonth(tt.text))
		})
	}
}

func TestCleanCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{in: "9,51,381", want: 951381.0},
		{in: "₹1,234.56", want: 1234.56},
		{in: "Rs 500", want: 500.0},
		{in: "", want: 0.0},
		{in: "N/A", want: 0.0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCurrency(tt.in), "input %q", tt.in)
	}
}
