package crif

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/docintel/internal/document"
)

// Summary holds the account summary totals of a CRIF report.
type Summary struct {
	TotalAccounts       int
	ActiveAccounts      int
	TotalCurrentBalance float64
	TotalOverdueAmount  float64
	TotalWriteoffAmount float64
}

const (
	minBureauScore = 300
	maxBureauScore = 900
)

// ParseReport scans the parsed document for the summary, score and inquiry
// tables and the "Account Information" text sections, and assembles the
// typed report. Missing pieces zero out rather than fail: a report with no
// recognizable tables is an empty report, not an error.
func ParseReport(doc *document.ParsedDocument) *Report {
	report := &Report{}

	for i := range doc.Tables {
		if summary, ok := SummaryFromTable(&doc.Tables[i]); ok {
			report.TotalAccountsCount = summary.TotalAccounts
			report.ActiveAccountsCount = summary.ActiveAccounts
			report.TotalCurrentBalance = summary.TotalCurrentBalance
			report.TotalOverdueAmount = summary.TotalOverdueAmount
			report.TotalWriteoffAmount = summary.TotalWriteoffAmount
			break
		}
	}

	for i := range doc.Tables {
		if score, ok := ScoreFromTable(&doc.Tables[i]); ok {
			report.BureauScore = &score
			break
		}
	}

	for i := range doc.Tables {
		if inquiries, ok := InquiriesFromTable(&doc.Tables[i]); ok {
			report.CreditInquiriesCount = inquiries
			break
		}
	}

	report.Accounts = ParseAccountsFromChunks(doc.Chunks)
	return report
}

func lowerColumns(t *document.Table) []string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = strings.ToLower(c)
	}
	return cols
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// rowValue looks up a cell by column name, case-insensitively.
func rowValue(row map[string]string, name string) string {
	if v, ok := row[name]; ok {
		return v
	}
	for k, v := range row {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// SummaryFromTable extracts summary totals if the table matches the
// account-summary signature (a total or active accounts column).
func SummaryFromTable(t *document.Table) (Summary, bool) {
	cols := lowerColumns(t)
	if !hasColumn(cols, "number of accounts") && !hasColumn(cols, "active accounts") {
		return Summary{}, false
	}
	if len(t.Rows) == 0 {
		return Summary{}, true
	}

	row := t.Rows[0]
	return Summary{
		TotalAccounts:       int(CleanNumber(rowValue(row, "Number of Accounts"))),
		ActiveAccounts:      int(CleanNumber(rowValue(row, "Active Accounts"))),
		TotalCurrentBalance: CleanNumber(rowValue(row, "Total Current Balance")),
		TotalOverdueAmount:  CleanNumber(rowValue(row, "Total Amount Overdue")),
		TotalWriteoffAmount: CleanNumber(rowValue(row, "Total Writeoff Amt")),
	}, true
}

// ScoreFromTable extracts the bureau score if the table matches the score
// signature (a requested-service and score column pair). Scores outside
// [300,900] are treated as not found rather than a parse error.
func ScoreFromTable(t *document.Table) (int, bool) {
	cols := lowerColumns(t)
	if !hasColumn(cols, "requested service") || !hasColumn(cols, "score") {
		return 0, false
	}

	for _, row := range t.Rows {
		service := strings.ToUpper(rowValue(row, "Requested Service"))
		if !strings.Contains(service, "SCORE") {
			continue
		}
		raw := rowValue(row, "Score")
		if raw == "" {
			continue
		}
		score := int(CleanNumber(raw))
		if score >= minBureauScore && score <= maxBureauScore {
			return score, true
		}
	}
	return 0, false
}

// InquiriesFromTable extracts the credit inquiry count: an inquiry-shaped
// table counts one inquiry per row, while an explicit enquiry-count field
// is read directly.
func InquiriesFromTable(t *document.Table) (int, bool) {
	cols := lowerColumns(t)

	if hasColumn(cols, "enquiry purpose") || strings.Contains(strings.Join(cols, " "), "inquiry") {
		return len(t.Rows), true
	}

	if hasColumn(cols, "number of enquiries") {
		for _, row := range t.Rows {
			if raw := rowValue(row, "Number of Enquiries"); raw != "" {
				return int(CleanNumber(raw)), true
			}
		}
	}
	return 0, false
}

// ParseAccountsFromChunks parses one account per text section whose header
// starts with "Account Information".
func ParseAccountsFromChunks(chunks []document.TextChunk) []Account {
	var accounts []Account
	for i := range chunks {
		if !strings.HasPrefix(chunks[i].Header, "Account Information") {
			continue
		}
		if acc := ParseAccountText(chunks[i].Text); acc != nil {
			accounts = append(accounts, *acc)
		}
	}
	return accounts
}

// ParseAccountBlocks splits free text on "Account Number:" markers and
// parses each block. Used for chunk-scoped flag evaluation where a single
// text section may carry several accounts.
func ParseAccountBlocks(text string) []Account {
	parts := strings.Split(text, "Account Number:")
	if len(parts) <= 1 {
		if acc := ParseAccountText(text); acc != nil {
			return []Account{*acc}
		}
		return nil
	}

	var accounts []Account
	for _, block := range parts[1:] {
		if acc := ParseAccountText("Account Number:" + block); acc != nil {
			accounts = append(accounts, *acc)
		}
	}
	return accounts
}

var monthAbbrevs = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

var monthPatterns = func() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(monthAbbrevs))
	for i, month := range monthAbbrevs {
		patterns[i] = regexp.MustCompile(`(?i)` + month + `\s*[:\-]?\s*([A-Z0-9\-/]+)`)
	}
	return patterns
}()

// ParseAccountText parses a single account block by scanning lines for
// "Label: value" patterns, first match wins. A block yielding no account
// type is discarded (returns nil).
func ParseAccountText(text string) *Account {
	lines := strings.Split(text, "\n")

	accountType := extractField(lines, "Account Type")
	if accountType == "" {
		return nil
	}

	return &Account{
		AccountType:      accountType,
		IsActive:         strings.Contains(strings.ToLower(text), "active"),
		IsSecured:        strings.Contains(strings.ToLower(accountType), "secured"),
		CurrentBalance:   extractNumericField(lines, "Current Balance"),
		OverdueAmount:    extractNumericField(lines, "Overdue Amt"),
		SanctionedAmount: extractNumericField(lines, "Disbd Amt"),
		PaymentHistory:   extractPaymentHistory(text),
		Remarks:          extractField(lines, "Account Remarks"),
	}
}

func extractField(lines []string, fieldName string) string {
	for _, line := range lines {
		if !strings.Contains(line, fieldName) {
			continue
		}
		if _, value, ok := strings.Cut(line, ":"); ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func extractNumericField(lines []string, fieldName string) float64 {
	if raw := extractField(lines, fieldName); raw != "" {
		return CleanNumber(raw)
	}
	return 0.0
}

// extractPaymentHistory scans for each of the twelve month abbreviations
// followed by a status token, independently, across the whole block.
func extractPaymentHistory(text string) []PaymentHistory {
	var history []PaymentHistory
	for i, pattern := range monthPatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			history = append(history, PaymentHistory{
				Month:  monthAbbrevs[i],
				Status: strings.TrimSpace(m[1]),
			})
		}
	}
	return history
}

var currencyJunk = strings.NewReplacer(",", "", "₹", "", "Rs", "")

// CleanNumber strips thousands separators and currency symbols before float
// conversion. Unparsable values default to 0.0.
func CleanNumber(value string) float64 {
	cleaned := strings.TrimSpace(currencyJunk.Replace(value))
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0.0
	}
	return f
}
