package extraction

import (
	"github.com/fyrsmithlabs/docintel/internal/crif"
	"github.com/fyrsmithlabs/docintel/internal/document"
)

// SpecTable maps parameter id to its spec. Built once and passed
// explicitly; components never look specs up ambiently, so tests can
// substitute a smaller table.
type SpecTable map[string]*ParameterSpec

func nonNegativeInt(v any) bool {
	n, ok := v.(int)
	return ok && n >= 0
}

func nonNegativeFloat(v any) bool {
	f, ok := v.(float64)
	return ok && f >= 0
}

// DefaultSpecs returns the credit-bureau parameter registry.
func DefaultSpecs() SpecTable {
	specs := []*ParameterSpec{
		{
			ID:             "bureau_credit_score",
			Name:           "CIBIL Score",
			Description:    "Credit bureau score (300-900 range)",
			Type:           TypeInt,
			Category:       CategoryDirect,
			AllowedSources: []string{"Verification"},
			Validator: func(v any) bool {
				n, ok := v.(int)
				return ok && n >= 300 && n <= 900
			},
		},
		{
			ID:             "bureau_ntc_accepted",
			Name:           "NTC Accepted",
			Description:    "Whether No-Track-Case (NTC) applicants are acceptable",
			Type:           TypeBool,
			Category:       CategoryFlag,
			AllowedSources: []string{"Verification", "Account Remarks"},
		},
		{
			ID:          "bureau_overdue_threshold",
			Name:        "Overdue Threshold",
			Description: "Maximum allowable overdue amount",
			Type:        TypeNone,
			Category:    CategoryPolicy,
		},
		{
			ID:             "bureau_dpd_30",
			Name:           "30+ DPD",
			Description:    "Count of accounts with 30+ days past due",
			Type:           TypeInt,
			Category:       CategoryDerived,
			AllowedSources: []string{"Payment History"},
			Validator:      nonNegativeInt,
		},
		{
			ID:             "bureau_dpd_60",
			Name:           "60+ DPD",
			Description:    "Count of accounts with 60+ days past due",
			Type:           TypeInt,
			Category:       CategoryDerived,
			AllowedSources: []string{"Payment History"},
			Validator:      nonNegativeInt,
		},
		{
			ID:             "bureau_dpd_90",
			Name:           "90+ DPD",
			Description:    "Count of accounts with 90+ days past due",
			Type:           TypeInt,
			Category:       CategoryDerived,
			AllowedSources: []string{"Payment History"},
			Validator:      nonNegativeInt,
		},
		{
			ID:             "bureau_settlement_writeoff",
			Name:           "Settlement / Write-off",
			Description:    "Presence of settlement or write-off",
			Type:           TypeBool,
			Category:       CategoryFlag,
			AllowedSources: []string{"Account Remarks"},
		},
		{
			ID:             "bureau_no_live_pl_bl",
			Name:           "No Live PL/BL",
			Description:    "Check for no live Personal Loan or Business Loan",
			Type:           TypeBool,
			Category:       CategoryDerived,
			AllowedSources: []string{"Account Information"},
		},
		{
			ID:             "bureau_suit_filed",
			Name:           "Suit Filed",
			Description:    "Indicates whether any suit filed status exists",
			Type:           TypeBool,
			Category:       CategoryFlag,
			AllowedSources: []string{"Account Remarks"},
		},
		{
			ID:             "bureau_wilful_default",
			Name:           "Wilful Default",
			Description:    "Indicates wilful default status",
			Type:           TypeBool,
			Category:       CategoryFlag,
			AllowedSources: []string{"Account Remarks"},
		},
		{
			ID:             "bureau_written_off_debt_amount",
			Name:           "Written-off Debt Amount",
			Description:    "Total written-off debt exposure",
			Type:           TypeFloat,
			Category:       CategoryDirect,
			AllowedSources: []string{"Account Summary"},
			Validator:      nonNegativeFloat,
		},
		{
			ID:             "bureau_max_loans",
			Name:           "Max Loans",
			Description:    "Maximum number of loans in selected months",
			Type:           TypeInt,
			Category:       CategoryDirect,
			AllowedSources: []string{"Account Summary"},
			Validator:      nonNegativeInt,
		},
		{
			ID:          "bureau_loan_amount_threshold",
			Name:        "Loan Amount Threshold",
			Description: "Maximum cumulative loan amount exposure",
			Type:        TypeNone,
			Category:    CategoryPolicy,
		},
		{
			ID:             "bureau_credit_inquiries",
			Name:           "Credit Inquiries",
			Description:    "Number of bureau credit inquiries",
			Type:           TypeInt,
			Category:       CategoryDirect,
			AllowedSources: []string{"Additional Summary", "Inquiry"},
			Validator:      nonNegativeInt,
		},
		{
			ID:             "bureau_max_active_loans",
			Name:           "Max Active Loans",
			Description:    "Maximum active loans",
			Type:           TypeInt,
			Category:       CategoryDirect,
			AllowedSources: []string{"Account Summary"},
			Validator:      nonNegativeInt,
		},
	}

	table := make(SpecTable, len(specs))
	for _, s := range specs {
		table[s.ID] = s
	}
	return table
}

// directAccessor reads one direct parameter either from a recognized table
// or from the assembled report. Adding a direct parameter is a table edit.
type directAccessor struct {
	tableSource  string
	reportSource string
	fromTable    func(*document.Table) (any, bool)
	fromReport   func(*crif.Report) any
}

var directAccessors = map[string]directAccessor{
	"bureau_credit_score": {
		tableSource:  "Verification Table",
		reportSource: "Verification Table",
		fromTable: func(t *document.Table) (any, bool) {
			score, ok := crif.ScoreFromTable(t)
			if !ok {
				return nil, false
			}
			return score, true
		},
		fromReport: func(r *crif.Report) any {
			if r.BureauScore == nil {
				return nil
			}
			return *r.BureauScore
		},
	},
	"bureau_written_off_debt_amount": {
		tableSource:  "Account Summary Table",
		reportSource: "Account Summary Table",
		fromTable: func(t *document.Table) (any, bool) {
			summary, ok := crif.SummaryFromTable(t)
			if !ok {
				return nil, false
			}
			return summary.TotalWriteoffAmount, true
		},
		fromReport: func(r *crif.Report) any { return r.TotalWriteoffAmount },
	},
	"bureau_max_loans": {
		tableSource:  "Account Summary Table",
		reportSource: "Account Summary Table",
		fromTable: func(t *document.Table) (any, bool) {
			summary, ok := crif.SummaryFromTable(t)
			if !ok {
				return nil, false
			}
			return summary.TotalAccounts, true
		},
		fromReport: func(r *crif.Report) any { return r.TotalAccountsCount },
	},
	"bureau_max_active_loans": {
		tableSource:  "Account Summary Table",
		reportSource: "Account Summary Table",
		fromTable: func(t *document.Table) (any, bool) {
			summary, ok := crif.SummaryFromTable(t)
			if !ok {
				return nil, false
			}
			return summary.ActiveAccounts, true
		},
		fromReport: func(r *crif.Report) any { return r.ActiveAccountsCount },
	},
	"bureau_credit_inquiries": {
		tableSource:  "Inquiry Table",
		reportSource: "Inquiry Table",
		fromTable: func(t *document.Table) (any, bool) {
			count, ok := crif.InquiriesFromTable(t)
			if !ok {
				return nil, false
			}
			return count, true
		},
		fromReport: func(r *crif.Report) any { return r.CreditInquiriesCount },
	},
}

// flagPredicates maps flag parameter ids to account predicates. A nil
// predicate means the flag never matches and reports false.
var flagPredicates = map[string]func(*crif.Account) bool{
	"bureau_suit_filed":          (*crif.Account).HasSuitFiled,
	"bureau_wilful_default":      (*crif.Account).HasWilfulDefault,
	"bureau_settlement_writeoff": (*crif.Account).HasSettlementWriteoff,
	"bureau_ntc_accepted":        nil,
}

// derivedAccessors compute document-wide aggregates from the report.
var derivedAccessors = map[string]func(*crif.Report) any{
	"bureau_dpd_30":        func(r *crif.Report) any { return r.CountDPDAccounts(30) },
	"bureau_dpd_60":        func(r *crif.Report) any { return r.CountDPDAccounts(60) },
	"bureau_dpd_90":        func(r *crif.Report) any { return r.CountDPDAccounts(90) },
	"bureau_no_live_pl_bl": func(r *crif.Report) any { return !r.HasLivePLBL() },
}
