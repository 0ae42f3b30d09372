// Package crif builds a typed credit-bureau report from the tables and
// text sections of a converted CRIF document.
package crif

import (
	"regexp"
	"strconv"
	"strings"
)

// PaymentHistory is one month's repayment status for an account.
type PaymentHistory struct {
	Month  string `json:"month"`
	Status string `json:"status"`
}

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// DPD maps the status code to days past due. The mapping is total: any
// unrecognized code falls back to its leading numeric prefix, defaulting
// to 0.
func (p PaymentHistory) DPD() int {
	status := strings.ToLower(strings.TrimSpace(p.Status))

	switch status {
	case "000", "std", "000/std":
		return 0
	case "030":
		return 30
	case "060":
		return 60
	case "090", "sub", "090/sub":
		return 90
	case "120", "dbt", "120/dbt":
		return 120
	case "150", "lss", "150/lss", "180":
		return 180
	case "-":
		return 0
	}

	if m := leadingDigits.FindString(status); m != "" {
		days, err := strconv.Atoi(m)
		if err != nil || days < 0 {
			// digit run too long to be a real day count
			return 0
		}
		return days
	}
	return 0
}

// Account is one credit account parsed from an "Account Information" block.
type Account struct {
	AccountNumber    string           `json:"account_number"`
	AccountType      string           `json:"account_type"`
	IsActive         bool             `json:"is_active"`
	IsSecured        bool             `json:"is_secured"`
	CurrentBalance   float64          `json:"current_balance"`
	OverdueAmount    float64          `json:"overdue_amount"`
	SanctionedAmount float64          `json:"sanctioned_amount"`
	PaymentHistory   []PaymentHistory `json:"payment_history"`
	Remarks          string           `json:"remarks"`
}

// WorstDPD returns the maximum DPD across the payment history, 0 when the
// history is empty.
func (a *Account) WorstDPD() int {
	worst := 0
	for _, ph := range a.PaymentHistory {
		if d := ph.DPD(); d > worst {
			worst = d
		}
	}
	return worst
}

// HasSuitFiled reports a "suit filed" marker in the account remarks.
func (a *Account) HasSuitFiled() bool {
	return strings.Contains(strings.ToLower(a.Remarks), "suit filed")
}

// HasWilfulDefault reports a "wilful default" marker in the account remarks.
func (a *Account) HasWilfulDefault() bool {
	return strings.Contains(strings.ToLower(a.Remarks), "wilful default")
}

// HasSettlementWriteoff reports a settlement or write-off marker in the
// account remarks.
func (a *Account) HasSettlementWriteoff() bool {
	remarks := strings.ToLower(a.Remarks)
	return strings.Contains(remarks, "settlement") || strings.Contains(remarks, "write")
}
