package crif

import "strings"

// Report is the typed view of a CRIF credit-bureau report.
type Report struct {
	Accounts             []Account `json:"accounts"`
	BureauScore          *int      `json:"bureau_score"`
	TotalCurrentBalance  float64   `json:"total_current_balance"`
	TotalOverdueAmount   float64   `json:"total_overdue_amount"`
	ActiveAccountsCount  int       `json:"active_accounts_count"`
	TotalAccountsCount   int       `json:"total_accounts_count"`
	TotalWriteoffAmount  float64   `json:"total_writeoff_amount"`
	CreditInquiriesCount int       `json:"credit_inquiries_count"`
}

// CountDPDAccounts returns how many accounts have a worst DPD at or above
// the threshold.
func (r *Report) CountDPDAccounts(threshold int) int {
	count := 0
	for i := range r.Accounts {
		if r.Accounts[i].WorstDPD() >= threshold {
			count++
		}
	}
	return count
}

// HasLivePLBL reports whether any active account is a personal or business
// loan.
func (r *Report) HasLivePLBL() bool {
	for i := range r.Accounts {
		acc := &r.Accounts[i]
		if !acc.IsActive {
			continue
		}
		accType := strings.ToLower(acc.AccountType)
		if strings.Contains(accType, "personal loan") || strings.Contains(accType, "business loan") {
			return true
		}
	}
	return false
}

// CountActiveLoansByType counts active accounts whose type contains any of
// the given substrings (case-insensitive).
func (r *Report) CountActiveLoansByType(loanTypes []string) int {
	count := 0
	for i := range r.Accounts {
		acc := &r.Accounts[i]
		if !acc.IsActive {
			continue
		}
		accType := strings.ToLower(acc.AccountType)
		for _, lt := range loanTypes {
			if strings.Contains(accType, strings.ToLower(lt)) {
				count++
				break
			}
		}
	}
	return count
}

// FlagInAnyAccount evaluates check against every account and returns
// whether any matched plus the match count.
func (r *Report) FlagInAnyAccount(check func(*Account) bool) (bool, int) {
	matched := 0
	for i := range r.Accounts {
		if check(&r.Accounts[i]) {
			matched++
		}
	}
	return matched > 0, matched
}
