package crif

import "testing"

func TestPaymentHistoryDPD(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{"000", 0},
		{"STD", 0},
		{"000/STD", 0},
		{"030", 30},
		{"060", 60},
		{"090", 90},
		{"SUB", 90},
		{"120", 120},
		{"DBT", 120},
		{"150", 180},
		{"LSS", 180},
		{"180", 180},
		{"-", 0},
		{"045XYZ", 45},
		{"9223372036854775808", 0},
		{"99999999999999999999999999", 0},
		{"XXX", 0},
		{"", 0},
		{"  std  ", 0},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			got := PaymentHistory{Month: "Jan", Status: tt.status}.DPD()
			if got != tt.want {
				t.Errorf("DPD(%q) = %d, want %d", tt.status, got, tt.want)
			}
			if got < 0 {
				t.Errorf("DPD(%q) = %d, must be non-negative", tt.status, got)
			}
		})
	}
}

func TestWorstDPD(t *testing.T) {
	empty := Account{}
	if got := empty.WorstDPD(); got != 0 {
		t.Errorf("WorstDPD() over empty history = %d, want 0", got)
	}

	acc := Account{PaymentHistory: []PaymentHistory{
		{Month: "Jan", Status: "STD"},
		{Month: "Feb", Status: "090"},
		{Month: "Mar", Status: "DBT"},
	}}
	if got := acc.WorstDPD(); got != 120 {
		t.Errorf("WorstDPD() = %d, want 120", got)
	}
}

func TestRemarkFlags(t *testing.T) {
	acc := Account{Remarks: "Suit Filed against borrower; account under Settlement"}
	if !acc.HasSuitFiled() {
		t.Error("HasSuitFiled() = false, want true")
	}
	if acc.HasWilfulDefault() {
		t.Error("HasWilfulDefault() = true, want false")
	}
	if !acc.HasSettlementWriteoff() {
		t.Error("HasSettlementWriteoff() = false, want true")
	}

	written := Account{Remarks: "Written Off on 2023-01-01"}
	if !written.HasSettlementWriteoff() {
		t.Error("HasSettlementWriteoff() should match write-off remarks")
	}
}

func TestReportQueries(t *testing.T) {
	report := Report{Accounts: []Account{
		{AccountType: "Personal Loan", IsActive: true, PaymentHistory: []PaymentHistory{{Month: "Jan", Status: "090"}}},
		{AccountType: "Gold Loan", IsActive: true},
		{AccountType: "Business Loan", IsActive: false, PaymentHistory: []PaymentHistory{{Month: "Jan", Status: "030"}}},
	}}

	if got := report.CountDPDAccounts(30); got != 2 {
		t.Errorf("CountDPDAccounts(30) = %d, want 2", got)
	}
	if got := report.CountDPDAccounts(90); got != 1 {
		t.Errorf("CountDPDAccounts(90) = %d, want 1", got)
	}
	if !report.HasLivePLBL() {
		t.Error("HasLivePLBL() = false, want true (active personal loan)")
	}
	if got := report.CountActiveLoansByType([]string{"gold"}); got != 1 {
		t.Errorf("CountActiveLoansByType(gold) = %d, want 1", got)
	}

	// Inactive business loan does not count as live.
	inactive := Report{Accounts: []Account{{AccountType: "Business Loan", IsActive: false}}}
	if inactive.HasLivePLBL() {
		t.Error("HasLivePLBL() = true for inactive account, want false")
	}
}
