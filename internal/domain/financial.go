package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RecordType string

const (
	RecordTypeIncome  RecordType = "income"
	RecordTypeExpense RecordType = "expense"
)

func (t RecordType) IsValid() bool {
	return t == RecordTypeIncome || t == RecordTypeExpense
}

var incomeCategories = []string{
	"Donations",
	"Grants",
	"Fundraising Events",
	"Corporate Sponsorship",
	"Investments",
	"Other Income",
}

var expenseCategories = []string{
	"Food & Nutrition",
	"Education",
	"Healthcare",
	"Shelter & Utilities",
	"Clothing",
	"Staff Salaries",
	"Transportation",
	"Administrative",
	"Maintenance & Repairs",
	"Other Expenses",
}

// CategorySuggestions returns the suggested categories for a record type.
// Category stays free text; the list only feeds the admin form.
func CategorySuggestions(t RecordType) []string {
	var src []string
	switch t {
	case RecordTypeIncome:
		src = incomeCategories
	case RecordTypeExpense:
		src = expenseCategories
	default:
		return []string{}
	}
	out := make([]string, len(src))
	copy(out, src)
	return out
}

type FinancialRecord struct {
	ID          string          `json:"id"`
	Type        RecordType      `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description,omitempty"`
	ReceiptURL  string          `json:"receiptUrl,omitempty"`
	Notes       string          `json:"notes,omitempty"`
	RecordedBy  string          `json:"recordedBy,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Signed returns the record's effect on available funds.
func (r FinancialRecord) Signed() decimal.Decimal {
	if r.Type == RecordTypeExpense {
		return r.Amount.Neg()
	}
	return r.Amount
}

// LedgerTotals is the running aggregate kept next to the records.
type LedgerTotals struct {
	TotalIncome   decimal.Decimal `json:"totalIncome"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	RecordCount   int             `json:"recordCount"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (t LedgerTotals) Available() decimal.Decimal {
	return t.TotalIncome.Sub(t.TotalExpenses)
}

// Apply adds (sign=1) or removes (sign=-1) a record from the totals.
func (t LedgerTotals) Apply(r FinancialRecord, sign int) LedgerTotals {
	amt := r.Amount
	if sign < 0 {
		amt = amt.Neg()
	}
	switch r.Type {
	case RecordTypeIncome:
		t.TotalIncome = t.TotalIncome.Add(amt)
	case RecordTypeExpense:
		t.TotalExpenses = t.TotalExpenses.Add(amt)
	}
	t.RecordCount += sign
	return t
}

// SumRecords recomputes totals from scratch.
func SumRecords(records []FinancialRecord) LedgerTotals {
	var t LedgerTotals
	for _, r := range records {
		t = t.Apply(r, 1)
	}
	return t
}

type FinancialRecordFilter struct {
	Type     RecordType
	Category string
	Limit    int
}
