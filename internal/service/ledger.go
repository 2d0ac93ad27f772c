package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// RecordResult carries the saved record and, for large expenses, a warning
// to show next to the confirmation.
type RecordResult struct {
	Record  *domain.FinancialRecord `json:"record"`
	Warning string                  `json:"warning,omitempty"`
}

// CheckExpense applies the expense rule against the current totals. An
// expense larger than the available funds is rejected; one larger than
// warnRatio of the available funds is accepted with a warning.
func CheckExpense(totals domain.LedgerTotals, amount decimal.Decimal, warnRatio float64) (string, error) {
	available := totals.Available()
	if amount.GreaterThan(available) {
		return "", fmt.Errorf("%w: expense of %s exceeds remaining funds of %s",
			domain.ErrInsufficientFunds, amount.StringFixed(2), available.StringFixed(2))
	}
	if available.IsPositive() && amount.GreaterThan(available.Mul(decimal.NewFromFloat(warnRatio))) {
		pct := amount.Div(available).Mul(hundred).Round(0)
		return fmt.Sprintf("This expense uses %s%% of the remaining funds", pct.String()), nil
	}
	return "", nil
}

type ledgerService struct {
	records   repository.FinancialRecordRepository
	warnRatio float64
	currency  string
}

// NewLedgerService builds the ledger service. All records share one currency.
func NewLedgerService(records repository.FinancialRecordRepository, warnRatio float64, currency string) LedgerService {
	return &ledgerService{
		records:   records,
		warnRatio: warnRatio,
		currency:  strings.ToUpper(currency),
	}
}

func (s *ledgerService) validate(r *domain.FinancialRecord) error {
	r.Category = strings.TrimSpace(r.Category)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = s.currency
	}

	verr := &domain.ValidationError{}
	if !r.Type.IsValid() {
		verr.Add("type", "must be income or expense")
	}
	switch {
	case r.Category == "":
		verr.Add("category", "is required")
	case len(r.Category) > 100:
		verr.Add("category", "must be at most 100 characters")
	}
	switch {
	case !r.Amount.IsPositive():
		verr.Add("amount", "must be greater than zero")
	case !r.Amount.Equal(r.Amount.Round(2)):
		verr.Add("amount", "must have at most 2 decimal places")
	}
	if r.Date.IsZero() {
		verr.Add("date", "is required")
	}
	if r.Currency != s.currency {
		verr.Add("currency", fmt.Sprintf("ledger records must be in %s", s.currency))
	}
	if len(r.Description) > 1000 {
		verr.Add("description", "must be at most 1000 characters")
	}
	return verr.OrNil()
}

// guard returns a LedgerGuard for writing r. It refuses any write that would
// push available funds below zero and records the large-expense warning.
func (s *ledgerService) guard(r *domain.FinancialRecord, warning *string) repository.LedgerGuard {
	return func(current, next domain.LedgerTotals) error {
		if r != nil && r.Type == domain.RecordTypeExpense {
			// Funds available to this expense, with the expense itself excluded.
			base := domain.LedgerTotals{TotalIncome: next.Available().Add(r.Amount)}
			w, err := CheckExpense(base, r.Amount, s.warnRatio)
			if err != nil {
				return err
			}
			*warning = w
			return nil
		}
		if next.Available().IsNegative() && next.Available().LessThan(current.Available()) {
			return fmt.Errorf("%w: change would leave available funds at %s",
				domain.ErrInsufficientFunds, next.Available().StringFixed(2))
		}
		return nil
	}
}

func (s *ledgerService) CreateRecord(ctx context.Context, record *domain.FinancialRecord) (*RecordResult, error) {
	logger.EnterMethod("ledgerService.CreateRecord", "type", record.Type, "amount", record.Amount.String())

	if err := s.validate(record); err != nil {
		logger.ExitMethodWithError("ledgerService.CreateRecord", err)
		return nil, err
	}

	var warning string
	if err := s.records.CreateGuarded(ctx, record, s.guard(record, &warning)); err != nil {
		logger.ExitMethodWithError("ledgerService.CreateRecord", err)
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create financial record: %w", err)
	}
	if warning != "" {
		logger.Warn("Large expense recorded", "recordID", record.ID, "warning", warning)
	}

	logger.ExitMethod("ledgerService.CreateRecord", "recordID", record.ID)
	return &RecordResult{Record: record, Warning: warning}, nil
}

func (s *ledgerService) UpdateRecord(ctx context.Context, record *domain.FinancialRecord) (*RecordResult, error) {
	logger.EnterMethod("ledgerService.UpdateRecord", "recordID", record.ID)

	if err := s.validate(record); err != nil {
		logger.ExitMethodWithError("ledgerService.UpdateRecord", err, "recordID", record.ID)
		return nil, err
	}

	var warning string
	if err := s.records.UpdateWithTotals(ctx, record, s.guard(record, &warning)); err != nil {
		logger.ExitMethodWithError("ledgerService.UpdateRecord", err, "recordID", record.ID)
		if errors.Is(err, domain.ErrInsufficientFunds) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update financial record: %w", err)
	}

	updated, err := s.records.GetByID(ctx, record.ID)
	if err != nil {
		return nil, err
	}

	logger.ExitMethod("ledgerService.UpdateRecord", "recordID", record.ID)
	return &RecordResult{Record: updated, Warning: warning}, nil
}

func (s *ledgerService) DeleteRecord(ctx context.Context, id string) error {
	logger.EnterMethod("ledgerService.DeleteRecord", "recordID", id)

	var unused string
	if err := s.records.DeleteWithTotals(ctx, id, s.guard(nil, &unused)); err != nil {
		logger.ExitMethodWithError("ledgerService.DeleteRecord", err, "recordID", id)
		return err
	}

	logger.ExitMethod("ledgerService.DeleteRecord", "recordID", id)
	return nil
}

func (s *ledgerService) GetRecord(ctx context.Context, id string) (*domain.FinancialRecord, error) {
	return s.records.GetByID(ctx, id)
}

func (s *ledgerService) ListRecords(ctx context.Context, filter domain.FinancialRecordFilter) ([]domain.FinancialRecord, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.NewValidationError("type", "must be income or expense")
	}
	return s.records.List(ctx, filter)
}

func (s *ledgerService) CategorySuggestions(recordType domain.RecordType) []string {
	return domain.CategorySuggestions(recordType)
}

func (s *ledgerService) GetTotals(ctx context.Context) (domain.LedgerTotals, error) {
	return s.records.GetTotals(ctx)
}

// RecomputeTotals rebuilds the stored totals from every record and reports
// any drift it corrected.
func (s *ledgerService) RecomputeTotals(ctx context.Context) (domain.LedgerTotals, error) {
	logger.EnterMethod("ledgerService.RecomputeTotals")

	all, err := s.records.List(ctx, domain.FinancialRecordFilter{})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.RecomputeTotals", err)
		return domain.LedgerTotals{}, fmt.Errorf("failed to list financial records: %w", err)
	}
	computed := domain.SumRecords(all)
	computed.UpdatedAt = time.Now().UTC()

	stored, err := s.records.GetTotals(ctx)
	if err != nil {
		logger.Warn("Failed to read stored ledger totals", "error", err)
	} else if !stored.TotalIncome.Equal(computed.TotalIncome) ||
		!stored.TotalExpenses.Equal(computed.TotalExpenses) ||
		stored.RecordCount != computed.RecordCount {
		logger.Warn("Ledger totals drift corrected",
			"storedIncome", stored.TotalIncome.String(), "computedIncome", computed.TotalIncome.String(),
			"storedExpenses", stored.TotalExpenses.String(), "computedExpenses", computed.TotalExpenses.String(),
			"storedCount", stored.RecordCount, "computedCount", computed.RecordCount)
	}

	if err := s.records.SaveTotals(ctx, computed); err != nil {
		logger.ExitMethodWithError("ledgerService.RecomputeTotals", err)
		return domain.LedgerTotals{}, fmt.Errorf("failed to save ledger totals: %w", err)
	}

	logger.ExitMethod("ledgerService.RecomputeTotals", "records", computed.RecordCount)
	return computed, nil
}
