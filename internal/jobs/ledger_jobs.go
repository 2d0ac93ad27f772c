package jobs

import (
	"context"
	"time"

	"foundation-backend/internal/logger"
)

// ReconcileLedgerTotals rebuilds the stored ledger totals from the records.
func (jr *JobRunner) ReconcileLedgerTotals() {
	jr.runWithRecovery("ReconcileLedgerTotals", 5*time.Minute, func(ctx context.Context) {
		before, readErr := jr.services.Ledger.GetTotals(ctx)
		if readErr != nil {
			logger.Warn("Failed to read stored ledger totals", "error", readErr)
		}

		totals, err := jr.services.Ledger.RecomputeTotals(ctx)
		if err != nil {
			logger.Error("Failed to recompute ledger totals", "error", err)
			return
		}

		if readErr == nil && (!before.TotalIncome.Equal(totals.TotalIncome) || !before.TotalExpenses.Equal(totals.TotalExpenses)) {
			logger.Warn("Ledger totals drifted and were corrected",
				"storedIncome", before.TotalIncome.String(), "income", totals.TotalIncome.String(),
				"storedExpenses", before.TotalExpenses.String(), "expenses", totals.TotalExpenses.String())
		}
		logger.Info("Ledger totals reconciled",
			"records", totals.RecordCount,
			"available", totals.Available().StringFixed(2))
	})
}

// ReconcileIssueRaisedAmounts repairs issue raised amounts that fell behind
// their completed donations.
func (jr *JobRunner) ReconcileIssueRaisedAmounts() {
	jr.runWithRecovery("ReconcileIssueRaisedAmounts", 5*time.Minute, func(ctx context.Context) {
		corrected, err := jr.services.Issues.ReconcileRaisedAmounts(ctx)
		if err != nil {
			logger.Error("Failed to reconcile issue raised amounts", "error", err)
			return
		}
		logger.Info("Issue raised amounts reconciled", "corrected", corrected)
	})
}
