package jobs

import (
	"context"
	"time"

	"foundation-backend/internal/logger"
)

// ExpireStaleDonations settles donations left pending longer than the
// configured expiry, asking the gateway for their final state first.
func (jr *JobRunner) ExpireStaleDonations() {
	jr.runWithRecovery("ExpireStaleDonations", 10*time.Minute, func(ctx context.Context) {
		cutoff := jr.now().UTC().Add(-jr.config.PendingDonationExpiry())

		result, err := jr.services.Donations.ExpireStaleDonations(ctx, cutoff)
		if err != nil {
			logger.Error("Failed to expire stale donations", "error", err)
			return
		}

		logger.Info("Stale donations processed",
			"cutoff", cutoff.Format(time.RFC3339),
			"checked", result.Checked,
			"completed", result.Completed,
			"failed", result.Failed,
			"errors", result.Errors,
		)
	})
}
