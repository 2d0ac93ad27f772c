package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/config"
	"foundation-backend/internal/jobs"
)

func TestNewScheduler_RegistersJobs(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		ExpireStaleDonations:        "0 */15 * * * *",
		ReconcileLedgerTotals:       "0 0 2 * * *",
		ReconcileIssueRaisedAmounts: "0 30 2 * * *",
	}}
	s, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 3)
}

func TestNewScheduler_BadSpec(t *testing.T) {
	cfg := &config.Config{Scheduler: config.SchedulerConfig{
		ExpireStaleDonations:        "every now and then",
		ReconcileLedgerTotals:       "0 0 2 * * *",
		ReconcileIssueRaisedAmounts: "0 30 2 * * *",
	}}
	_, err := NewScheduler(jobs.NewJobRunner(&jobs.Services{}, cfg, nil))
	assert.Error(t, err)
}
