package document

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
)

func newTestStore() *Store {
	return NewStore(docstore.NewMemoryStore())
}

func TestDonationRepository_CreateRoundTrip(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	d := &domain.Donation{
		DonorName:  "Ada",
		DonorEmail: "ada@example.com",
		Amount:     decimal.RequireFromString("2500.50"),
		Currency:   "NGN",
		Status:     domain.DonationStatusPending,
		Reference:  "FDN-1",
	}
	require.NoError(t, store.DonationRepository.Create(ctx, d))
	assert.NotEmpty(t, d.ID)
	assert.False(t, d.CreatedAt.IsZero())

	got, err := store.DonationRepository.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2500.50").Equal(got.Amount))
	assert.Equal(t, "NGN", got.Currency)
	assert.Equal(t, domain.DonationStatusPending, got.Status)

	byRef, err := store.DonationRepository.GetByReference(ctx, "FDN-1")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byRef.ID)

	_, err = store.DonationRepository.GetByReference(ctx, "FDN-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDonationRepository_TransitionStatus(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	d := &domain.Donation{DonorName: "Ada", Amount: decimal.NewFromInt(10), Currency: "USD", Status: domain.DonationStatusPending}
	require.NoError(t, store.DonationRepository.Create(ctx, d))

	t.Run("pending to failed", func(t *testing.T) {
		out, err := store.DonationRepository.TransitionStatus(ctx, d.ID, domain.DonationStatusPending, domain.DonationStatusFailed,
			func(d *domain.Donation) { d.FailureReason = "declined" })
		require.NoError(t, err)
		assert.Equal(t, domain.DonationStatusFailed, out.Status)
		assert.Equal(t, "declined", out.FailureReason)
	})

	t.Run("stale expected state is rejected", func(t *testing.T) {
		_, err := store.DonationRepository.TransitionStatus(ctx, d.ID, domain.DonationStatusPending, domain.DonationStatusCompleted, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		got, err := store.DonationRepository.GetByID(ctx, d.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DonationStatusFailed, got.Status)
	})

	t.Run("missing donation", func(t *testing.T) {
		_, err := store.DonationRepository.TransitionStatus(ctx, "nope", domain.DonationStatusPending, domain.DonationStatusFailed, nil)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDonationRepository_Complete(t *testing.T) {
	ctx := context.Background()
	paidAt := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)

	setup := func(t *testing.T, issueCurrency string) (*Store, *domain.Issue, *domain.Donation) {
		store := newTestStore()
		issue := &domain.Issue{
			Title:         "Roof",
			Status:        domain.IssueStatusOpen,
			EstimatedCost: decimal.NewFromInt(1000),
			RaisedAmount:  decimal.NewFromInt(100),
			Currency:      issueCurrency,
		}
		require.NoError(t, store.IssueRepository.Create(ctx, issue))
		d := &domain.Donation{Amount: decimal.NewFromInt(250), Currency: "NGN", Status: domain.DonationStatusPending, IssueID: issue.ID}
		require.NoError(t, store.DonationRepository.Create(ctx, d))
		return store, issue, d
	}

	t.Run("credits issue in the same transaction", func(t *testing.T) {
		store, issue, d := setup(t, "NGN")

		out, err := store.DonationRepository.Complete(ctx, d.ID, paidAt)
		require.NoError(t, err)
		assert.Equal(t, domain.DonationStatusCompleted, out.Status)
		require.NotNil(t, out.PaidAt)
		assert.True(t, paidAt.Equal(*out.PaidAt))

		got, err := store.IssueRepository.GetByID(ctx, issue.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(350).Equal(got.RaisedAmount))
	})

	t.Run("second completion is rejected and does not double credit", func(t *testing.T) {
		store, issue, d := setup(t, "NGN")

		_, err := store.DonationRepository.Complete(ctx, d.ID, paidAt)
		require.NoError(t, err)
		_, err = store.DonationRepository.Complete(ctx, d.ID, paidAt)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		got, err := store.IssueRepository.GetByID(ctx, issue.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(350).Equal(got.RaisedAmount))
	})

	t.Run("currency mismatch leaves issue untouched", func(t *testing.T) {
		store, issue, d := setup(t, "USD")

		_, err := store.DonationRepository.Complete(ctx, d.ID, paidAt)
		require.NoError(t, err)

		got, err := store.IssueRepository.GetByID(ctx, issue.ID)
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(100).Equal(got.RaisedAmount))
	})

	t.Run("deleted issue does not block completion", func(t *testing.T) {
		store, issue, d := setup(t, "NGN")
		require.NoError(t, store.IssueRepository.Delete(ctx, issue.ID))

		out, err := store.DonationRepository.Complete(ctx, d.ID, paidAt)
		require.NoError(t, err)
		assert.Equal(t, domain.DonationStatusCompleted, out.Status)
	})
}

func TestDonationRepository_List(t *testing.T) {
	store := newTestStore()
	ctx := context.Background()

	for _, st := range []domain.DonationStatus{domain.DonationStatusPending, domain.DonationStatusCompleted, domain.DonationStatusCompleted} {
		require.NoError(t, store.DonationRepository.Create(ctx, &domain.Donation{Amount: decimal.NewFromInt(1), Currency: "NGN", Status: st, IssueID: "i1"}))
	}

	all, err := store.DonationRepository.List(ctx, domain.DonationFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	completed, err := store.DonationRepository.List(ctx, domain.DonationFilter{Status: domain.DonationStatusCompleted, IssueID: "i1", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, completed, 1)

	require.NoError(t, store.DonationRepository.SetAuthorizationURL(ctx, all[0].ID, "https://checkout.example/abc"))
	got, err := store.DonationRepository.GetByID(ctx, all[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.example/abc", got.AuthorizationURL)
}
