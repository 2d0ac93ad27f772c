package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/domain"
)

func TestStatsService_DashboardStats_PartialFailure(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()

	seedDonation(t, store, "D1", 1000, domain.DonationStatusCompleted, "")
	seedDonation(t, store, "D2", 500, domain.DonationStatusPending, "")
	require.NoError(t, store.OrphanageRepository.Create(ctx, &domain.Orphanage{
		Name: "Hope House", Location: domain.Location{City: "Lagos", Country: "Nigeria"},
		Capacity: 40, ChildrenCount: 30, IsVerified: true,
	}))

	issues := new(MockIssueRepo)
	issues.On("List", mock.Anything, domain.IssueFilter{}).Return(nil, errors.New("firestore unavailable"))

	svc := NewStatsService(store.DonationRepository, issues, store.VolunteerRepository,
		store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, nil, 0)

	stats, err := svc.DashboardStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Issues.TotalCount)
	assert.NotNil(t, stats.Issues.ByStatus)
	assert.Equal(t, 2, stats.Donations.TotalCount)
	assert.Equal(t, 1, stats.Donations.CompletedCount)
	assert.Equal(t, 50.0, stats.Donations.SuccessRate)
	assert.Equal(t, 1, stats.Orphanages.TotalCount)
	assert.Equal(t, 75.0, stats.Orphanages.OccupancyRatio)
	assert.Len(t, stats.RecentDonations, 2)
	issues.AssertExpectations(t)
}

func TestStatsService_DashboardStats_Cache(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()

	t.Run("hit skips the repositories", func(t *testing.T) {
		cache := new(MockStatsCache)
		issues := new(MockIssueRepo)
		cache.On("GetJSON", mock.Anything, "stats:dashboard", mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*domain.DashboardStats)
				dest.Donations.TotalCount = 42
			}).Return(true, nil).Once()

		svc := NewStatsService(store.DonationRepository, issues, store.VolunteerRepository,
			store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, cache, time.Minute)

		stats, err := svc.DashboardStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 42, stats.Donations.TotalCount)
		issues.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
		cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("miss computes and stores", func(t *testing.T) {
		cache := new(MockStatsCache)
		cache.On("GetJSON", mock.Anything, "stats:dashboard", mock.Anything).Return(false, nil).Once()
		cache.On("SetJSON", mock.Anything, "stats:dashboard", mock.AnythingOfType("*domain.DashboardStats"), time.Minute).Return(nil).Once()

		svc := NewStatsService(store.DonationRepository, store.IssueRepository, store.VolunteerRepository,
			store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, cache, time.Minute)

		_, err := svc.DashboardStats(ctx)
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("partial result is not stored", func(t *testing.T) {
		cache := new(MockStatsCache)
		issues := new(MockIssueRepo)
		cache.On("GetJSON", mock.Anything, "stats:dashboard", mock.Anything).Return(false, nil).Once()
		issues.On("List", mock.Anything, domain.IssueFilter{}).Return(nil, errors.New("firestore unavailable")).Once()

		svc := NewStatsService(store.DonationRepository, issues, store.VolunteerRepository,
			store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, cache, time.Minute)

		stats, err := svc.DashboardStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Issues.TotalCount)
		cache.AssertNotCalled(t, "SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		issues.AssertExpectations(t)
	})

	t.Run("invalidate drops the dashboard key", func(t *testing.T) {
		cache := new(MockStatsCache)
		cache.On("Delete", mock.Anything, []string{"stats:dashboard"}).Return(nil).Once()

		svc := NewStatsService(store.DonationRepository, store.IssueRepository, store.VolunteerRepository,
			store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, cache, time.Minute)

		svc.InvalidateDashboard(ctx)
		cache.AssertExpectations(t)
	})

	t.Run("cache errors are ignored", func(t *testing.T) {
		cache := new(MockStatsCache)
		cache.On("GetJSON", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
		cache.On("SetJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

		svc := NewStatsService(store.DonationRepository, store.IssueRepository, store.VolunteerRepository,
			store.OrphanageRepository, store.InquiryRepository, store.FinancialRecordRepository, cache, time.Minute)

		stats, err := svc.DashboardStats(ctx)
		require.NoError(t, err)
		assert.NotNil(t, stats)
	})
}

func TestComputeDonationStats(t *testing.T) {
	donations := []domain.Donation{
		{DonorEmail: "a@example.com", Amount: decimal.NewFromInt(100), Currency: "NGN", Status: domain.DonationStatusCompleted},
		{DonorEmail: "A@example.com", Amount: decimal.NewFromInt(200), Currency: "NGN", Status: domain.DonationStatusCompleted, IsAnonymous: true},
		{DonorEmail: "b@example.com", Amount: decimal.NewFromInt(50), Currency: "USD", Status: domain.DonationStatusCompleted},
		{DonorEmail: "c@example.com", Amount: decimal.NewFromInt(70), Currency: "NGN", Status: domain.DonationStatusFailed},
	}

	st := ComputeDonationStats(donations)
	assert.Equal(t, 4, st.TotalCount)
	assert.Equal(t, 3, st.CompletedCount)
	assert.Equal(t, 1, st.FailedCount)
	assert.Equal(t, 75.0, st.SuccessRate)
	assert.Equal(t, 1, st.AnonymousCount)
	assert.Equal(t, 2, st.UniqueDonors)
	assert.True(t, decimal.NewFromInt(300).Equal(st.TotalRaised["NGN"]))
	assert.True(t, decimal.NewFromInt(150).Equal(st.AverageAmount["NGN"]))
	assert.True(t, decimal.NewFromInt(50).Equal(st.TotalRaised["USD"]))

	empty := ComputeDonationStats(nil)
	assert.Zero(t, empty.SuccessRate)
	assert.NotNil(t, empty.TotalRaised)
}

func TestComputeIssueStats(t *testing.T) {
	issues := []domain.Issue{
		{Status: domain.IssueStatusOpen, Category: domain.IssueCategoryFood, Priority: domain.IssuePriorityHigh,
			EstimatedCost: decimal.NewFromInt(1000), RaisedAmount: decimal.NewFromInt(250), Currency: "NGN"},
		{Status: domain.IssueStatusResolved, Category: domain.IssueCategoryFood, Priority: domain.IssuePriorityLow,
			EstimatedCost: decimal.NewFromInt(100), RaisedAmount: decimal.NewFromInt(150), Currency: "NGN"},
		{Status: domain.IssueStatusOpen, Category: domain.IssueCategoryOther, Priority: domain.IssuePriorityLow, Currency: "NGN"},
	}

	st := ComputeIssueStats(issues)
	assert.Equal(t, 3, st.TotalCount)
	assert.Equal(t, 2, st.ByStatus["open"])
	assert.Equal(t, 2, st.ByCategory["food"])
	assert.Equal(t, 2, st.ByPriority["low"])
	assert.Equal(t, 62.5, st.FundedPercent)
	assert.True(t, decimal.NewFromInt(1100).Equal(st.TotalEstimated["NGN"]))
}

func TestComputeVolunteerStats(t *testing.T) {
	volunteers := []domain.Volunteer{
		{Status: domain.VolunteerStatusApproved, OrphanageID: "o1", Skills: []string{"Teaching", "teaching ", "Cooking"}},
		{Status: domain.VolunteerStatusPending, Skills: []string{"teaching", "Nursing"}},
		{Status: domain.VolunteerStatusApproved, Skills: []string{"cooking"}},
	}

	st := ComputeVolunteerStats(volunteers)
	assert.Equal(t, 3, st.TotalCount)
	assert.Equal(t, 2, st.ByStatus["approved"])
	assert.Equal(t, 1, st.AssignedCount)
	require.Len(t, st.TopSkills, 3)
	assert.Equal(t, domain.SkillCount{Skill: "cooking", Count: 2}, st.TopSkills[0])
	assert.Equal(t, domain.SkillCount{Skill: "teaching", Count: 2}, st.TopSkills[1])
	assert.Equal(t, domain.SkillCount{Skill: "nursing", Count: 1}, st.TopSkills[2])
}

func TestComputeInquiryStats(t *testing.T) {
	inquiries := []domain.ContactInquiry{
		{Status: domain.InquiryStatusNew, InquiryType: domain.InquiryTypeDonation},
		{Status: "in_progress"},
		{Status: "resolved", InquiryType: domain.InquiryTypeVolunteer},
		{Status: domain.InquiryStatusNew},
	}

	st := ComputeInquiryStats(inquiries)
	assert.Equal(t, 4, st.TotalCount)
	assert.Equal(t, 2, st.UnreadCount)
	assert.Equal(t, 1, st.ByStatus["replied"])
	assert.Equal(t, 1, st.ByStatus["closed"])
	assert.Equal(t, 2, st.ByType["general"])
}

func TestComputeFinancialStats(t *testing.T) {
	day := func(m time.Month, d int) time.Time { return time.Date(2026, m, d, 12, 0, 0, 0, time.UTC) }
	records := []domain.FinancialRecord{
		{Type: domain.RecordTypeIncome, Category: "Donations", Amount: decimal.NewFromInt(1000), Date: day(time.February, 3)},
		{Type: domain.RecordTypeExpense, Category: "Education", Amount: decimal.NewFromInt(250), Date: day(time.February, 10)},
		{Type: domain.RecordTypeIncome, Category: "Grants", Amount: decimal.NewFromInt(1000), Date: day(time.January, 20)},
		{Type: domain.RecordTypeExpense, Category: "Education", Amount: decimal.NewFromInt(250), Date: day(time.January, 21)},
	}

	st := ComputeFinancialStats(records)
	assert.True(t, decimal.NewFromInt(2000).Equal(st.TotalIncome))
	assert.True(t, decimal.NewFromInt(500).Equal(st.TotalExpenses))
	assert.True(t, decimal.NewFromInt(1500).Equal(st.Balance))
	assert.Equal(t, 25.0, st.ExpenseRatio)
	assert.True(t, decimal.NewFromInt(500).Equal(st.ExpensesByCategory["Education"]))
	require.Len(t, st.Monthly, 2)
	assert.Equal(t, "2026-01", st.Monthly[0].Month)
	assert.Equal(t, "2026-02", st.Monthly[1].Month)
	assert.Equal(t, 4, st.RecordCount)

	empty := ComputeFinancialStats(nil)
	assert.Zero(t, empty.ExpenseRatio)
	assert.NotNil(t, empty.Monthly)
}
