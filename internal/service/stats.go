package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

const (
	dashboardCacheKey  = "stats:dashboard"
	recentDonationsLen = 5
	topSkillsLen       = 5
)

// StatsCache is the subset of the Redis cache the stats service uses.
type StatsCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// StatsInvalidator drops cached dashboard stats after a write they summarize.
type StatsInvalidator interface {
	InvalidateDashboard(ctx context.Context)
}

type statsService struct {
	donations  repository.DonationRepository
	issues     repository.IssueRepository
	volunteers repository.VolunteerRepository
	orphanages repository.OrphanageRepository
	inquiries  repository.InquiryRepository
	records    repository.FinancialRecordRepository
	cache      StatsCache
	ttl        time.Duration
}

func NewStatsService(
	donations repository.DonationRepository,
	issues repository.IssueRepository,
	volunteers repository.VolunteerRepository,
	orphanages repository.OrphanageRepository,
	inquiries repository.InquiryRepository,
	records repository.FinancialRecordRepository,
	cache StatsCache,
	ttl time.Duration,
) StatsService {
	return &statsService{
		donations:  donations,
		issues:     issues,
		volunteers: volunteers,
		orphanages: orphanages,
		inquiries:  inquiries,
		records:    records,
		cache:      cache,
		ttl:        ttl,
	}
}

// DashboardStats never fails: a sub-resource that cannot be fetched is
// reported with zeroed stats and the others are unaffected. Such a partial
// result is not cached.
func (s *statsService) DashboardStats(ctx context.Context) (*domain.DashboardStats, error) {
	logger.EnterMethod("statsService.DashboardStats")

	if s.cache != nil {
		var cached domain.DashboardStats
		found, err := s.cache.GetJSON(ctx, dashboardCacheKey, &cached)
		if err != nil {
			logger.Warn("Stats cache read failed", "error", err)
		} else if found {
			logger.ExitMethod("statsService.DashboardStats", "cached", true)
			return &cached, nil
		}
	}

	out := &domain.DashboardStats{
		Donations:       ComputeDonationStats(nil),
		Issues:          ComputeIssueStats(nil),
		Volunteers:      ComputeVolunteerStats(nil),
		Orphanages:      ComputeOrphanageStats(nil),
		Inquiries:       ComputeInquiryStats(nil),
		RecentDonations: []domain.Donation{},
	}

	degraded := false
	if donations, err := s.donations.List(ctx, domain.DonationFilter{}); err != nil {
		degraded = true
		logger.Error("Failed to fetch donations for stats", "error", err)
	} else {
		out.Donations = ComputeDonationStats(donations)
		n := min(recentDonationsLen, len(donations))
		out.RecentDonations = append(out.RecentDonations, donations[:n]...)
	}

	if issues, err := s.issues.List(ctx, domain.IssueFilter{}); err != nil {
		degraded = true
		logger.Error("Failed to fetch issues for stats", "error", err)
	} else {
		out.Issues = ComputeIssueStats(issues)
	}

	if volunteers, err := s.volunteers.List(ctx, domain.VolunteerFilter{}); err != nil {
		degraded = true
		logger.Error("Failed to fetch volunteers for stats", "error", err)
	} else {
		out.Volunteers = ComputeVolunteerStats(volunteers)
	}

	if orphanages, err := s.orphanages.List(ctx, domain.OrphanageFilter{}); err != nil {
		degraded = true
		logger.Error("Failed to fetch orphanages for stats", "error", err)
	} else {
		out.Orphanages = ComputeOrphanageStats(orphanages)
	}

	if inquiries, err := s.inquiries.List(ctx, domain.InquiryFilter{}); err != nil {
		degraded = true
		logger.Error("Failed to fetch inquiries for stats", "error", err)
	} else {
		out.Inquiries = ComputeInquiryStats(inquiries)
	}

	if s.cache != nil && s.ttl > 0 && !degraded {
		if err := s.cache.SetJSON(ctx, dashboardCacheKey, out, s.ttl); err != nil {
			logger.Warn("Stats cache write failed", "error", err)
		}
	}

	logger.ExitMethod("statsService.DashboardStats", "cached", false, "degraded", degraded)
	return out, nil
}

func (s *statsService) InvalidateDashboard(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardCacheKey); err != nil {
		logger.Warn("Stats cache invalidation failed", "error", err)
	}
}

// FinancialStats returns zeroed stats when the records cannot be fetched.
func (s *statsService) FinancialStats(ctx context.Context) (*domain.FinancialStats, error) {
	records, err := s.records.List(ctx, domain.FinancialRecordFilter{})
	if err != nil {
		logger.Error("Failed to fetch financial records for stats", "error", err)
		records = nil
	}
	stats := ComputeFinancialStats(records)
	return &stats, nil
}

func ComputeDonationStats(donations []domain.Donation) domain.DonationStats {
	st := domain.DonationStats{
		TotalRaised:   map[string]decimal.Decimal{},
		AverageAmount: map[string]decimal.Decimal{},
	}
	perCurrency := map[string]int64{}
	donors := map[string]struct{}{}

	for _, d := range donations {
		st.TotalCount++
		switch d.Status {
		case domain.DonationStatusCompleted:
			st.CompletedCount++
			st.TotalRaised[d.Currency] = st.TotalRaised[d.Currency].Add(d.Amount)
			perCurrency[d.Currency]++
			if d.IsAnonymous {
				st.AnonymousCount++
			}
			if email := strings.ToLower(strings.TrimSpace(d.DonorEmail)); email != "" {
				donors[email] = struct{}{}
			}
		case domain.DonationStatusPending:
			st.PendingCount++
		case domain.DonationStatusFailed:
			st.FailedCount++
		}
	}

	for cur, n := range perCurrency {
		st.AverageAmount[cur] = st.TotalRaised[cur].Div(decimal.NewFromInt(n)).Round(2)
	}
	st.UniqueDonors = len(donors)
	st.SuccessRate = percent(st.CompletedCount, st.TotalCount)
	return st
}

func ComputeIssueStats(issues []domain.Issue) domain.IssueStats {
	st := domain.IssueStats{
		ByStatus:       map[string]int{},
		ByCategory:     map[string]int{},
		ByPriority:     map[string]int{},
		TotalEstimated: map[string]decimal.Decimal{},
		TotalRaised:    map[string]decimal.Decimal{},
	}
	var progressSum float64
	var costed int

	for _, i := range issues {
		st.TotalCount++
		st.ByStatus[string(i.Status)]++
		st.ByCategory[string(i.Category)]++
		st.ByPriority[string(i.Priority)]++
		st.TotalEstimated[i.Currency] = st.TotalEstimated[i.Currency].Add(i.EstimatedCost)
		st.TotalRaised[i.Currency] = st.TotalRaised[i.Currency].Add(i.RaisedAmount)
		if i.EstimatedCost.IsPositive() {
			progressSum += i.FundingProgress()
			costed++
		}
	}
	if costed > 0 {
		st.FundedPercent = round2(progressSum / float64(costed))
	}
	return st
}

func ComputeVolunteerStats(volunteers []domain.Volunteer) domain.VolunteerStats {
	st := domain.VolunteerStats{
		ByStatus:  map[string]int{},
		TopSkills: []domain.SkillCount{},
	}
	skills := map[string]int{}

	for _, v := range volunteers {
		st.TotalCount++
		st.ByStatus[string(v.Status)]++
		if v.OrphanageID != "" {
			st.AssignedCount++
		}
		seen := map[string]bool{}
		for _, sk := range v.Skills {
			sk = strings.ToLower(strings.TrimSpace(sk))
			if sk == "" || seen[sk] {
				continue
			}
			seen[sk] = true
			skills[sk]++
		}
	}

	for sk, n := range skills {
		st.TopSkills = append(st.TopSkills, domain.SkillCount{Skill: sk, Count: n})
	}
	sort.Slice(st.TopSkills, func(a, b int) bool {
		if st.TopSkills[a].Count != st.TopSkills[b].Count {
			return st.TopSkills[a].Count > st.TopSkills[b].Count
		}
		return st.TopSkills[a].Skill < st.TopSkills[b].Skill
	})
	if len(st.TopSkills) > topSkillsLen {
		st.TopSkills = st.TopSkills[:topSkillsLen]
	}
	return st
}

func ComputeOrphanageStats(orphanages []domain.Orphanage) domain.OrphanageStats {
	var st domain.OrphanageStats
	for _, o := range orphanages {
		st.TotalCount++
		if o.IsVerified {
			st.VerifiedCount++
		}
		st.TotalCapacity += o.Capacity
		st.TotalChildren += o.ChildrenCount
	}
	if st.TotalCapacity > 0 {
		st.OccupancyRatio = round2(float64(st.TotalChildren) / float64(st.TotalCapacity) * 100)
	}
	return st
}

func ComputeInquiryStats(inquiries []domain.ContactInquiry) domain.InquiryStats {
	st := domain.InquiryStats{
		ByStatus: map[string]int{},
		ByType:   map[string]int{},
	}
	for _, q := range inquiries {
		st.TotalCount++
		status, ok := domain.ParseInquiryStatus(string(q.Status))
		if !ok {
			status = q.Status
		}
		st.ByStatus[string(status)]++
		if status == domain.InquiryStatusNew {
			st.UnreadCount++
		}
		typ := q.InquiryType
		if typ == "" {
			typ = domain.InquiryTypeGeneral
		}
		st.ByType[string(typ)]++
	}
	return st
}

func ComputeFinancialStats(records []domain.FinancialRecord) domain.FinancialStats {
	st := domain.FinancialStats{
		IncomeByCategory:   map[string]decimal.Decimal{},
		ExpensesByCategory: map[string]decimal.Decimal{},
		Monthly:            []domain.MonthlyTotal{},
	}
	months := map[string]*domain.MonthlyTotal{}

	for _, r := range records {
		st.RecordCount++
		key := r.Date.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &domain.MonthlyTotal{Month: key}
			months[key] = m
		}
		switch r.Type {
		case domain.RecordTypeIncome:
			st.TotalIncome = st.TotalIncome.Add(r.Amount)
			st.IncomeByCategory[r.Category] = st.IncomeByCategory[r.Category].Add(r.Amount)
			m.Income = m.Income.Add(r.Amount)
		case domain.RecordTypeExpense:
			st.TotalExpenses = st.TotalExpenses.Add(r.Amount)
			st.ExpensesByCategory[r.Category] = st.ExpensesByCategory[r.Category].Add(r.Amount)
			m.Expenses = m.Expenses.Add(r.Amount)
		}
	}

	st.Balance = st.TotalIncome.Sub(st.TotalExpenses)
	if st.TotalIncome.IsPositive() {
		ratio, _ := st.TotalExpenses.Div(st.TotalIncome).Mul(hundred).Round(2).Float64()
		st.ExpenseRatio = ratio
	}
	for _, m := range months {
		st.Monthly = append(st.Monthly, *m)
	}
	sort.Slice(st.Monthly, func(a, b int) bool { return st.Monthly[a].Month < st.Monthly[b].Month })
	return st
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(part) / float64(total) * 100)
}

func round2(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(2).Float64()
	return v
}
