package domain

import "github.com/shopspring/decimal"

type DonationStats struct {
	TotalCount     int                        `json:"totalCount"`
	CompletedCount int                        `json:"completedCount"`
	PendingCount   int                        `json:"pendingCount"`
	FailedCount    int                        `json:"failedCount"`
	SuccessRate    float64                    `json:"successRate"`
	TotalRaised    map[string]decimal.Decimal `json:"totalRaised"`
	AverageAmount  map[string]decimal.Decimal `json:"averageAmount"`
	AnonymousCount int                        `json:"anonymousCount"`
	UniqueDonors   int                        `json:"uniqueDonors"`
}

type IssueStats struct {
	TotalCount     int                        `json:"totalCount"`
	ByStatus       map[string]int             `json:"byStatus"`
	ByCategory     map[string]int             `json:"byCategory"`
	ByPriority     map[string]int             `json:"byPriority"`
	TotalEstimated map[string]decimal.Decimal `json:"totalEstimated"`
	TotalRaised    map[string]decimal.Decimal `json:"totalRaised"`
	FundedPercent  float64                    `json:"fundedPercent"`
}

type VolunteerStats struct {
	TotalCount    int            `json:"totalCount"`
	ByStatus      map[string]int `json:"byStatus"`
	AssignedCount int            `json:"assignedCount"`
	TopSkills     []SkillCount   `json:"topSkills"`
}

type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

type OrphanageStats struct {
	TotalCount     int     `json:"totalCount"`
	VerifiedCount  int     `json:"verifiedCount"`
	TotalCapacity  int     `json:"totalCapacity"`
	TotalChildren  int     `json:"totalChildren"`
	OccupancyRatio float64 `json:"occupancyRatio"`
}

type InquiryStats struct {
	TotalCount  int            `json:"totalCount"`
	ByStatus    map[string]int `json:"byStatus"`
	ByType      map[string]int `json:"byType"`
	UnreadCount int            `json:"unreadCount"`
}

type DashboardStats struct {
	Donations       DonationStats  `json:"donations"`
	Issues          IssueStats     `json:"issues"`
	Volunteers      VolunteerStats `json:"volunteers"`
	Orphanages      OrphanageStats `json:"orphanages"`
	Inquiries       InquiryStats   `json:"inquiries"`
	RecentDonations []Donation     `json:"recentDonations"`
}

type MonthlyTotal struct {
	Month    string          `json:"month"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

type FinancialStats struct {
	TotalIncome        decimal.Decimal            `json:"totalIncome"`
	TotalExpenses      decimal.Decimal            `json:"totalExpenses"`
	Balance            decimal.Decimal            `json:"balance"`
	ExpenseRatio       float64                    `json:"expenseRatio"`
	IncomeByCategory   map[string]decimal.Decimal `json:"incomeByCategory"`
	ExpensesByCategory map[string]decimal.Decimal `json:"expensesByCategory"`
	Monthly            []MonthlyTotal             `json:"monthly"`
	RecordCount        int                        `json:"recordCount"`
}
