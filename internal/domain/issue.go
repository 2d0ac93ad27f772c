package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type IssueStatus string

const (
	IssueStatusOpen       IssueStatus = "open"
	IssueStatusInProgress IssueStatus = "in-progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusClosed     IssueStatus = "closed"
)

func (s IssueStatus) IsValid() bool {
	switch s {
	case IssueStatusOpen, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// AcceptsDonations is false once an issue has been resolved or closed.
func (s IssueStatus) AcceptsDonations() bool {
	return s == IssueStatusOpen || s == IssueStatusInProgress
}

type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

func (p IssuePriority) IsValid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}

type IssueCategory string

const (
	IssueCategoryEducation      IssueCategory = "education"
	IssueCategoryHealthcare     IssueCategory = "healthcare"
	IssueCategoryFood           IssueCategory = "food"
	IssueCategoryShelter        IssueCategory = "shelter"
	IssueCategoryClothing       IssueCategory = "clothing"
	IssueCategoryInfrastructure IssueCategory = "infrastructure"
	IssueCategoryWater          IssueCategory = "water_sanitation"
	IssueCategoryOther          IssueCategory = "other"
)

func (c IssueCategory) IsValid() bool {
	switch c {
	case IssueCategoryEducation, IssueCategoryHealthcare, IssueCategoryFood, IssueCategoryShelter,
		IssueCategoryClothing, IssueCategoryInfrastructure, IssueCategoryWater, IssueCategoryOther:
		return true
	}
	return false
}

type Issue struct {
	ID            string          `json:"id"`
	OrphanageID   string          `json:"orphanageId"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Category      IssueCategory   `json:"category"`
	Priority      IssuePriority   `json:"priority"`
	Status        IssueStatus     `json:"status"`
	EstimatedCost decimal.Decimal `json:"estimatedCost"`
	RaisedAmount  decimal.Decimal `json:"raisedAmount"`
	Currency      string          `json:"currency"`
	Images        []string        `json:"images,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// FundingProgress returns raised/estimated as a percentage capped at 100.
func (i Issue) FundingProgress() float64 {
	if !i.EstimatedCost.IsPositive() {
		return 0
	}
	pct, _ := i.RaisedAmount.Div(i.EstimatedCost).Mul(decimal.NewFromInt(100)).Float64()
	if pct > 100 {
		return 100
	}
	return pct
}

type IssueFilter struct {
	OrphanageID string
	Status      IssueStatus
	Category    IssueCategory
	Priority    IssuePriority
	Limit       int
}
