package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type DonationStatus string

const (
	DonationStatusPending   DonationStatus = "pending"
	DonationStatusCompleted DonationStatus = "completed"
	DonationStatusFailed    DonationStatus = "failed"
)

func (s DonationStatus) IsValid() bool {
	switch s {
	case DonationStatusPending, DonationStatusCompleted, DonationStatusFailed:
		return true
	}
	return false
}

func (s DonationStatus) IsTerminal() bool {
	return s == DonationStatusCompleted || s == DonationStatusFailed
}

// CanTransitionTo reports whether the donation state machine allows s -> next.
// Only pending donations move, and only to a terminal state.
func (s DonationStatus) CanTransitionTo(next DonationStatus) bool {
	return s == DonationStatusPending && next.IsTerminal()
}

// SupportedCurrencies lists the currencies accepted by the intake form.
var SupportedCurrencies = []string{"NGN", "USD", "GBP", "EUR", "GHS", "KES", "ZAR"}

func IsSupportedCurrency(c string) bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

type Donation struct {
	ID               string          `json:"id"`
	DonorName        string          `json:"donorName"`
	DonorEmail       string          `json:"donorEmail"`
	DonorID          string          `json:"donorId,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Message          string          `json:"message,omitempty"`
	IsAnonymous      bool            `json:"isAnonymous"`
	IssueID          string          `json:"issueId,omitempty"`
	Status           DonationStatus  `json:"status"`
	Reference        string          `json:"reference"`
	AuthorizationURL string          `json:"authorizationUrl,omitempty"`
	PaidAt           *time.Time      `json:"paidAt,omitempty"`
	FailureReason    string          `json:"failureReason,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// PublicView strips donor identity from anonymous donations before they are
// shown on public pages.
func (d Donation) PublicView() Donation {
	out := d
	out.DonorEmail = ""
	out.DonorID = ""
	out.AuthorizationURL = ""
	if d.IsAnonymous {
		out.DonorName = "Anonymous"
	}
	return out
}

// DonationRequest is the donor form submitted from the help page.
type DonationRequest struct {
	DonorName   string          `json:"donorName" validate:"required,max=100"`
	DonorEmail  string          `json:"donorEmail" validate:"required,email"`
	DonorID     string          `json:"donorId,omitempty" validate:"omitempty,max=128"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency" validate:"required,len=3"`
	Message     string          `json:"message,omitempty" validate:"max=500"`
	IsAnonymous bool            `json:"isAnonymous"`
	IssueID     string          `json:"issueId,omitempty"`
}

type DonationFilter struct {
	Status  DonationStatus
	IssueID string
	DonorID string
	Limit   int
}
