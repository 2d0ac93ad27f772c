package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/domain"
)

// LedgerGuard inspects the ledger totals before and after a pending write and
// returns an error to abort it.
type LedgerGuard func(current, next domain.LedgerTotals) error

type DonationRepository interface {
	Create(ctx context.Context, donation *domain.Donation) error
	GetByID(ctx context.Context, id string) (*domain.Donation, error)
	GetByReference(ctx context.Context, reference string) (*domain.Donation, error)
	List(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error)
	SetAuthorizationURL(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error

	// TransitionStatus moves the donation from -> to only if it is currently in
	// from. mutate may adjust other fields in the same write.
	TransitionStatus(ctx context.Context, id string, from, to domain.DonationStatus, mutate func(*domain.Donation)) (*domain.Donation, error)
	// Complete marks a pending donation completed and credits its target issue
	// in the same transaction.
	Complete(ctx context.Context, id string, paidAt time.Time) (*domain.Donation, error)
}

type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	// Update writes every editable field. Status and raisedAmount are left alone.
	Update(ctx context.Context, issue *domain.Issue) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus) (*domain.Issue, error)
	// RaiseAmountTo sets raisedAmount to amount when it is currently lower.
	RaiseAmountTo(ctx context.Context, id string, amount decimal.Decimal) (bool, error)
}

type OrphanageRepository interface {
	Create(ctx context.Context, orphanage *domain.Orphanage) error
	GetByID(ctx context.Context, id string) (*domain.Orphanage, error)
	Update(ctx context.Context, orphanage *domain.Orphanage) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.OrphanageFilter) ([]domain.Orphanage, error)
}

type VolunteerRepository interface {
	Create(ctx context.Context, volunteer *domain.Volunteer) error
	GetByID(ctx context.Context, id string) (*domain.Volunteer, error)
	// Update writes every field except status.
	Update(ctx context.Context, volunteer *domain.Volunteer) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.VolunteerFilter) ([]domain.Volunteer, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.VolunteerStatus, mutate func(*domain.Volunteer)) (*domain.Volunteer, error)
}

type FinancialRecordRepository interface {
	GetByID(ctx context.Context, id string) (*domain.FinancialRecord, error)
	List(ctx context.Context, filter domain.FinancialRecordFilter) ([]domain.FinancialRecord, error)

	// CreateGuarded inserts the record and updates the ledger totals atomically.
	CreateGuarded(ctx context.Context, record *domain.FinancialRecord, guard LedgerGuard) error
	UpdateWithTotals(ctx context.Context, record *domain.FinancialRecord, guard LedgerGuard) error
	DeleteWithTotals(ctx context.Context, id string, guard LedgerGuard) error

	GetTotals(ctx context.Context) (domain.LedgerTotals, error)
	SaveTotals(ctx context.Context, totals domain.LedgerTotals) error
}

type InquiryRepository interface {
	Create(ctx context.Context, inquiry *domain.ContactInquiry) error
	GetByID(ctx context.Context, id string) (*domain.ContactInquiry, error)
	// Update writes every field except status.
	Update(ctx context.Context, inquiry *domain.ContactInquiry) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.InquiryFilter) ([]domain.ContactInquiry, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.InquiryStatus) (*domain.ContactInquiry, error)
}

type BlogPostRepository interface {
	Create(ctx context.Context, post *domain.BlogPost) error
	GetByID(ctx context.Context, id string) (*domain.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	Update(ctx context.Context, post *domain.BlogPost) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.BlogPostFilter) ([]domain.BlogPost, error)
}

type EventRepository interface {
	Create(ctx context.Context, event *domain.Event) error
	GetByID(ctx context.Context, id string) (*domain.Event, error)
	Update(ctx context.Context, event *domain.Event) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}
