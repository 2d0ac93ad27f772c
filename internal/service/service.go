package service

import (
	"context"
	"io"
	"time"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/storage"
)

type DonationService interface {
	CreateDonation(ctx context.Context, req domain.DonationRequest) (*DonationCheckout, error)
	UpdateDonationStatus(ctx context.Context, id string, status domain.DonationStatus) (*domain.Donation, error)
	CompleteDonation(ctx context.Context, id string) (*domain.Donation, error)
	FailDonation(ctx context.Context, id, reason string) (*domain.Donation, error)
	VerifyDonation(ctx context.Context, reference string) (*domain.Donation, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	GetDonation(ctx context.Context, id string) (*domain.Donation, error)
	GetDonationByReference(ctx context.Context, reference string) (*domain.Donation, error)
	ListDonations(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error)
	ListPublicDonations(ctx context.Context, limit int) ([]domain.Donation, error)
	DeleteDonation(ctx context.Context, id string) error
	ExpireStaleDonations(ctx context.Context, cutoff time.Time) (ExpiryResult, error)
}

type LedgerService interface {
	CreateRecord(ctx context.Context, record *domain.FinancialRecord) (*RecordResult, error)
	UpdateRecord(ctx context.Context, record *domain.FinancialRecord) (*RecordResult, error)
	DeleteRecord(ctx context.Context, id string) error
	GetRecord(ctx context.Context, id string) (*domain.FinancialRecord, error)
	ListRecords(ctx context.Context, filter domain.FinancialRecordFilter) ([]domain.FinancialRecord, error)
	CategorySuggestions(recordType domain.RecordType) []string
	GetTotals(ctx context.Context) (domain.LedgerTotals, error)
	RecomputeTotals(ctx context.Context) (domain.LedgerTotals, error)
}

type StatsService interface {
	DashboardStats(ctx context.Context) (*domain.DashboardStats, error)
	FinancialStats(ctx context.Context) (*domain.FinancialStats, error)
	StatsInvalidator
}

type IssueService interface {
	CreateIssue(ctx context.Context, issue *domain.Issue) error
	UpdateIssue(ctx context.Context, issue *domain.Issue) error
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) (*domain.Issue, error)
	DeleteIssue(ctx context.Context, id string) error
	GetIssue(ctx context.Context, id string) (*domain.Issue, error)
	ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error)
	// ReconcileRaisedAmounts raises each issue's raisedAmount to the sum of
	// its completed donations. It never lowers a stored amount.
	ReconcileRaisedAmounts(ctx context.Context) (int, error)
}

type OrphanageService interface {
	CreateOrphanage(ctx context.Context, o *domain.Orphanage) error
	UpdateOrphanage(ctx context.Context, o *domain.Orphanage) error
	DeleteOrphanage(ctx context.Context, id string) error
	GetOrphanage(ctx context.Context, id string) (*domain.Orphanage, error)
	ListOrphanages(ctx context.Context, filter domain.OrphanageFilter) ([]domain.Orphanage, error)
}

type VolunteerService interface {
	Register(ctx context.Context, v *domain.Volunteer) error
	Approve(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error)
	Reject(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error)
	Suspend(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error)
	AssignOrphanage(ctx context.Context, id, orphanageID string) (*domain.Volunteer, error)
	GetVolunteer(ctx context.Context, id string) (*domain.Volunteer, error)
	ListVolunteers(ctx context.Context, filter domain.VolunteerFilter) ([]domain.Volunteer, error)
	DeleteVolunteer(ctx context.Context, id string) error
}

type InquiryService interface {
	Submit(ctx context.Context, inquiry *domain.ContactInquiry) error
	UpdateStatus(ctx context.Context, id, status string) (*domain.ContactInquiry, error)
	AddNotes(ctx context.Context, id, notes string) (*domain.ContactInquiry, error)
	GetInquiry(ctx context.Context, id string) (*domain.ContactInquiry, error)
	ListInquiries(ctx context.Context, filter domain.InquiryFilter) ([]domain.ContactInquiry, error)
	DeleteInquiry(ctx context.Context, id string) error
}

type BlogService interface {
	CreatePost(ctx context.Context, post *domain.BlogPost) error
	UpdatePost(ctx context.Context, post *domain.BlogPost) error
	Publish(ctx context.Context, id string) (*domain.BlogPost, error)
	Unpublish(ctx context.Context, id string) (*domain.BlogPost, error)
	DeletePost(ctx context.Context, id string) error
	GetPost(ctx context.Context, id string) (*domain.BlogPost, error)
	GetPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	ListPosts(ctx context.Context, filter domain.BlogPostFilter) ([]domain.BlogPost, error)
}

type EventService interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	UpdateEvent(ctx context.Context, e *domain.Event) error
	Publish(ctx context.Context, id string) (*domain.Event, error)
	Cancel(ctx context.Context, id string) (*domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error)
}

type ImageService interface {
	UploadImage(ctx context.Context, folder, filename, contentType string, r io.Reader, size int64, onProgress storage.ProgressFunc) (*UploadedImage, error)
	DeleteImage(ctx context.Context, key string) error
}

type EmailService interface {
	SendDonationReceipt(ctx context.Context, donation *domain.Donation) error
	SendVolunteerStatus(ctx context.Context, volunteer *domain.Volunteer) error
	SendInquiryNotification(ctx context.Context, inquiry *domain.ContactInquiry) error
}

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}
