package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/payment"
	"foundation-backend/internal/repository/document"
)

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GenerateReference() string {
	args := m.Called()
	return args.String(0)
}
func (m *MockGateway) InitializeTransaction(ctx context.Context, req payment.InitializeRequest) (*payment.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Authorization), args.Error(1)
}
func (m *MockGateway) VerifyTransaction(ctx context.Context, reference string) (*payment.Verification, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Verification), args.Error(1)
}
func (m *MockGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	args := m.Called(body, signature)
	return args.Bool(0)
}
func (m *MockGateway) ParseWebhook(body []byte) (*payment.WebhookEvent, error) {
	args := m.Called(body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.WebhookEvent), args.Error(1)
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendDonationReceipt(ctx context.Context, donation *domain.Donation) error {
	args := m.Called(ctx, donation)
	return args.Error(0)
}
func (m *MockEmailService) SendVolunteerStatus(ctx context.Context, volunteer *domain.Volunteer) error {
	args := m.Called(ctx, volunteer)
	return args.Error(0)
}
func (m *MockEmailService) SendInquiryNotification(ctx context.Context, inquiry *domain.ContactInquiry) error {
	args := m.Called(ctx, inquiry)
	return args.Error(0)
}

// MockIssueRepo
type MockIssueRepo struct {
	mock.Mock
}

func (m *MockIssueRepo) Create(ctx context.Context, issue *domain.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}
func (m *MockIssueRepo) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}
func (m *MockIssueRepo) Update(ctx context.Context, issue *domain.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}
func (m *MockIssueRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockIssueRepo) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Issue), args.Error(1)
}
func (m *MockIssueRepo) TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus) (*domain.Issue, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Issue), args.Error(1)
}
func (m *MockIssueRepo) RaiseAmountTo(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	args := m.Called(ctx, id, amount)
	return args.Bool(0), args.Error(1)
}

// MockStatsCache
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}
func (m *MockStatsCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	args := m.Called(ctx, key, v, ttl)
	return args.Error(0)
}
func (m *MockStatsCache) Delete(ctx context.Context, keys ...string) error {
	args := m.Called(ctx, keys)
	return args.Error(0)
}

// MockStatsInvalidator
type MockStatsInvalidator struct {
	mock.Mock
}

func (m *MockStatsInvalidator) InvalidateDashboard(ctx context.Context) {
	m.Called(ctx)
}

func newMemoryRepos() (*document.Store, *docstore.MemoryStore) {
	mem := docstore.NewMemoryStore()
	return document.NewStore(mem), mem
}

func quietEmail() *MockEmailService {
	m := new(MockEmailService)
	m.On("SendDonationReceipt", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendVolunteerStatus", mock.Anything, mock.Anything).Return(nil).Maybe()
	m.On("SendInquiryNotification", mock.Anything, mock.Anything).Return(nil).Maybe()
	return m
}
