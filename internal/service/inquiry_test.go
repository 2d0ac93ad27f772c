package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/domain"
)

func newInquiry() *domain.ContactInquiry {
	return &domain.ContactInquiry{
		Name:    "Tunde Bakare",
		Email:   "tunde@example.com",
		Subject: "School supplies",
		Message: "We would like to donate books.",
	}
}

func TestInquiryService_Submit(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	email := new(MockEmailService)
	email.On("SendInquiryNotification", mock.Anything, mock.AnythingOfType("*domain.ContactInquiry")).Return(nil).Once()
	svc := NewInquiryService(store.InquiryRepository, email)

	inq := newInquiry()
	inq.Status = domain.InquiryStatusClosed
	require.NoError(t, svc.Submit(ctx, inq))
	assert.Equal(t, domain.InquiryStatusNew, inq.Status)
	assert.Equal(t, domain.InquiryTypeGeneral, inq.InquiryType)
	email.AssertExpectations(t)

	t.Run("invalid", func(t *testing.T) {
		bad := newInquiry()
		bad.Subject = ""
		bad.InquiryType = "complaint"
		err := svc.Submit(ctx, bad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "subject")
		assert.Contains(t, verr.Fields, "inquiryType")
	})
}

func TestInquiryService_Workflow(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	svc := NewInquiryService(store.InquiryRepository, quietEmail())

	inq := newInquiry()
	require.NoError(t, svc.Submit(ctx, inq))

	t.Run("opening marks read", func(t *testing.T) {
		got, err := svc.GetInquiry(ctx, inq.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.InquiryStatusRead, got.Status)
	})

	t.Run("legacy vocabulary is normalized", func(t *testing.T) {
		got, err := svc.UpdateStatus(ctx, inq.ID, "in_progress")
		require.NoError(t, err)
		assert.Equal(t, domain.InquiryStatusReplied, got.Status)

		got, err = svc.UpdateStatus(ctx, inq.ID, "Resolved")
		require.NoError(t, err)
		assert.Equal(t, domain.InquiryStatusClosed, got.Status)
	})

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, inq.ID, "escalated")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("notes", func(t *testing.T) {
		got, err := svc.AddNotes(ctx, inq.ID, "  Called back on Monday ")
		require.NoError(t, err)
		assert.Equal(t, "Called back on Monday", got.AdminNotes)
		assert.Equal(t, domain.InquiryStatusClosed, got.Status)

		_, err = svc.AddNotes(ctx, inq.ID, strings.Repeat("n", 5001))
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestInquiryService_ListInquiries_LegacyStatus(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	svc := NewInquiryService(store.InquiryRepository, quietEmail())

	legacy := newInquiry()
	legacy.Status = "archived"
	require.NoError(t, store.InquiryRepository.Create(ctx, legacy))

	current := newInquiry()
	require.NoError(t, svc.Submit(ctx, current))
	_, err := svc.UpdateStatus(ctx, current.ID, "closed")
	require.NoError(t, err)

	open := newInquiry()
	require.NoError(t, svc.Submit(ctx, open))

	closed, err := svc.ListInquiries(ctx, domain.InquiryFilter{Status: "resolved"})
	require.NoError(t, err)
	assert.Len(t, closed, 2)

	limited, err := svc.ListInquiries(ctx, domain.InquiryFilter{Status: domain.InquiryStatusClosed, Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := svc.ListInquiries(ctx, domain.InquiryFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
