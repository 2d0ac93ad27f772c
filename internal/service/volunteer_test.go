package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"foundation-backend/internal/domain"
)

func applicant(email string) *domain.Volunteer {
	return &domain.Volunteer{
		FirstName:    "Ngozi",
		LastName:     "Okafor",
		Email:        email,
		Phone:        "+2348030000000",
		Skills:       []string{"teaching"},
		Availability: "weekends",
		EmergencyContact: domain.EmergencyContact{
			Name:  "Emeka Okafor",
			Phone: "+2348030000001",
		},
	}
}

func TestVolunteerService_Register(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	email := quietEmail()
	svc := NewVolunteerService(store.VolunteerRepository, store.OrphanageRepository, email)

	v := applicant(" Ngozi@Example.com ")
	v.Status = domain.VolunteerStatusApproved
	require.NoError(t, svc.Register(ctx, v))
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, domain.VolunteerStatusPending, v.Status)
	assert.Equal(t, "ngozi@example.com", v.Email)
	email.AssertCalled(t, "SendVolunteerStatus", mock.Anything, mock.Anything)

	t.Run("duplicate open application", func(t *testing.T) {
		err := svc.Register(ctx, applicant("ngozi@example.com"))
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("reapply after rejection", func(t *testing.T) {
		_, err := svc.Reject(ctx, v.ID, "admin@example.org", "not this season")
		require.NoError(t, err)
		assert.NoError(t, svc.Register(ctx, applicant("ngozi@example.com")))
	})

	t.Run("invalid form", func(t *testing.T) {
		bad := applicant("not-an-email")
		bad.Availability = "sometimes"
		err := svc.Register(ctx, bad)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "availability")
	})
}

func TestVolunteerService_Review(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	svc := NewVolunteerService(store.VolunteerRepository, store.OrphanageRepository, quietEmail())

	register := func(email string) *domain.Volunteer {
		v := applicant(email)
		require.NoError(t, svc.Register(ctx, v))
		return v
	}

	t.Run("approve then suspend", func(t *testing.T) {
		v := register("a@example.com")
		approved, err := svc.Approve(ctx, v.ID, "admin@example.org", "welcome")
		require.NoError(t, err)
		assert.Equal(t, domain.VolunteerStatusApproved, approved.Status)
		assert.Equal(t, "admin@example.org", approved.ReviewedBy)
		assert.Equal(t, "welcome", approved.ReviewNotes)
		require.NotNil(t, approved.ReviewedAt)

		suspended, err := svc.Suspend(ctx, v.ID, "admin@example.org", "")
		require.NoError(t, err)
		assert.Equal(t, domain.VolunteerStatusSuspended, suspended.Status)
		assert.Equal(t, "welcome", suspended.ReviewNotes)
	})

	t.Run("suspend requires approval", func(t *testing.T) {
		v := register("b@example.com")
		_, err := svc.Suspend(ctx, v.ID, "admin@example.org", "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("rejected cannot be approved", func(t *testing.T) {
		v := register("c@example.com")
		_, err := svc.Reject(ctx, v.ID, "admin@example.org", "")
		require.NoError(t, err)
		_, err = svc.Approve(ctx, v.ID, "admin@example.org", "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		stored, err := svc.GetVolunteer(ctx, v.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.VolunteerStatusRejected, stored.Status)
	})

	t.Run("missing volunteer", func(t *testing.T) {
		_, err := svc.Approve(ctx, "missing", "admin@example.org", "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestVolunteerService_AssignOrphanage(t *testing.T) {
	ctx := context.Background()
	store, _ := newMemoryRepos()
	svc := NewVolunteerService(store.VolunteerRepository, store.OrphanageRepository, quietEmail())

	home := &domain.Orphanage{Name: "Hope House", Location: domain.Location{City: "Abuja", Country: "Nigeria"}}
	require.NoError(t, store.OrphanageRepository.Create(ctx, home))

	v := applicant("d@example.com")
	require.NoError(t, svc.Register(ctx, v))

	_, err := svc.AssignOrphanage(ctx, v.ID, home.ID)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Approve(ctx, v.ID, "admin@example.org", "")
	require.NoError(t, err)

	_, err = svc.AssignOrphanage(ctx, v.ID, "missing")
	assert.ErrorIs(t, err, domain.ErrValidation)

	assigned, err := svc.AssignOrphanage(ctx, v.ID, home.ID)
	require.NoError(t, err)
	assert.Equal(t, home.ID, assigned.OrphanageID)
	assert.Equal(t, domain.VolunteerStatusApproved, assigned.Status)

	list, err := svc.ListVolunteers(ctx, domain.VolunteerFilter{OrphanageID: home.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	cleared, err := svc.AssignOrphanage(ctx, v.ID, "")
	require.NoError(t, err)
	assert.Empty(t, cleared.OrphanageID)
}
