package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

type volunteerService struct {
	volunteers repository.VolunteerRepository
	orphanages repository.OrphanageRepository
	emailSvc   EmailService
	now        func() time.Time
}

func NewVolunteerService(volunteers repository.VolunteerRepository, orphanages repository.OrphanageRepository, emailSvc EmailService) VolunteerService {
	return &volunteerService{
		volunteers: volunteers,
		orphanages: orphanages,
		emailSvc:   emailSvc,
		now:        time.Now,
	}
}

// Register stores a public sign-up as a pending application. An email that
// already has a pending or approved application is refused.
func (s *volunteerService) Register(ctx context.Context, v *domain.Volunteer) error {
	logger.EnterMethod("volunteerService.Register", "email", v.Email)

	v.FirstName = strings.TrimSpace(v.FirstName)
	v.LastName = strings.TrimSpace(v.LastName)
	v.Email = strings.ToLower(strings.TrimSpace(v.Email))
	if v.Skills == nil {
		v.Skills = []string{}
	}
	if v.Interests == nil {
		v.Interests = []string{}
	}

	verr := &domain.ValidationError{}
	validateStruct(v, verr)
	if err := verr.OrNil(); err != nil {
		logger.ExitMethodWithError("volunteerService.Register", err)
		return err
	}

	existing, err := s.volunteers.List(ctx, domain.VolunteerFilter{Email: v.Email})
	if err != nil {
		logger.ExitMethodWithError("volunteerService.Register", err)
		return fmt.Errorf("failed to check existing applications: %w", err)
	}
	for _, e := range existing {
		if e.Status == domain.VolunteerStatusPending || e.Status == domain.VolunteerStatusApproved {
			err := fmt.Errorf("%w: an application for %s already exists", domain.ErrConflict, v.Email)
			logger.ExitMethodWithError("volunteerService.Register", err)
			return err
		}
	}

	v.Status = domain.VolunteerStatusPending
	v.OrphanageID = ""
	v.ReviewNotes, v.ReviewedBy, v.ReviewedAt = "", "", nil
	if err := s.volunteers.Create(ctx, v); err != nil {
		logger.ExitMethodWithError("volunteerService.Register", err)
		return fmt.Errorf("failed to register volunteer: %w", err)
	}

	s.notify(ctx, v)
	logger.ExitMethod("volunteerService.Register", "volunteerID", v.ID)
	return nil
}

func (s *volunteerService) Approve(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error) {
	return s.review(ctx, id, domain.VolunteerStatusPending, domain.VolunteerStatusApproved, reviewer, notes)
}

func (s *volunteerService) Reject(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error) {
	return s.review(ctx, id, domain.VolunteerStatusPending, domain.VolunteerStatusRejected, reviewer, notes)
}

func (s *volunteerService) Suspend(ctx context.Context, id, reviewer, notes string) (*domain.Volunteer, error) {
	return s.review(ctx, id, domain.VolunteerStatusApproved, domain.VolunteerStatusSuspended, reviewer, notes)
}

func (s *volunteerService) review(ctx context.Context, id string, from, to domain.VolunteerStatus, reviewer, notes string) (*domain.Volunteer, error) {
	logger.EnterMethod("volunteerService.review", "volunteerID", id, "to", to, "reviewer", reviewer)

	reviewedAt := s.now().UTC()
	v, err := s.volunteers.TransitionStatus(ctx, id, from, to, func(v *domain.Volunteer) {
		v.ReviewedBy = reviewer
		v.ReviewedAt = &reviewedAt
		if notes != "" {
			v.ReviewNotes = notes
		}
	})
	if err != nil {
		logger.ExitMethodWithError("volunteerService.review", err, "volunteerID", id)
		return nil, err
	}

	s.notify(ctx, v)
	logger.ExitMethod("volunteerService.review", "volunteerID", id, "status", v.Status)
	return v, nil
}

func (s *volunteerService) notify(ctx context.Context, v *domain.Volunteer) {
	if err := s.emailSvc.SendVolunteerStatus(ctx, v); err != nil {
		logger.Warn("Failed to send volunteer status email", "volunteerID", v.ID, "status", v.Status, "error", err)
	}
}

// AssignOrphanage links an approved volunteer to an orphanage. An empty
// orphanageID clears the assignment.
func (s *volunteerService) AssignOrphanage(ctx context.Context, id, orphanageID string) (*domain.Volunteer, error) {
	v, err := s.volunteers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if orphanageID != "" {
		if v.Status != domain.VolunteerStatusApproved {
			return nil, domain.NewValidationError("status", "only approved volunteers can be assigned")
		}
		if _, err := s.orphanages.GetByID(ctx, orphanageID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.NewValidationError("orphanageId", "orphanage not found")
			}
			return nil, err
		}
	}
	v.OrphanageID = orphanageID
	if err := s.volunteers.Update(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to assign volunteer: %w", err)
	}
	return s.volunteers.GetByID(ctx, id)
}

func (s *volunteerService) GetVolunteer(ctx context.Context, id string) (*domain.Volunteer, error) {
	return s.volunteers.GetByID(ctx, id)
}

func (s *volunteerService) ListVolunteers(ctx context.Context, filter domain.VolunteerFilter) ([]domain.Volunteer, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, domain.NewValidationError("status", "unknown volunteer status")
	}
	filter.Email = strings.ToLower(strings.TrimSpace(filter.Email))
	return s.volunteers.List(ctx, filter)
}

func (s *volunteerService) DeleteVolunteer(ctx context.Context, id string) error {
	return s.volunteers.Delete(ctx, id)
}
