package service

import (
	"context"
	"fmt"
	"strings"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

type inquiryService struct {
	inquiries repository.InquiryRepository
	emailSvc  EmailService
}

func NewInquiryService(inquiries repository.InquiryRepository, emailSvc EmailService) InquiryService {
	return &inquiryService{inquiries: inquiries, emailSvc: emailSvc}
}

func (s *inquiryService) Submit(ctx context.Context, inq *domain.ContactInquiry) error {
	logger.EnterMethod("inquiryService.Submit", "type", inq.InquiryType)

	inq.Name = strings.TrimSpace(inq.Name)
	inq.Email = strings.ToLower(strings.TrimSpace(inq.Email))
	inq.Subject = strings.TrimSpace(inq.Subject)
	inq.Message = strings.TrimSpace(inq.Message)
	if inq.InquiryType == "" {
		inq.InquiryType = domain.InquiryTypeGeneral
	}

	verr := &domain.ValidationError{}
	validateStruct(inq, verr)
	if err := verr.OrNil(); err != nil {
		logger.ExitMethodWithError("inquiryService.Submit", err)
		return err
	}

	inq.Status = domain.InquiryStatusNew
	inq.AdminNotes = ""
	if err := s.inquiries.Create(ctx, inq); err != nil {
		logger.ExitMethodWithError("inquiryService.Submit", err)
		return fmt.Errorf("failed to submit inquiry: %w", err)
	}

	if err := s.emailSvc.SendInquiryNotification(ctx, inq); err != nil {
		logger.Warn("Failed to send inquiry notification", "inquiryID", inq.ID, "error", err)
	}

	logger.ExitMethod("inquiryService.Submit", "inquiryID", inq.ID)
	return nil
}

// UpdateStatus accepts either status vocabulary and stores the current one.
func (s *inquiryService) UpdateStatus(ctx context.Context, id, status string) (*domain.ContactInquiry, error) {
	next, ok := domain.ParseInquiryStatus(status)
	if !ok {
		return nil, domain.NewValidationError("status", "must be one of: new, read, replied, closed")
	}
	current, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == next {
		return current, nil
	}
	return s.inquiries.TransitionStatus(ctx, id, current.Status, next)
}

func (s *inquiryService) AddNotes(ctx context.Context, id, notes string) (*domain.ContactInquiry, error) {
	if len(notes) > 5000 {
		return nil, domain.NewValidationError("adminNotes", "must be at most 5000 characters")
	}
	inq, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inq.AdminNotes = strings.TrimSpace(notes)
	if err := s.inquiries.Update(ctx, inq); err != nil {
		return nil, fmt.Errorf("failed to update inquiry notes: %w", err)
	}
	return s.inquiries.GetByID(ctx, id)
}

// GetInquiry marks a new inquiry as read the first time an admin opens it.
func (s *inquiryService) GetInquiry(ctx context.Context, id string) (*domain.ContactInquiry, error) {
	inq, err := s.inquiries.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inq.Status != domain.InquiryStatusNew {
		return inq, nil
	}
	read, err := s.inquiries.TransitionStatus(ctx, id, domain.InquiryStatusNew, domain.InquiryStatusRead)
	if err != nil {
		// Another admin moved it first; show what was read.
		logger.Debug("Inquiry already left new", "inquiryID", id, "error", err)
		return inq, nil
	}
	return read, nil
}

// ListInquiries filters on the normalized status so records stored with the
// older vocabulary are included.
func (s *inquiryService) ListInquiries(ctx context.Context, filter domain.InquiryFilter) ([]domain.ContactInquiry, error) {
	if filter.Status == "" {
		return s.inquiries.List(ctx, filter)
	}
	status, ok := domain.ParseInquiryStatus(string(filter.Status))
	if !ok {
		return nil, domain.NewValidationError("status", "must be one of: new, read, replied, closed")
	}
	limit := filter.Limit
	filter.Status, filter.Limit = "", 0

	all, err := s.inquiries.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]domain.ContactInquiry, 0, len(all))
	for _, inq := range all {
		if inq.Status != status {
			continue
		}
		out = append(out, inq)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *inquiryService) DeleteInquiry(ctx context.Context, id string) error {
	return s.inquiries.Delete(ctx, id)
}
