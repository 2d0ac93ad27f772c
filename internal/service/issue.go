package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

type issueService struct {
	issues     repository.IssueRepository
	orphanages repository.OrphanageRepository
	donations  repository.DonationRepository
	currency   string
}

func NewIssueService(issues repository.IssueRepository, orphanages repository.OrphanageRepository, donations repository.DonationRepository, defaultCurrency string) IssueService {
	return &issueService{
		issues:     issues,
		orphanages: orphanages,
		donations:  donations,
		currency:   strings.ToUpper(defaultCurrency),
	}
}

func (s *issueService) validate(ctx context.Context, i *domain.Issue) error {
	i.Title = strings.TrimSpace(i.Title)
	i.Currency = strings.ToUpper(strings.TrimSpace(i.Currency))
	if i.Currency == "" {
		i.Currency = s.currency
	}

	verr := &domain.ValidationError{}
	switch {
	case i.Title == "":
		verr.Add("title", "is required")
	case len(i.Title) > 200:
		verr.Add("title", "must be at most 200 characters")
	}
	if len(i.Description) > 5000 {
		verr.Add("description", "must be at most 5000 characters")
	}
	if !i.Category.IsValid() {
		verr.Add("category", "unknown category")
	}
	if !i.Priority.IsValid() {
		verr.Add("priority", "must be one of: low, medium, high, urgent")
	}
	if !i.EstimatedCost.IsPositive() {
		verr.Add("estimatedCost", "must be greater than zero")
	}
	if !domain.IsSupportedCurrency(i.Currency) {
		verr.Add("currency", "unsupported currency")
	}
	if i.OrphanageID == "" {
		verr.Add("orphanageId", "is required")
	}
	if verr.HasErrors() {
		return verr
	}

	if _, err := s.orphanages.GetByID(ctx, i.OrphanageID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewValidationError("orphanageId", "orphanage not found")
		}
		return fmt.Errorf("failed to load orphanage: %w", err)
	}
	return nil
}

func (s *issueService) CreateIssue(ctx context.Context, issue *domain.Issue) error {
	logger.EnterMethod("issueService.CreateIssue", "orphanageID", issue.OrphanageID)

	if issue.Priority == "" {
		issue.Priority = domain.IssuePriorityMedium
	}
	if err := s.validate(ctx, issue); err != nil {
		logger.ExitMethodWithError("issueService.CreateIssue", err)
		return err
	}
	issue.Status = domain.IssueStatusOpen
	issue.RaisedAmount = decimal.Zero

	if err := s.issues.Create(ctx, issue); err != nil {
		logger.ExitMethodWithError("issueService.CreateIssue", err)
		return fmt.Errorf("failed to create issue: %w", err)
	}

	logger.ExitMethod("issueService.CreateIssue", "issueID", issue.ID)
	return nil
}

// UpdateIssue edits descriptive fields. Status and raised amount have their
// own operations.
func (s *issueService) UpdateIssue(ctx context.Context, issue *domain.Issue) error {
	existing, err := s.issues.GetByID(ctx, issue.ID)
	if err != nil {
		return err
	}
	if issue.Priority == "" {
		issue.Priority = existing.Priority
	}
	if err := s.validate(ctx, issue); err != nil {
		return err
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return fmt.Errorf("failed to update issue: %w", err)
	}
	updated, err := s.issues.GetByID(ctx, issue.ID)
	if err != nil {
		return err
	}
	*issue = *updated
	return nil
}

// UpdateStatus accepts any status value; the write only lands if the issue
// still has the status that was read.
func (s *issueService) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus) (*domain.Issue, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("status", "must be one of: open, in-progress, resolved, closed")
	}
	current, err := s.issues.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == status {
		return current, nil
	}
	logger.Info("Issue status change", "issueID", id, "from", current.Status, "to", status)
	return s.issues.TransitionStatus(ctx, id, current.Status, status)
}

func (s *issueService) DeleteIssue(ctx context.Context, id string) error {
	return s.issues.Delete(ctx, id)
}

func (s *issueService) GetIssue(ctx context.Context, id string) (*domain.Issue, error) {
	return s.issues.GetByID(ctx, id)
}

func (s *issueService) ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	verr := &domain.ValidationError{}
	if filter.Status != "" && !filter.Status.IsValid() {
		verr.Add("status", "unknown issue status")
	}
	if filter.Category != "" && !filter.Category.IsValid() {
		verr.Add("category", "unknown category")
	}
	if filter.Priority != "" && !filter.Priority.IsValid() {
		verr.Add("priority", "unknown priority")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return s.issues.List(ctx, filter)
}

func (s *issueService) ReconcileRaisedAmounts(ctx context.Context) (int, error) {
	logger.EnterMethod("issueService.ReconcileRaisedAmounts")

	completed, err := s.donations.List(ctx, domain.DonationFilter{Status: domain.DonationStatusCompleted})
	if err != nil {
		logger.ExitMethodWithError("issueService.ReconcileRaisedAmounts", err)
		return 0, fmt.Errorf("failed to list completed donations: %w", err)
	}
	issues, err := s.issues.List(ctx, domain.IssueFilter{})
	if err != nil {
		logger.ExitMethodWithError("issueService.ReconcileRaisedAmounts", err)
		return 0, fmt.Errorf("failed to list issues: %w", err)
	}

	byID := make(map[string]domain.Issue, len(issues))
	for _, i := range issues {
		byID[i.ID] = i
	}
	sums := map[string]decimal.Decimal{}
	for _, d := range completed {
		issue, ok := byID[d.IssueID]
		if !ok || !strings.EqualFold(issue.Currency, d.Currency) {
			continue
		}
		sums[d.IssueID] = sums[d.IssueID].Add(d.Amount)
	}

	raised := 0
	for id, sum := range sums {
		if !sum.GreaterThan(byID[id].RaisedAmount) {
			continue
		}
		ok, err := s.issues.RaiseAmountTo(ctx, id, sum)
		if err != nil {
			logger.Error("Failed to raise issue amount", "issueID", id, "error", err)
			continue
		}
		if ok {
			raised++
			logger.Warn("Issue raised amount corrected", "issueID", id,
				"stored", byID[id].RaisedAmount.String(), "computed", sum.String())
		}
	}

	logger.ExitMethod("issueService.ReconcileRaisedAmounts", "corrected", raised)
	return raised, nil
}
