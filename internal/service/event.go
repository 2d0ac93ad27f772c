package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type eventService struct {
	events repository.EventRepository
	now    func() time.Time
}

func NewEventService(events repository.EventRepository) EventService {
	return &eventService{events: events, now: time.Now}
}

func validateEvent(e *domain.Event) error {
	e.Title = strings.TrimSpace(e.Title)
	e.Location = strings.TrimSpace(e.Location)
	if e.EndDate.IsZero() {
		e.EndDate = e.StartDate
	}

	verr := &domain.ValidationError{}
	validateStruct(e, verr)
	if e.StartDate.IsZero() {
		verr.Add("startDate", "is required")
	} else if e.EndDate.Before(e.StartDate) {
		verr.Add("endDate", "must not be before startDate")
	}
	return verr.OrNil()
}

func (s *eventService) CreateEvent(ctx context.Context, e *domain.Event) error {
	if err := validateEvent(e); err != nil {
		return err
	}
	switch e.Status {
	case "":
		e.Status = domain.EventStatusDraft
	case domain.EventStatusDraft, domain.EventStatusPublished:
	default:
		return domain.NewValidationError("status", "must be draft or published")
	}
	if err := s.events.Create(ctx, e); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// UpdateEvent edits details. Status changes go through Publish and Cancel.
func (s *eventService) UpdateEvent(ctx context.Context, e *domain.Event) error {
	existing, err := s.events.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if err := validateEvent(e); err != nil {
		return err
	}
	e.Status = existing.Status
	if err := s.events.Update(ctx, e); err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	updated, err := s.events.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	*e = *updated
	return nil
}

func (s *eventService) Publish(ctx context.Context, id string) (*domain.Event, error) {
	return s.setStatus(ctx, id, domain.EventStatusPublished, domain.EventStatusDraft)
}

func (s *eventService) Cancel(ctx context.Context, id string) (*domain.Event, error) {
	return s.setStatus(ctx, id, domain.EventStatusCancelled, domain.EventStatusDraft, domain.EventStatusPublished)
}

func (s *eventService) setStatus(ctx context.Context, id string, to domain.EventStatus, from ...domain.EventStatus) (*domain.Event, error) {
	e, err := s.events.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == to {
		return e, nil
	}
	allowed := false
	for _, f := range from {
		allowed = allowed || e.Status == f
	}
	if !allowed {
		return nil, &domain.TransitionError{Entity: "event", From: string(e.Status), To: string(to)}
	}
	e.Status = to
	if err := s.events.Update(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to update event status: %w", err)
	}
	return s.events.GetByID(ctx, id)
}

func (s *eventService) DeleteEvent(ctx context.Context, id string) error {
	return s.events.Delete(ctx, id)
}

func (s *eventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	return s.events.GetByID(ctx, id)
}

// ListEvents returns events soonest first. With Upcoming set, events that
// already ended are dropped before the limit applies.
func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	events, err := s.events.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if !filter.Upcoming {
		return events, nil
	}
	now := s.now()
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if !e.IsUpcoming(now) {
			continue
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}
