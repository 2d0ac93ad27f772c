package service

import (
	"context"
	"fmt"
	"strings"

	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type orphanageService struct {
	orphanages repository.OrphanageRepository
}

func NewOrphanageService(orphanages repository.OrphanageRepository) OrphanageService {
	return &orphanageService{orphanages: orphanages}
}

func validateOrphanage(o *domain.Orphanage) error {
	o.Name = strings.TrimSpace(o.Name)
	o.ContactEmail = strings.ToLower(strings.TrimSpace(o.ContactEmail))

	verr := &domain.ValidationError{}
	validateStruct(o, verr)
	if strings.TrimSpace(o.Location.City) == "" {
		verr.Add("location.city", "is required")
	}
	if strings.TrimSpace(o.Location.Country) == "" {
		verr.Add("location.country", "is required")
	}
	if o.Capacity > 0 && o.ChildrenCount > o.Capacity {
		verr.Add("childrenCount", "must not exceed capacity")
	}
	return verr.OrNil()
}

func (s *orphanageService) CreateOrphanage(ctx context.Context, o *domain.Orphanage) error {
	if err := validateOrphanage(o); err != nil {
		return err
	}
	if err := s.orphanages.Create(ctx, o); err != nil {
		return fmt.Errorf("failed to create orphanage: %w", err)
	}
	return nil
}

func (s *orphanageService) UpdateOrphanage(ctx context.Context, o *domain.Orphanage) error {
	if err := validateOrphanage(o); err != nil {
		return err
	}
	if err := s.orphanages.Update(ctx, o); err != nil {
		return err
	}
	updated, err := s.orphanages.GetByID(ctx, o.ID)
	if err != nil {
		return err
	}
	*o = *updated
	return nil
}

func (s *orphanageService) DeleteOrphanage(ctx context.Context, id string) error {
	return s.orphanages.Delete(ctx, id)
}

func (s *orphanageService) GetOrphanage(ctx context.Context, id string) (*domain.Orphanage, error) {
	return s.orphanages.GetByID(ctx, id)
}

func (s *orphanageService) ListOrphanages(ctx context.Context, filter domain.OrphanageFilter) ([]domain.Orphanage, error) {
	return s.orphanages.List(ctx, filter)
}
