package document

import (
	"context"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type volunteerRepository struct {
	coll collection[domain.Volunteer]
}

func NewVolunteerRepository(store docstore.Store) repository.VolunteerRepository {
	return &volunteerRepository{
		coll: collection[domain.Volunteer]{
			store:     store,
			name:      docstore.CollectionVolunteers,
			entity:    "volunteer",
			readOnly:  []string{"status"},
			clearable: []string{"orphanageId"},
		},
	}
}

func (r *volunteerRepository) Create(ctx context.Context, volunteer *domain.Volunteer) error {
	return r.coll.create(ctx, volunteer)
}

func (r *volunteerRepository) GetByID(ctx context.Context, id string) (*domain.Volunteer, error) {
	return r.coll.get(ctx, id)
}

func (r *volunteerRepository) Update(ctx context.Context, volunteer *domain.Volunteer) error {
	return r.coll.update(ctx, volunteer.ID, volunteer)
}

func (r *volunteerRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

func (r *volunteerRepository) List(ctx context.Context, filter domain.VolunteerFilter) ([]domain.Volunteer, error) {
	q := docstore.Query{}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if filter.OrphanageID != "" {
		q = q.Where("orphanageId", filter.OrphanageID)
	}
	if filter.Email != "" {
		q = q.Where("email", filter.Email)
	}
	return r.coll.list(ctx, limitQuery(q, filter.Limit))
}

func (r *volunteerRepository) TransitionStatus(ctx context.Context, id string, from, to domain.VolunteerStatus, mutate func(*domain.Volunteer)) (*domain.Volunteer, error) {
	return r.coll.transition(ctx, id, []string{string(from)}, string(to), mutate)
}
