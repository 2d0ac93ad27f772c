package document

import (
	"context"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type eventRepository struct {
	coll collection[domain.Event]
}

func NewEventRepository(store docstore.Store) repository.EventRepository {
	return &eventRepository{
		coll: collection[domain.Event]{
			store:     store,
			name:      docstore.CollectionEvents,
			entity:    "event",
			clearable: []string{"imageUrl", "registrationUrl"},
		},
	}
}

func (r *eventRepository) Create(ctx context.Context, event *domain.Event) error {
	return r.coll.create(ctx, event)
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.coll.get(ctx, id)
}

func (r *eventRepository) Update(ctx context.Context, event *domain.Event) error {
	return r.coll.update(ctx, event.ID, event)
}

func (r *eventRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

// List orders events by start date, soonest first. Upcoming is applied by
// the caller, which owns the clock.
func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	q := docstore.Query{OrderBy: "startDate"}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if !filter.Upcoming {
		q.Limit = filter.Limit
	}
	return r.coll.list(ctx, q)
}
