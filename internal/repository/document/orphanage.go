package document

import (
	"context"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type orphanageRepository struct {
	coll collection[domain.Orphanage]
}

func NewOrphanageRepository(store docstore.Store) repository.OrphanageRepository {
	return &orphanageRepository{
		coll: collection[domain.Orphanage]{
			store:     store,
			name:      docstore.CollectionOrphanages,
			entity:    "orphanage",
			clearable: []string{"images", "contactName", "contactEmail", "contactPhone"},
		},
	}
}

func (r *orphanageRepository) Create(ctx context.Context, orphanage *domain.Orphanage) error {
	return r.coll.create(ctx, orphanage)
}

func (r *orphanageRepository) GetByID(ctx context.Context, id string) (*domain.Orphanage, error) {
	return r.coll.get(ctx, id)
}

func (r *orphanageRepository) Update(ctx context.Context, orphanage *domain.Orphanage) error {
	return r.coll.update(ctx, orphanage.ID, orphanage)
}

func (r *orphanageRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

func (r *orphanageRepository) List(ctx context.Context, filter domain.OrphanageFilter) ([]domain.Orphanage, error) {
	q := docstore.Query{}
	if filter.Verified != nil {
		q = q.Where("isVerified", *filter.Verified)
	}
	return r.coll.list(ctx, limitQuery(q, filter.Limit))
}
