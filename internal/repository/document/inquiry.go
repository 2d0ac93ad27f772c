package document

import (
	"context"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/repository"
)

type inquiryRepository struct {
	coll collection[domain.ContactInquiry]
}

func NewInquiryRepository(store docstore.Store) repository.InquiryRepository {
	return &inquiryRepository{
		coll: collection[domain.ContactInquiry]{
			store:     store,
			name:      docstore.CollectionContactInquiries,
			entity:    "inquiry",
			readOnly:  []string{"status"},
			clearable: []string{"adminNotes"},
		},
	}
}

func (r *inquiryRepository) Create(ctx context.Context, inquiry *domain.ContactInquiry) error {
	return r.coll.create(ctx, inquiry)
}

// GetByID normalizes statuses written with the older vocabulary.
func (r *inquiryRepository) GetByID(ctx context.Context, id string) (*domain.ContactInquiry, error) {
	inquiry, err := r.coll.get(ctx, id)
	if err != nil {
		return nil, err
	}
	normalizeInquiry(inquiry)
	return inquiry, nil
}

func (r *inquiryRepository) Update(ctx context.Context, inquiry *domain.ContactInquiry) error {
	return r.coll.update(ctx, inquiry.ID, inquiry)
}

func (r *inquiryRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

func (r *inquiryRepository) List(ctx context.Context, filter domain.InquiryFilter) ([]domain.ContactInquiry, error) {
	q := docstore.Query{}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if filter.InquiryType != "" {
		q = q.Where("inquiryType", string(filter.InquiryType))
	}
	items, err := r.coll.list(ctx, limitQuery(q, filter.Limit))
	if err != nil {
		return nil, err
	}
	for i := range items {
		normalizeInquiry(&items[i])
	}
	return items, nil
}

func (r *inquiryRepository) TransitionStatus(ctx context.Context, id string, from, to domain.InquiryStatus) (*domain.ContactInquiry, error) {
	inquiry, err := r.coll.transition(ctx, id, domain.InquiryStatusAliases(from), string(to), nil)
	if err != nil {
		return nil, err
	}
	normalizeInquiry(inquiry)
	return inquiry, nil
}

func normalizeInquiry(inquiry *domain.ContactInquiry) {
	if st, ok := domain.ParseInquiryStatus(string(inquiry.Status)); ok {
		inquiry.Status = st
	}
}
