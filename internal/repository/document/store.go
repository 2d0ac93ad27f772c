package document

import (
	"foundation-backend/internal/docstore"
	"foundation-backend/internal/repository"
)

// Store groups every collection repository over one document store.
type Store struct {
	docs docstore.Store
	repository.DonationRepository
	repository.IssueRepository
	repository.OrphanageRepository
	repository.VolunteerRepository
	repository.FinancialRecordRepository
	repository.InquiryRepository
	repository.BlogPostRepository
	repository.EventRepository
}

func NewStore(docs docstore.Store) *Store {
	return &Store{
		docs:                      docs,
		DonationRepository:        NewDonationRepository(docs),
		IssueRepository:           NewIssueRepository(docs),
		OrphanageRepository:       NewOrphanageRepository(docs),
		VolunteerRepository:       NewVolunteerRepository(docs),
		FinancialRecordRepository: NewFinancialRecordRepository(docs),
		InquiryRepository:         NewInquiryRepository(docs),
		BlogPostRepository:        NewBlogPostRepository(docs),
		EventRepository:           NewEventRepository(docs),
	}
}

func (s *Store) Close() error {
	return s.docs.Close()
}
