package document

import (
	"context"
	"errors"
	"time"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

type donationRepository struct {
	store docstore.Store
	coll  collection[domain.Donation]
}

func NewDonationRepository(store docstore.Store) repository.DonationRepository {
	return &donationRepository{
		store: store,
		coll:  collection[domain.Donation]{store: store, name: docstore.CollectionDonations, entity: "donation"},
	}
}

func (r *donationRepository) Create(ctx context.Context, donation *domain.Donation) error {
	return r.coll.create(ctx, donation)
}

func (r *donationRepository) GetByID(ctx context.Context, id string) (*domain.Donation, error) {
	return r.coll.get(ctx, id)
}

func (r *donationRepository) GetByReference(ctx context.Context, reference string) (*domain.Donation, error) {
	return r.coll.findOne(ctx, docstore.Query{}.Where("reference", reference), reference)
}

func (r *donationRepository) List(ctx context.Context, filter domain.DonationFilter) ([]domain.Donation, error) {
	q := docstore.Query{}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if filter.IssueID != "" {
		q = q.Where("issueId", filter.IssueID)
	}
	if filter.DonorID != "" {
		q = q.Where("donorId", filter.DonorID)
	}
	return r.coll.list(ctx, limitQuery(q, filter.Limit))
}

func (r *donationRepository) SetAuthorizationURL(ctx context.Context, id, url string) error {
	return r.coll.patch(ctx, id, docstore.Document{"authorizationUrl": url})
}

func (r *donationRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

func (r *donationRepository) TransitionStatus(ctx context.Context, id string, from, to domain.DonationStatus, mutate func(*domain.Donation)) (*domain.Donation, error) {
	return r.coll.transition(ctx, id, []string{string(from)}, string(to), mutate)
}

func (r *donationRepository) Complete(ctx context.Context, id string, paidAt time.Time) (*domain.Donation, error) {
	logger.EnterMethod("donationRepository.Complete", "id", id)

	var donation domain.Donation
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(docstore.CollectionDonations, id)
		if err != nil {
			return r.coll.mapErr(id, err)
		}
		if err := docstore.Decode(doc, &donation); err != nil {
			return err
		}
		if !donation.Status.CanTransitionTo(domain.DonationStatusCompleted) {
			return &domain.TransitionError{Entity: "donation", From: string(donation.Status), To: string(domain.DonationStatusCompleted)}
		}

		var creditIssue *domain.Issue
		if donation.IssueID != "" {
			issueDoc, err := tx.Get(docstore.CollectionIssues, donation.IssueID)
			switch {
			case err == nil:
				var issue domain.Issue
				if err := docstore.Decode(issueDoc, &issue); err != nil {
					return err
				}
				if issue.Currency == "" || issue.Currency == donation.Currency {
					creditIssue = &issue
				} else {
					logger.Warn("Donation currency differs from issue currency, raised amount not credited",
						"donationID", id, "issueID", issue.ID, "donationCurrency", donation.Currency, "issueCurrency", issue.Currency)
				}
			case isNotFound(err):
				logger.Warn("Target issue of donation no longer exists", "donationID", id, "issueID", donation.IssueID)
			default:
				return err
			}
		}

		paid := paidAt.UTC()
		donation.Status = domain.DonationStatusCompleted
		donation.PaidAt = &paid
		donation.FailureReason = ""
		if err := tx.Update(docstore.CollectionDonations, id, docstore.Document{
			"status":        string(domain.DonationStatusCompleted),
			"paidAt":        paid,
			"failureReason": nil,
		}); err != nil {
			return err
		}

		if creditIssue != nil {
			raised := creditIssue.RaisedAmount.Add(donation.Amount)
			if err := tx.Update(docstore.CollectionIssues, creditIssue.ID, docstore.Document{
				"raisedAmount": raised.String(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("donationRepository.Complete", err, "id", id)
		return nil, err
	}
	donation.UpdatedAt = time.Now().UTC()

	logger.ExitMethod("donationRepository.Complete", "id", id, "issueID", donation.IssueID)
	return &donation, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, docstore.ErrNotFound) || errors.Is(err, domain.ErrNotFound)
}
