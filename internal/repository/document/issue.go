package document

import (
	"context"

	"github.com/shopspring/decimal"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

type issueRepository struct {
	store docstore.Store
	coll  collection[domain.Issue]
}

func NewIssueRepository(store docstore.Store) repository.IssueRepository {
	return &issueRepository{
		store: store,
		coll: collection[domain.Issue]{
			store:     store,
			name:      docstore.CollectionIssues,
			entity:    "issue",
			readOnly:  []string{"status", "raisedAmount"},
			clearable: []string{"images"},
		},
	}
}

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	return r.coll.create(ctx, issue)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	return r.coll.get(ctx, id)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	return r.coll.update(ctx, issue.ID, issue)
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	return r.coll.delete(ctx, id)
}

func (r *issueRepository) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	q := docstore.Query{}
	if filter.OrphanageID != "" {
		q = q.Where("orphanageId", filter.OrphanageID)
	}
	if filter.Status != "" {
		q = q.Where("status", string(filter.Status))
	}
	if filter.Category != "" {
		q = q.Where("category", string(filter.Category))
	}
	if filter.Priority != "" {
		q = q.Where("priority", string(filter.Priority))
	}
	return r.coll.list(ctx, limitQuery(q, filter.Limit))
}

func (r *issueRepository) TransitionStatus(ctx context.Context, id string, from, to domain.IssueStatus) (*domain.Issue, error) {
	return r.coll.transition(ctx, id, []string{string(from)}, string(to), nil)
}

func (r *issueRepository) RaiseAmountTo(ctx context.Context, id string, amount decimal.Decimal) (bool, error) {
	logger.EnterMethod("issueRepository.RaiseAmountTo", "id", id, "amount", amount.String())

	raised := false
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(docstore.CollectionIssues, id)
		if err != nil {
			return r.coll.mapErr(id, err)
		}
		var issue domain.Issue
		if err := docstore.Decode(doc, &issue); err != nil {
			return err
		}
		if !amount.GreaterThan(issue.RaisedAmount) {
			return nil
		}
		raised = true
		return tx.Update(docstore.CollectionIssues, id, docstore.Document{"raisedAmount": amount.String()})
	})
	if err != nil {
		logger.ExitMethodWithError("issueRepository.RaiseAmountTo", err, "id", id)
		return false, err
	}

	logger.ExitMethod("issueRepository.RaiseAmountTo", "id", id, "raised", raised)
	return raised, nil
}
