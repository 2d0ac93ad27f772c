package document

import (
	"context"
	"time"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/repository"
)

// totalsDocID is the single ledger summary document.
const totalsDocID = "totals"

type financialRecordRepository struct {
	store docstore.Store
	coll  collection[domain.FinancialRecord]
}

func NewFinancialRecordRepository(store docstore.Store) repository.FinancialRecordRepository {
	return &financialRecordRepository{
		store: store,
		coll: collection[domain.FinancialRecord]{
			store:     store,
			name:      docstore.CollectionFinancialRecords,
			entity:    "financialRecord",
			clearable: []string{"description", "receiptUrl", "notes"},
		},
	}
}

func (r *financialRecordRepository) GetByID(ctx context.Context, id string) (*domain.FinancialRecord, error) {
	return r.coll.get(ctx, id)
}

func (r *financialRecordRepository) List(ctx context.Context, filter domain.FinancialRecordFilter) ([]domain.FinancialRecord, error) {
	q := docstore.Query{}
	if filter.Type != "" {
		q = q.Where("type", string(filter.Type))
	}
	if filter.Category != "" {
		q = q.Where("category", filter.Category)
	}
	return r.coll.list(ctx, limitQuery(q, filter.Limit))
}

func (r *financialRecordRepository) CreateGuarded(ctx context.Context, record *domain.FinancialRecord, guard repository.LedgerGuard) error {
	logger.EnterMethod("financialRecordRepository.CreateGuarded", "type", record.Type, "amount", record.Amount.String())

	var id string
	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		current, summary, err := readTotals(tx)
		if err != nil {
			return err
		}
		next := current.Apply(*record, 1)
		if guard != nil {
			if err := guard(current, next); err != nil {
				return err
			}
		}
		doc, err := docstore.Encode(record)
		if err != nil {
			return err
		}
		if id, err = tx.Create(docstore.CollectionFinancialRecords, doc); err != nil {
			return err
		}
		return writeTotals(tx, summary, next)
	})
	if err != nil {
		logger.ExitMethodWithError("financialRecordRepository.CreateGuarded", err)
		return err
	}

	stored, err := r.coll.get(ctx, id)
	if err != nil {
		return err
	}
	*record = *stored

	logger.ExitMethod("financialRecordRepository.CreateGuarded", "id", id)
	return nil
}

func (r *financialRecordRepository) UpdateWithTotals(ctx context.Context, record *domain.FinancialRecord, guard repository.LedgerGuard) error {
	logger.EnterMethod("financialRecordRepository.UpdateWithTotals", "id", record.ID)

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		old, err := r.readRecord(tx, record.ID)
		if err != nil {
			return err
		}
		current, summary, err := readTotals(tx)
		if err != nil {
			return err
		}
		next := current.Apply(*old, -1).Apply(*record, 1)
		if guard != nil {
			if err := guard(current, next); err != nil {
				return err
			}
		}
		patch, err := r.coll.patchFrom(record)
		if err != nil {
			return err
		}
		if err := tx.Update(docstore.CollectionFinancialRecords, record.ID, patch); err != nil {
			return r.coll.mapErr(record.ID, err)
		}
		return writeTotals(tx, summary, next)
	})
	if err != nil {
		logger.ExitMethodWithError("financialRecordRepository.UpdateWithTotals", err, "id", record.ID)
		return err
	}

	logger.ExitMethod("financialRecordRepository.UpdateWithTotals", "id", record.ID)
	return nil
}

func (r *financialRecordRepository) DeleteWithTotals(ctx context.Context, id string, guard repository.LedgerGuard) error {
	logger.EnterMethod("financialRecordRepository.DeleteWithTotals", "id", id)

	err := r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		old, err := r.readRecord(tx, id)
		if err != nil {
			return err
		}
		current, summary, err := readTotals(tx)
		if err != nil {
			return err
		}
		next := current.Apply(*old, -1)
		if guard != nil {
			if err := guard(current, next); err != nil {
				return err
			}
		}
		if err := tx.Delete(docstore.CollectionFinancialRecords, id); err != nil {
			return r.coll.mapErr(id, err)
		}
		return writeTotals(tx, summary, next)
	})
	if err != nil {
		logger.ExitMethodWithError("financialRecordRepository.DeleteWithTotals", err, "id", id)
		return err
	}

	logger.ExitMethod("financialRecordRepository.DeleteWithTotals", "id", id)
	return nil
}

// GetTotals sums the records when no summary has been written yet.
func (r *financialRecordRepository) GetTotals(ctx context.Context) (domain.LedgerTotals, error) {
	doc, err := r.store.Get(ctx, docstore.CollectionLedgerSummary, totalsDocID)
	if isNotFound(err) {
		records, err := r.coll.list(ctx, docstore.Query{})
		if err != nil {
			return domain.LedgerTotals{}, err
		}
		return domain.SumRecords(records), nil
	}
	if err != nil {
		return domain.LedgerTotals{}, err
	}
	var totals domain.LedgerTotals
	if err := docstore.Decode(doc, &totals); err != nil {
		return domain.LedgerTotals{}, err
	}
	return totals, nil
}

func (r *financialRecordRepository) SaveTotals(ctx context.Context, totals domain.LedgerTotals) error {
	logger.EnterMethod("financialRecordRepository.SaveTotals", "income", totals.TotalIncome.String(), "expenses", totals.TotalExpenses.String())
	return r.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		_, summary, err := readTotals(tx)
		if err != nil {
			return err
		}
		return writeTotals(tx, summary, totals)
	})
}

func (r *financialRecordRepository) readRecord(tx docstore.Tx, id string) (*domain.FinancialRecord, error) {
	doc, err := tx.Get(docstore.CollectionFinancialRecords, id)
	if err != nil {
		return nil, r.coll.mapErr(id, err)
	}
	var rec domain.FinancialRecord
	if err := docstore.Decode(doc, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// readTotals falls back to summing the stored records when the summary
// document is missing. The caller writes the result back in the same
// transaction.
func readTotals(tx docstore.Tx) (domain.LedgerTotals, docstore.Document, error) {
	doc, err := tx.Get(docstore.CollectionLedgerSummary, totalsDocID)
	if isNotFound(err) {
		docs, err := tx.List(docstore.CollectionFinancialRecords, docstore.Query{})
		if err != nil {
			return domain.LedgerTotals{}, nil, err
		}
		records, err := docstore.DecodeAll[domain.FinancialRecord](docs)
		if err != nil {
			return domain.LedgerTotals{}, nil, err
		}
		logger.Warn("Ledger summary missing, rebuilt from records", "records", len(records))
		return domain.SumRecords(records), nil, nil
	}
	if err != nil {
		return domain.LedgerTotals{}, nil, err
	}
	var totals domain.LedgerTotals
	if err := docstore.Decode(doc, &totals); err != nil {
		return domain.LedgerTotals{}, nil, err
	}
	return totals, doc, nil
}

func writeTotals(tx docstore.Tx, previous docstore.Document, totals domain.LedgerTotals) error {
	totals.UpdatedAt = time.Time{}
	doc, err := docstore.Encode(totals)
	if err != nil {
		return err
	}
	if created, ok := previous[docstore.FieldCreatedAt]; ok {
		doc[docstore.FieldCreatedAt] = created
	}
	return tx.Set(docstore.CollectionLedgerSummary, totalsDocID, doc)
}
