package document

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"foundation-backend/internal/docstore"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
)

const fieldStatus = "status"

// collection holds the CRUD plumbing shared by every repository.
type collection[T any] struct {
	store  docstore.Store
	name   string
	entity string
	// readOnly fields are never written by update.
	readOnly []string
	// clearable fields are written as null by update when empty.
	clearable []string
}

func (c collection[T]) create(ctx context.Context, entity *T) error {
	logger.EnterMethod(c.entity+"Repository.Create")

	doc, err := docstore.Encode(entity)
	if err != nil {
		return err
	}
	id, err := c.store.Create(ctx, c.name, doc)
	if err != nil {
		logger.ExitMethodWithError(c.entity+"Repository.Create", err)
		return err
	}
	// Read back to pick up the stored timestamps.
	stored, err := c.get(ctx, id)
	if err != nil {
		return err
	}
	*entity = *stored

	logger.ExitMethod(c.entity+"Repository.Create", "id", id)
	return nil
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, c.mapErr(id, err)
	}
	var out T
	if err := docstore.Decode(doc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// findOne returns the first document matching q or domain.ErrNotFound.
func (c collection[T]) findOne(ctx context.Context, q docstore.Query, key string) (*T, error) {
	q.Limit = 1
	items, err := c.list(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%s %s: %w", c.entity, key, domain.ErrNotFound)
	}
	return &items[0], nil
}

func (c collection[T]) update(ctx context.Context, id string, entity *T) error {
	logger.EnterMethod(c.entity+"Repository.Update", "id", id)

	patch, err := c.patchFrom(entity)
	if err != nil {
		return err
	}
	if err := c.store.Update(ctx, c.name, id, patch); err != nil {
		logger.ExitMethodWithError(c.entity+"Repository.Update", err, "id", id)
		return c.mapErr(id, err)
	}

	logger.ExitMethod(c.entity+"Repository.Update", "id", id)
	return nil
}

func (c collection[T]) patch(ctx context.Context, id string, patch docstore.Document) error {
	if err := c.store.Update(ctx, c.name, id, patch); err != nil {
		return c.mapErr(id, err)
	}
	return nil
}

func (c collection[T]) delete(ctx context.Context, id string) error {
	logger.EnterMethod(c.entity+"Repository.Delete", "id", id)
	if err := c.store.Delete(ctx, c.name, id); err != nil {
		logger.ExitMethodWithError(c.entity+"Repository.Delete", err, "id", id)
		return c.mapErr(id, err)
	}
	logger.ExitMethod(c.entity+"Repository.Delete", "id", id)
	return nil
}

func (c collection[T]) list(ctx context.Context, q docstore.Query) ([]T, error) {
	docs, err := c.store.List(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	return docstore.DecodeAll[T](docs)
}

// transition is a compare-and-swap on the status field. The current status
// is read and the new one written inside a single transaction. from lists
// the stored values accepted as the expected state.
func (c collection[T]) transition(ctx context.Context, id string, from []string, to string, mutate func(*T)) (*T, error) {
	logger.EnterMethod(c.entity+"Repository.TransitionStatus", "id", id, "from", from, "to", to)

	var out T
	err := c.store.RunTransaction(ctx, func(ctx context.Context, tx docstore.Tx) error {
		doc, err := tx.Get(c.name, id)
		if err != nil {
			return c.mapErr(id, err)
		}
		current, _ := doc[fieldStatus].(string)
		if !slices.Contains(from, current) {
			return &domain.TransitionError{Entity: c.entity, From: current, To: to}
		}
		if err := docstore.Decode(doc, &out); err != nil {
			return err
		}
		if mutate != nil {
			mutate(&out)
		}
		patch, err := docstore.Encode(&out)
		if err != nil {
			return err
		}
		patch[fieldStatus] = to
		if err := tx.Update(c.name, id, patch); err != nil {
			return c.mapErr(id, err)
		}
		// Reflect the write in the returned entity.
		return docstore.Decode(docstore.Document{fieldStatus: to, docstore.FieldUpdatedAt: time.Now().UTC()}, &out)
	})
	if err != nil {
		logger.ExitMethodWithError(c.entity+"Repository.TransitionStatus", err, "id", id)
		return nil, err
	}

	logger.ExitMethod(c.entity+"Repository.TransitionStatus", "id", id, "status", to)
	return &out, nil
}

func (c collection[T]) patchFrom(entity *T) (docstore.Document, error) {
	patch, err := docstore.Encode(entity)
	if err != nil {
		return nil, err
	}
	for _, f := range c.readOnly {
		delete(patch, f)
	}
	for _, f := range c.clearable {
		if _, ok := patch[f]; !ok {
			patch[f] = nil
		}
	}
	return patch, nil
}

func (c collection[T]) mapErr(id string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%s %s: %w", c.entity, id, domain.ErrNotFound)
	}
	return err
}

func limitQuery(q docstore.Query, limit int) docstore.Query {
	q.Descending = true
	q.Limit = limit
	return q
}
