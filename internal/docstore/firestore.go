package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"foundation-backend/internal/logger"
)

// FirestoreStore is the production backend.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps a client, usually obtained from firebase.App.Firestore.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	id := uuid.NewString()
	logger.DatabaseCall("CREATE", collection, "id", id)
	_, err := s.client.Collection(collection).Doc(id).Create(ctx, stampNew(data))
	logger.DatabaseResult("CREATE", 1, err, "collection", collection)
	if err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return id, nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	logger.DatabaseCall("GET", collection, "id", id)
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		logger.DatabaseResult("GET", 0, err, "collection", collection)
		return nil, mapFirestoreError(collection, id, err)
	}
	return snapshotDocument(snap), nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, patch Document) error {
	logger.DatabaseCall("UPDATE", collection, "id", id)
	_, err := s.client.Collection(collection).Doc(id).Update(ctx, toUpdates(patch))
	logger.DatabaseResult("UPDATE", 1, err, "collection", collection)
	if err != nil {
		return mapFirestoreError(collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	logger.DatabaseCall("DELETE", collection, "id", id)
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx, firestore.Exists)
	logger.DatabaseResult("DELETE", 1, err, "collection", collection)
	if err != nil {
		return mapFirestoreError(collection, id, err)
	}
	return nil
}

func (s *FirestoreStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	logger.DatabaseCall("LIST", collection, "filters", len(q.Filters), "limit", q.Limit)

	out, err := collectDocuments(buildQuery(s.client, collection, q).Documents(ctx))
	logger.DatabaseResult("LIST", int64(len(out)), err, "collection", collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return out, nil
}

func collectDocuments(iter *firestore.DocumentIterator) ([]Document, error) {
	defer iter.Stop()

	var out []Document
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, snapshotDocument(snap))
	}
}

func (s *FirestoreStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return s.client.RunTransaction(ctx, func(ctx context.Context, t *firestore.Transaction) error {
		return fn(ctx, &firestoreTx{client: s.client, tx: t})
	})
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func buildQuery(client *firestore.Client, collection string, q Query) firestore.Query {
	query := client.Collection(collection).Query
	for _, f := range q.Filters {
		query = query.Where(f.Field, "==", f.Value)
	}
	dir := firestore.Asc
	if q.Descending {
		dir = firestore.Desc
	}
	query = query.OrderBy(q.orderField(), dir)
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	return query
}

type firestoreTx struct {
	client *firestore.Client
	tx     *firestore.Transaction
}

func (t *firestoreTx) Get(collection, id string) (Document, error) {
	snap, err := t.tx.Get(t.client.Collection(collection).Doc(id))
	if err != nil {
		return nil, mapFirestoreError(collection, id, err)
	}
	return snapshotDocument(snap), nil
}

func (t *firestoreTx) List(collection string, q Query) ([]Document, error) {
	out, err := collectDocuments(t.tx.Documents(buildQuery(t.client, collection, q)))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	return out, nil
}

func (t *firestoreTx) Create(collection string, data Document) (string, error) {
	id := uuid.NewString()
	if err := t.tx.Create(t.client.Collection(collection).Doc(id), stampNew(data)); err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return id, nil
}

func (t *firestoreTx) Set(collection, id string, data Document) error {
	doc := stripReserved(data, true)
	if _, ok := doc[FieldCreatedAt]; !ok {
		doc[FieldCreatedAt] = firestore.ServerTimestamp
	}
	doc[FieldUpdatedAt] = firestore.ServerTimestamp
	if err := t.tx.Set(t.client.Collection(collection).Doc(id), map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *firestoreTx) Update(collection, id string, patch Document) error {
	if err := t.tx.Update(t.client.Collection(collection).Doc(id), toUpdates(patch)); err != nil {
		return mapFirestoreError(collection, id, err)
	}
	return nil
}

func (t *firestoreTx) Delete(collection, id string) error {
	if err := t.tx.Delete(t.client.Collection(collection).Doc(id), firestore.Exists); err != nil {
		return mapFirestoreError(collection, id, err)
	}
	return nil
}

func stampNew(data Document) map[string]any {
	doc := stripReserved(data, false)
	doc[FieldCreatedAt] = firestore.ServerTimestamp
	doc[FieldUpdatedAt] = firestore.ServerTimestamp
	return doc
}

func toUpdates(patch Document) []firestore.Update {
	updates := make([]firestore.Update, 0, len(patch)+1)
	for k, v := range stripReserved(patch, false) {
		updates = append(updates, firestore.Update{Path: k, Value: v})
	}
	return append(updates, firestore.Update{Path: FieldUpdatedAt, Value: firestore.ServerTimestamp})
}

func snapshotDocument(snap *firestore.DocumentSnapshot) Document {
	doc := Document(snap.Data())
	doc[FieldID] = snap.Ref.ID
	return doc
}

func mapFirestoreError(collection, id string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return fmt.Errorf("failed to access %s/%s: %w", collection, id, err)
}
