package docstore

import (
	"context"
	"errors"
)

// Collection names used by the platform.
const (
	CollectionDonations        = "donations"
	CollectionIssues           = "issues"
	CollectionVolunteers       = "volunteers"
	CollectionOrphanages       = "orphanages"
	CollectionFinancialRecords = "financialRecords"
	CollectionContactInquiries = "contactInquiries"
	CollectionBlogPosts        = "blogPosts"
	CollectionEvents           = "events"
	CollectionLedgerSummary    = "ledgerSummary"
)

const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var ErrNotFound = errors.New("document not found")

// Document is a stored record keyed by field name. Documents returned by a
// Store always carry their id under FieldID.
type Document map[string]any

func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}

// Filter is an equality match on a top-level field.
type Filter struct {
	Field string
	Value any
}

type Query struct {
	Filters []Filter
	// OrderBy defaults to createdAt.
	OrderBy    string
	Descending bool
	// Limit of 0 returns every match.
	Limit int
}

func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

func (q Query) orderField() string {
	if q.OrderBy == "" {
		return FieldCreatedAt
	}
	return q.OrderBy
}

// Tx is the view of the store inside RunTransaction. All reads must happen
// before the first write.
type Tx interface {
	Get(collection, id string) (Document, error)
	List(collection string, q Query) ([]Document, error)
	Create(collection string, data Document) (string, error)
	// Set creates or replaces the document. createdAt is kept when present in data.
	Set(collection, id string, data Document) error
	Update(collection, id string, patch Document) error
	Delete(collection, id string) error
}

type Store interface {
	Create(ctx context.Context, collection string, data Document) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges patch into the top level of the document and restamps updatedAt.
	Update(ctx context.Context, collection, id string, patch Document) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, q Query) ([]Document, error)
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close() error
}

// stripReserved removes fields the store owns from caller supplied data.
func stripReserved(data Document, keepCreated bool) Document {
	out := make(Document, len(data))
	for k, v := range data {
		switch k {
		case FieldID, FieldUpdatedAt:
			continue
		case FieldCreatedAt:
			if !keepCreated {
				continue
			}
		}
		out[k] = v
	}
	return out
}
