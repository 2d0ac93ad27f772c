package docstore

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps documents in process. Transactions hold the store lock
// for their whole duration, so they are serializable.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]Document
	now         func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the timestamp source.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.create(collection, data), nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(collection, id)
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, patch Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.update(collection, id, patch)
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.delete(collection, id)
}

func (s *MemoryStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list(collection, q), nil
}

func (s *MemoryStore) list(collection string, q Query) []Document {
	var out []Document
	for id, doc := range s.collections[collection] {
		if matches(doc, q.Filters) {
			out = append(out, withID(doc, id))
		}
	}
	field := q.orderField()
	sort.SliceStable(out, func(i, j int) bool {
		c := compareValues(out[i][field], out[j][field])
		if c == 0 {
			c = strings.Compare(out[i].ID(), out[j].ID())
		}
		if q.Descending {
			return c > 0
		}
		return c < 0
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func (s *MemoryStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for _, w := range tx.writes {
		if err := w(); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) create(collection string, data Document) string {
	id := uuid.NewString()
	s.put(collection, id, data, false)
	return id
}

func (s *MemoryStore) put(collection, id string, data Document, keepCreated bool) {
	now := s.now()
	doc := cloneDocument(stripReserved(data, keepCreated))
	if _, ok := doc[FieldCreatedAt]; !ok {
		doc[FieldCreatedAt] = now
	}
	doc[FieldUpdatedAt] = now
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]Document)
	}
	s.collections[collection][id] = doc
}

func (s *MemoryStore) get(collection, id string) (Document, error) {
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return withID(doc, id), nil
}

func (s *MemoryStore) update(collection, id string, patch Document) error {
	doc, ok := s.collections[collection][id]
	if !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	for k, v := range stripReserved(patch, false) {
		doc[k] = cloneValue(v)
	}
	doc[FieldUpdatedAt] = s.now()
	return nil
}

func (s *MemoryStore) delete(collection, id string) error {
	if _, ok := s.collections[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	delete(s.collections[collection], id)
	return nil
}

// memoryTx buffers writes until the callback returns successfully.
type memoryTx struct {
	store  *MemoryStore
	writes []func() error
}

func (t *memoryTx) Get(collection, id string) (Document, error) {
	if len(t.writes) > 0 {
		return nil, fmt.Errorf("read of %s/%s after write in transaction", collection, id)
	}
	return t.store.get(collection, id)
}

func (t *memoryTx) List(collection string, q Query) ([]Document, error) {
	if len(t.writes) > 0 {
		return nil, fmt.Errorf("list of %s after write in transaction", collection)
	}
	return t.store.list(collection, q), nil
}

func (t *memoryTx) Create(collection string, data Document) (string, error) {
	id := uuid.NewString()
	data = cloneDocument(data)
	t.writes = append(t.writes, func() error {
		t.store.put(collection, id, data, false)
		return nil
	})
	return id, nil
}

func (t *memoryTx) Set(collection, id string, data Document) error {
	data = cloneDocument(data)
	t.writes = append(t.writes, func() error {
		t.store.put(collection, id, data, true)
		return nil
	})
	return nil
}

func (t *memoryTx) Update(collection, id string, patch Document) error {
	if _, ok := t.store.collections[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	patch = cloneDocument(patch)
	t.writes = append(t.writes, func() error {
		return t.store.update(collection, id, patch)
	})
	return nil
}

func (t *memoryTx) Delete(collection, id string) error {
	t.writes = append(t.writes, func() error {
		return t.store.delete(collection, id)
	})
	return nil
}

func withID(doc Document, id string) Document {
	out := cloneDocument(doc)
	out[FieldID] = id
	return out
}

func matches(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if compareValues(doc[f.Field], f.Value) != 0 {
			return false
		}
	}
	return true
}

// compareValues orders nil first, then numbers, times and strings by value.
// Values of different kinds compare by their string form.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if ab, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(cloneDocument(Document(t)))
	case Document:
		return cloneDocument(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
