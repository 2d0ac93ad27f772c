package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"foundation-backend/internal/logger"
)

const documentsSchema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	data       JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_documents_collection_created ON documents (collection, created_at);
`

// sqlExecer is satisfied by *sql.DB and *sql.Tx.
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore keeps every collection in one JSONB table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// EnsureSchema creates the documents table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	logger.DatabaseCall("CREATE TABLE", "documents")
	_, err := s.db.ExecContext(ctx, documentsSchema)
	logger.DatabaseResult("CREATE TABLE", 0, err)
	if err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data Document) (string, error) {
	return pgCreate(ctx, s.db, s.now(), collection, data)
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	return pgGet(ctx, s.db, collection, id, false)
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, patch Document) error {
	return pgUpdate(ctx, s.db, s.now(), collection, id, patch)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return pgDelete(ctx, s.db, collection, id)
}

func (s *PostgresStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	logger.EnterMethod("PostgresStore.List", "collection", collection, "filters", len(q.Filters))

	out, err := pgList(ctx, s.db, collection, q)
	if err != nil {
		logger.ExitMethodWithError("PostgresStore.List", err, "collection", collection)
		return nil, err
	}
	logger.ExitMethod("PostgresStore.List", "count", len(out))
	return out, nil
}

func (s *PostgresStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	t := &postgresTx{ctx: ctx, tx: sqlTx, now: s.now()}
	if err := fn(ctx, t); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// postgresTx locks the rows it reads with SELECT ... FOR UPDATE.
type postgresTx struct {
	ctx context.Context
	tx  *sql.Tx
	now time.Time
}

func (t *postgresTx) Get(collection, id string) (Document, error) {
	return pgGet(t.ctx, t.tx, collection, id, true)
}

func (t *postgresTx) Create(collection string, data Document) (string, error) {
	return pgCreate(t.ctx, t.tx, t.now, collection, data)
}

func (t *postgresTx) Set(collection, id string, data Document) error {
	doc := stripReserved(data, true)
	createdAt := t.now
	if ts, ok := doc[FieldCreatedAt].(time.Time); ok {
		createdAt = ts
	}
	delete(doc, FieldCreatedAt)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}
	query := `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)
	          ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	logger.DatabaseCall("UPSERT", "documents", "collection", collection, "id", id)
	_, err = t.tx.ExecContext(t.ctx, query, collection, id, raw, createdAt, t.now)
	logger.DatabaseResult("UPSERT", 1, err, "collection", collection)
	if err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", collection, id, err)
	}
	return nil
}

func (t *postgresTx) Update(collection, id string, patch Document) error {
	return pgUpdate(t.ctx, t.tx, t.now, collection, id, patch)
}

func (t *postgresTx) Delete(collection, id string) error {
	return pgDelete(t.ctx, t.tx, collection, id)
}

func (t *postgresTx) List(collection string, q Query) ([]Document, error) {
	return pgList(t.ctx, t.tx, collection, q)
}

func pgList(ctx context.Context, db sqlExecer, collection string, q Query) ([]Document, error) {
	args := []any{collection}
	var sb strings.Builder
	sb.WriteString(`SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1`)
	for _, f := range q.Filters {
		args = append(args, f.Field, filterText(f.Value))
		fmt.Fprintf(&sb, ` AND data->>$%d = $%d`, len(args)-1, len(args))
	}

	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	switch field := q.orderField(); field {
	case FieldCreatedAt:
		fmt.Fprintf(&sb, ` ORDER BY created_at %s, id`, dir)
	case FieldUpdatedAt:
		fmt.Fprintf(&sb, ` ORDER BY updated_at %s, id`, dir)
	default:
		args = append(args, field)
		fmt.Fprintf(&sb, ` ORDER BY data->>$%d %s, id`, len(args), dir)
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	logger.DatabaseCall("SELECT", "documents", "collection", collection)
	rows, err := db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "collection", collection)
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", collection, err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}
	logger.DatabaseResult("SELECT", int64(len(out)), nil, "collection", collection)
	return out, nil
}

func pgCreate(ctx context.Context, db sqlExecer, now time.Time, collection string, data Document) (string, error) {
	id := uuid.NewString()
	raw, err := json.Marshal(stripReserved(data, false))
	if err != nil {
		return "", fmt.Errorf("failed to encode %s document: %w", collection, err)
	}
	query := `INSERT INTO documents (collection, id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`
	logger.DatabaseCall("INSERT", "documents", "collection", collection, "id", id)
	_, err = db.ExecContext(ctx, query, collection, id, raw, now, now)
	logger.DatabaseResult("INSERT", 1, err, "collection", collection)
	if err != nil {
		return "", fmt.Errorf("failed to create %s document: %w", collection, err)
	}
	return id, nil
}

func pgGet(ctx context.Context, db sqlExecer, collection, id string, forUpdate bool) (Document, error) {
	query := `SELECT id, data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	logger.DatabaseCall("SELECT", "documents", "collection", collection, "id", id)
	doc, err := scanDocument(db.QueryRowContext(ctx, query, collection, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "collection", collection)
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func pgUpdate(ctx context.Context, db sqlExecer, now time.Time, collection, id string, patch Document) error {
	raw, err := json.Marshal(stripReserved(patch, false))
	if err != nil {
		return fmt.Errorf("failed to encode patch for %s/%s: %w", collection, id, err)
	}
	query := `UPDATE documents SET data = data || $3::jsonb, updated_at = $4 WHERE collection = $1 AND id = $2`
	logger.DatabaseCall("UPDATE", "documents", "collection", collection, "id", id)
	res, err := db.ExecContext(ctx, query, collection, id, raw, now)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "collection", collection)
		return fmt.Errorf("failed to update %s/%s: %w", collection, id, err)
	}
	return requireAffected(res, collection, id)
}

func pgDelete(ctx context.Context, db sqlExecer, collection, id string) error {
	logger.DatabaseCall("DELETE", "documents", "collection", collection, "id", id)
	res, err := db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		logger.DatabaseResult("DELETE", 0, err, "collection", collection)
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	return requireAffected(res, collection, id)
}

func requireAffected(res sql.Result, collection, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		id                   string
		raw                  []byte
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &raw, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	doc := Document{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
	}
	doc[FieldID] = id
	doc[FieldCreatedAt] = createdAt.UTC()
	doc[FieldUpdatedAt] = updatedAt.UTC()
	return doc, nil
}

// filterText renders a filter value the way ->> prints JSON scalars.
func filterText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
