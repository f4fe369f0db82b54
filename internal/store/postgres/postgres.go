package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"myshop/backend/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	data JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);
`

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Store keeps every collection in one JSONB table keyed by (collection, id).
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the documents table and its indexes when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Create(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	if strings.TrimSpace(id) == "" {
		return store.Document{}, fmt.Errorf("document id is required")
	}
	payload, err := json.Marshal(nonNil(fields))
	if err != nil {
		return store.Document{}, err
	}

	doc := store.Document{ID: id, Data: store.CloneData(fields)}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES ($1, $2, $3::jsonb, now(), now())
		RETURNING created_at, updated_at
	`, collection, id, string(payload)).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if isUniqueViolation(err) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrDuplicateID)
	}
	if err != nil {
		return store.Document{}, err
	}
	return doc, nil
}

func (s *Store) Get(ctx context.Context, collection string, id string) (store.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return doc, err
}

// Update merges fields into the stored object in a single statement.
func (s *Store) Update(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	payload, err := json.Marshal(nonNil(fields))
	if err != nil {
		return store.Document{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE documents
		SET data = data || $3::jsonb, updated_at = now()
		WHERE collection = $1 AND id = $2
		RETURNING id, data, created_at, updated_at
	`, collection, id, string(payload))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return doc, err
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, q store.Query) (store.Page, error) {
	if err := store.ValidateQuery(q); err != nil {
		return store.Page{}, err
	}
	where, args, err := buildWhere(collection, q.Filters)
	if err != nil {
		return store.Page{}, err
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT count(*) FROM documents WHERE "+where, args...).Scan(&total); err != nil {
		return store.Page{}, err
	}

	orderBy, args := buildOrderBy(q.Sort, args)
	query := "SELECT id, data, created_at, updated_at FROM documents WHERE " + where + " ORDER BY " + orderBy
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return store.Page{}, err
	}
	defer rows.Close()

	docs := make([]store.Document, 0, 32)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return store.Page{}, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return store.Page{}, err
	}
	return store.Page{Documents: docs, Total: total}, nil
}

// buildWhere translates filters into SQL over the data column. Field names
// travel as parameters; the type of the filter value picks the cast.
func buildWhere(collection string, filters []store.Filter) (string, []any, error) {
	args := []any{collection}
	clauses := []string{"collection = $1"}
	param := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range filters {
		var text string
		if f.Field == store.FieldID {
			text = "id"
		} else {
			if !fieldPattern.MatchString(f.Field) {
				return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
			}
			text = "(data->>" + param(f.Field) + "::text)"
		}

		switch f.Op {
		case store.OpContains:
			clauses = append(clauses, fmt.Sprintf("strpos(lower(%s), lower(%s::text)) > 0", text, param(f.Value)))
			continue
		case store.OpIn:
			clauses = append(clauses, fmt.Sprintf("%s = ANY(%s::text[])", text, param(f.Value)))
			continue
		}

		expr, value := text, param(f.Value)
		switch f.Value.(type) {
		case int, int32, int64, float32, float64:
			expr = text + "::numeric"
			value += "::numeric"
		case bool:
			expr = text + "::boolean"
			value += "::boolean"
		case string:
			expr = text + ` COLLATE "C"`
			value += "::text"
		default:
			return "", nil, fmt.Errorf("unsupported filter value %T for %s", f.Value, f.Field)
		}

		switch f.Op {
		case store.OpEqual:
			clauses = append(clauses, fmt.Sprintf("%s = %s", expr, value))
		case store.OpNotEqual:
			clauses = append(clauses, fmt.Sprintf("%s IS DISTINCT FROM %s", expr, value))
		case store.OpGreater:
			clauses = append(clauses, fmt.Sprintf("%s > %s", expr, value))
		case store.OpGreaterEqual:
			clauses = append(clauses, fmt.Sprintf("%s >= %s", expr, value))
		case store.OpLessEqual:
			clauses = append(clauses, fmt.Sprintf("%s <= %s", expr, value))
		default:
			return "", nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// buildOrderBy sorts numbers numerically and everything else bytewise, with
// missing values first as in the in-process evaluator.
func buildOrderBy(keys []store.SortKey, args []any) (string, []any) {
	parts := make([]string, 0, len(keys)*2+1)
	for _, key := range keys {
		dir, nulls := "ASC", "NULLS FIRST"
		if key.Desc {
			dir, nulls = "DESC", "NULLS LAST"
		}
		if key.Field == store.FieldID {
			parts = append(parts, fmt.Sprintf(`id COLLATE "C" %s`, dir))
			continue
		}
		if !fieldPattern.MatchString(key.Field) {
			continue
		}
		args = append(args, key.Field)
		p := fmt.Sprintf("$%d::text", len(args))
		parts = append(parts,
			fmt.Sprintf("(CASE WHEN jsonb_typeof(data->%s) = 'number' THEN (data->>%s)::numeric END) %s %s", p, p, dir, nulls),
			fmt.Sprintf(`(data->>%s) COLLATE "C" %s %s`, p, dir, nulls),
		)
	}
	parts = append(parts, `id COLLATE "C" ASC`)
	return strings.Join(parts, ", "), args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (store.Document, error) {
	var (
		doc store.Document
		raw []byte
	)
	if err := row.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return store.Document{}, err
	}
	if err := json.Unmarshal(raw, &doc.Data); err != nil {
		return store.Document{}, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc, nil
}

func nonNil(fields map[string]any) map[string]any {
	if fields == nil {
		return map[string]any{}
	}
	return fields
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
