package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"myshop/backend/internal/domain"
	"myshop/backend/internal/store"
)

// Repository gives typed access to the collections of a document store.
// Every document read back is decoded strictly and validated; a document of
// the wrong shape is reported as an upstream failure.
type Repository struct {
	docs store.DocumentStore
}

func New(docs store.DocumentStore) *Repository {
	return &Repository{docs: docs}
}

type record[T any] interface {
	*T
	SetID(string)
	Validate() error
}

// encode turns a record or a partial field map into document fields using the
// record's JSON names.
func encode(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	delete(fields, "id")
	return fields, nil
}

func decode[T any, P record[T]](collection string, doc store.Document) (T, error) {
	var out T
	raw, err := json.Marshal(doc.Data)
	if err != nil {
		return out, fmt.Errorf("%w: %s/%s: %w", domain.ErrUpstream, collection, doc.ID, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return out, fmt.Errorf("%w: %s/%s has unexpected shape: %v", domain.ErrUpstream, collection, doc.ID, err)
	}
	p := P(&out)
	p.SetID(doc.ID)
	if err := p.Validate(); err != nil {
		return out, fmt.Errorf("%w: %s/%s failed validation: %v", domain.ErrUpstream, collection, doc.ID, err)
	}
	return out, nil
}

func translate(err error, entity string, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrUpstream):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s %s", domain.ErrNotFound, entity, id)
	case errors.Is(err, store.ErrDuplicateID):
		return fmt.Errorf("%w: %s %s already exists", domain.ErrConflict, entity, id)
	default:
		return fmt.Errorf("%w: %s %s: %w", domain.ErrUpstream, entity, id, err)
	}
}

func create[T any, P record[T]](ctx context.Context, r *Repository, collection, entity, id string, rec P) (T, error) {
	var zero T
	if err := rec.Validate(); err != nil {
		return zero, err
	}
	fields, err := encode(rec)
	if err != nil {
		return zero, err
	}
	doc, err := r.docs.Create(ctx, collection, id, fields)
	if err != nil {
		return zero, translate(err, entity, id)
	}
	return decode[T, P](collection, doc)
}

func get[T any, P record[T]](ctx context.Context, r *Repository, collection, entity, id string) (T, error) {
	doc, err := r.docs.Get(ctx, collection, id)
	if err != nil {
		var zero T
		return zero, translate(err, entity, id)
	}
	return decode[T, P](collection, doc)
}

func update[T any, P record[T]](ctx context.Context, r *Repository, collection, entity, id string, changes any) (T, error) {
	var zero T
	fields, err := encode(changes)
	if err != nil {
		return zero, err
	}
	doc, err := r.docs.Update(ctx, collection, id, fields)
	if err != nil {
		return zero, translate(err, entity, id)
	}
	return decode[T, P](collection, doc)
}

func remove(ctx context.Context, r *Repository, collection, entity, id string) error {
	return translate(r.docs.Delete(ctx, collection, id), entity, id)
}

func list[T any, P record[T]](ctx context.Context, r *Repository, collection string, q store.Query) ([]T, int, error) {
	page, err := r.docs.List(ctx, collection, q)
	if err != nil {
		return nil, 0, translate(err, collection, "query")
	}
	out := make([]T, 0, len(page.Documents))
	for _, doc := range page.Documents {
		item, err := decode[T, P](collection, doc)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, item)
	}
	return out, page.Total, nil
}

func count(ctx context.Context, r *Repository, collection string, filters ...store.Filter) (int, error) {
	page, err := r.docs.List(ctx, collection, store.Query{Filters: filters, Limit: 1})
	if err != nil {
		return 0, translate(err, collection, "count")
	}
	return page.Total, nil
}
