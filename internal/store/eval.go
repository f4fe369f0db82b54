package store

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Apply evaluates q over docs in process. Backends without a query engine of
// their own (memory, sqlite) share it so that every backend answers a query the
// same way.
func Apply(docs []Document, q Query) (Page, error) {
	if err := ValidateQuery(q); err != nil {
		return Page{}, err
	}

	matched := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if Match(doc, q.Filters) {
			matched = append(matched, doc)
		}
	}

	if len(q.Sort) > 0 {
		slices.SortStableFunc(matched, func(a, b Document) int {
			for _, key := range q.Sort {
				c := compareAny(fieldValue(a, key.Field), fieldValue(b, key.Field))
				if key.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	total := len(matched)
	start := min(q.Offset, total)
	end := total
	if q.Limit > 0 {
		end = min(start+q.Limit, total)
	}
	return Page{Documents: matched[start:end], Total: total}, nil
}

func ValidateQuery(q Query) error {
	if q.Limit < 0 || q.Offset < 0 {
		return fmt.Errorf("limit and offset must not be negative")
	}
	for _, f := range q.Filters {
		switch f.Op {
		case OpEqual, OpNotEqual, OpGreater, OpGreaterEqual, OpLessEqual:
		case OpContains:
			if _, ok := f.Value.(string); !ok {
				return fmt.Errorf("contains filter on %s needs a string", f.Field)
			}
		case OpIn:
			if _, ok := f.Value.([]string); !ok {
				return fmt.Errorf("in filter on %s needs a []string", f.Field)
			}
		default:
			return fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}
	return nil
}

// Match reports whether doc satisfies every filter.
func Match(doc Document, filters []Filter) bool {
	for _, f := range filters {
		if !matchOne(fieldValue(doc, f.Field), f) {
			return false
		}
	}
	return true
}

func matchOne(value any, f Filter) bool {
	switch f.Op {
	case OpEqual:
		return value != nil && compareAny(value, f.Value) == 0
	case OpNotEqual:
		return value == nil || compareAny(value, f.Value) != 0
	case OpGreater:
		return orderable(value, f.Value) && compareAny(value, f.Value) > 0
	case OpGreaterEqual:
		return orderable(value, f.Value) && compareAny(value, f.Value) >= 0
	case OpLessEqual:
		return orderable(value, f.Value) && compareAny(value, f.Value) <= 0
	case OpContains:
		s, ok := value.(string)
		needle, _ := f.Value.(string)
		return ok && strings.Contains(strings.ToLower(s), strings.ToLower(needle))
	case OpIn:
		s, ok := value.(string)
		if !ok {
			return false
		}
		values, _ := f.Value.([]string)
		return slices.Contains(values, s)
	}
	return false
}

func fieldValue(doc Document, field string) any {
	if field == FieldID {
		return doc.ID
	}
	return doc.Data[field]
}

func orderable(a, b any) bool {
	if _, ok := toFloat(a); ok {
		_, ok = toFloat(b)
		return ok
	}
	_, aok := a.(string)
	_, bok := b.(string)
	return aok && bok
}

// compareAny orders numbers numerically, strings bytewise, false before true,
// and nil before everything else.
func compareAny(a, b any) int {
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
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return cmp.Compare(fa, fb)
		}
	}
	if sa, ok := a.(string); ok {
		if sb, ok := b.(string); ok {
			return strings.Compare(sa, sb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			default:
				return 1
			}
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// CloneData deep-copies a JSON-shaped map.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Merge applies a partial update on top of base.
func Merge(base map[string]any, fields map[string]any) map[string]any {
	out := CloneData(base)
	for k, v := range fields {
		out[k] = cloneValue(v)
	}
	return out
}
