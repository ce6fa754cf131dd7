package docs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Run evaluates q against every document of its collection, returning the
// filtered, ordered and limited result set.
func Run(q Query, all []Document) []Document {
	if q.DocID != "" {
		for _, d := range all {
			if d.ID == q.DocID {
				return []Document{d}
			}
		}
		return nil
	}

	out := make([]Document, 0, len(all))
	for _, d := range all {
		if q.OrderBy != "" && d.Get(q.OrderBy) == nil {
			continue
		}
		if matchesAll(d, q.Filters) {
			out = append(out, d)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], q.OrderBy, q.Desc)
	})

	if q.StartAfter != nil {
		pos := &Document{ID: q.StartAfter.ID, Data: map[string]any{q.OrderBy: q.StartAfter.Value}}
		idx := sort.Search(len(out), func(i int) bool {
			return less(*pos, out[i], q.OrderBy, q.Desc)
		})
		out = out[idx:]
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func less(a, b Document, field string, desc bool) bool {
	if field != "" {
		if c, ok := compare(a.Get(field), b.Get(field)); ok && c != 0 {
			if desc {
				return c > 0
			}
			return c < 0
		}
	}
	if desc {
		return a.ID > b.ID
	}
	return a.ID < b.ID
}

func matchesAll(d Document, filters []Filter) bool {
	for _, f := range filters {
		if !matches(d.Get(f.Field), f) {
			return false
		}
	}
	return true
}

func matches(v any, f Filter) bool {
	switch f.Op {
	case OpEq:
		return equal(v, f.Value)
	case OpGTE:
		c, ok := compare(v, f.Value)
		return ok && c >= 0
	case OpLT:
		c, ok := compare(v, f.Value)
		return ok && c < 0
	case OpIn:
		for _, candidate := range list(f.Value) {
			if equal(v, candidate) {
				return true
			}
		}
		return false
	case OpArrayContainsAny:
		have := list(v)
		for _, want := range list(f.Value) {
			for _, h := range have {
				if equal(h, want) {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

// isDate reports whether v is one of the timestamp shapes that only make
// sense as instants. Plain numbers and strings are not dates on their own.
func isDate(v any) bool {
	switch t := v.(type) {
	case Timestamp, *Timestamp, time.Time, *time.Time:
		return true
	case map[string]any:
		_, ok := mapMillis(t)
		return ok
	}
	return false
}

func compare(a, b any) (int, bool) {
	if isDate(a) || isDate(b) {
		am, aok := ToEpochMillis(a)
		bm, bok := ToEpochMillis(b)
		if !aok || !bok {
			return 0, false
		}
		return cmp(am, bm), true
	}
	if an, ok := number(a); ok {
		if bn, ok := number(b); ok {
			switch {
			case an < bn:
				return -1, true
			case an > bn:
				return 1, true
			}
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func cmp(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if c, ok := compare(a, b); ok {
		return c == 0
	}
	if ab, ok := a.(bool); ok {
		bb, ok := b.(bool)
		return ok && ab == bb
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

func list(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []any{t}
	}
}

// normalize round-trips a document through JSON so stored values take the
// same shapes whether they come from memory or disk.
func normalize(doc Document) (Document, error) {
	b, err := json.Marshal(doc.Data)
	if err != nil {
		return Document{}, fmt.Errorf("docs: encode %s: %w", doc.ID, err)
	}
	data := make(map[string]any)
	if err := json.Unmarshal(b, &data); err != nil {
		return Document{}, fmt.Errorf("docs: decode %s: %w", doc.ID, err)
	}
	return Document{ID: doc.ID, Data: data}, nil
}

func cloneDocs(in []Document) []Document {
	if in == nil {
		return nil
	}
	out := make([]Document, len(in))
	for i, d := range in {
		out[i] = Document{ID: d.ID, Data: cloneData(d.Data)}
	}
	return out
}

func cloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case []any:
			out[k] = append([]any(nil), t...)
		case map[string]any:
			out[k] = cloneData(t)
		default:
			out[k] = v
		}
	}
	return out
}
