package docstore

// InClause is a membership filter whose value list may exceed the backend's
// limit. It is split into chunks before it reaches a DocumentStore.
type InClause struct {
	Field  string
	Values []string
}

// ScopedQuery describes everything a list screen needs to read: the fixed
// filters, an optional oversized membership filter and the intended order.
type ScopedQuery struct {
	Collection string
	Filters    []Filter
	In         *InClause
	OrderBy    *OrderBy
}

func (s ScopedQuery) Batched() bool {
	return s.In != nil
}

// Single returns the plain query for a scope without an IN clause.
func (s ScopedQuery) Single() Query {
	return Query{
		Collection: s.Collection,
		Filters:    append([]Filter(nil), s.Filters...),
		OrderBy:    s.OrderBy,
	}
}

// Chunks splits the IN clause into queries of at most size values each, in
// scope order. A scope without values yields no queries.
func (s ScopedQuery) Chunks(size int) []Query {
	if s.In == nil {
		return []Query{s.Single()}
	}
	if size < 1 {
		size = 1
	}
	values := s.In.Values
	out := make([]Query, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		chunk := append([]string(nil), values[start:end]...)
		q := s.Single()
		q.Filters = append(q.Filters, In(s.In.Field, chunk))
		out = append(out, q)
	}
	return out
}
