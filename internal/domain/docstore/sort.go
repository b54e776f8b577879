package docstore

import (
	"sort"
	"strings"
	"time"
)

// SortDocuments orders docs in place by the given field. Missing values sort
// as the zero value, so they land last on a descending order. Ties are broken
// by ascending document id so the result is stable across recomputations.
func SortDocuments(docs []Document, order *OrderBy) {
	sort.SliceStable(docs, func(i, j int) bool {
		if order != nil {
			c := compareValues(docs[i].Data[order.Field], docs[j].Data[order.Field])
			if order.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return docs[i].ID < docs[j].ID
	})
}

// MergeDocuments concatenates pages, keeping the first occurrence of each id.
func MergeDocuments(pages ...[]Document) []Document {
	seen := make(map[string]struct{})
	var out []Document
	for _, page := range pages {
		for _, doc := range page {
			if _, dup := seen[doc.ID]; dup {
				continue
			}
			seen[doc.ID] = struct{}{}
			out = append(out, doc)
		}
	}
	return out
}

func compareValues(a, b interface{}) int {
	switch av := a.(type) {
	case time.Time:
		bv, _ := b.(time.Time)
		return av.Compare(bv)
	case string:
		bv, _ := b.(string)
		return strings.Compare(av, bv)
	case bool:
		bv, _ := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		default:
			return 1
		}
	}
	if af, ok := toFloat(a); ok {
		bf, _ := toFloat(b)
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	// a is missing or of an unsorted type: treat it as the zero value.
	if b == nil {
		return 0
	}
	return -compareValues(b, zeroLike(b))
}

func zeroLike(v interface{}) interface{} {
	switch v.(type) {
	case time.Time:
		return time.Time{}
	case string:
		return ""
	case bool:
		return false
	}
	return int64(0)
}

func toFloat(v interface{}) (float64, bool) {
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
	}
	return 0, false
}
