package article

import (
	"fmt"
	"sort"
)

// SortKey selects the presentation order of a result set.
type SortKey string

const (
	SortRelevance SortKey = "relevance"
	SortImpact    SortKey = "impact-desc"
	SortYear      SortKey = "year-desc"
	SortCitations SortKey = "citations-desc"
)

// DefaultSort is the view shown right after a search completes.
const DefaultSort = SortImpact

// SortKeys lists every key in selector order.
var SortKeys = []SortKey{SortImpact, SortRelevance, SortYear, SortCitations}

// Label is the human name shown in the sort selector.
func (k SortKey) Label() string {
	switch k {
	case SortImpact:
		return "Impact"
	case SortRelevance:
		return "Relevance"
	case SortYear:
		return "Newest"
	case SortCitations:
		return "Most cited"
	default:
		return string(k)
	}
}

// Next returns the key after k in selector order, wrapping around.
func (k SortKey) Next() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i+1)%len(SortKeys)]
		}
	}
	return DefaultSort
}

// Prev returns the key before k in selector order, wrapping around.
func (k SortKey) Prev() SortKey {
	for i, key := range SortKeys {
		if key == k {
			return SortKeys[(i-1+len(SortKeys))%len(SortKeys)]
		}
	}
	return DefaultSort
}

// ParseSortKey validates a user supplied key.
func ParseSortKey(s string) (SortKey, error) {
	for _, key := range SortKeys {
		if string(key) == s {
			return key, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q (want one of %v)", s, SortKeys)
}

// Order returns a new slice holding records in the order selected by key.
// The input is never modified. Ties keep their input order, so calling Order
// twice with the same key gives the same result as calling it once.
// SortRelevance (and any unknown key) keeps the backend's order.
func Order(records []Record, key SortKey) []Record {
	result := make([]Record, len(records))
	copy(result, records)

	var less func(a, b Record) bool
	switch key {
	case SortImpact:
		less = func(a, b Record) bool { return a.ImpactScore > b.ImpactScore }
	case SortYear:
		less = func(a, b Record) bool { return a.Year > b.Year }
	case SortCitations:
		less = func(a, b Record) bool { return a.Citations > b.Citations }
	default:
		return result
	}

	sort.SliceStable(result, func(i, j int) bool {
		return less(result[i], result[j])
	})
	return result
}
