// Package metric reduces raw point events into per-sector values ready for
// classification: category-filtered counting, density normalization, and
// log scaling.
package metric

import (
	"github.com/setorlab/choromap/internal/model"
)

// CategorySet selects which event categories participate in an aggregation.
type CategorySet map[int]struct{}

// NewCategorySet builds a set from category codes. An empty set accepts
// every category.
func NewCategorySet(codes ...int) CategorySet {
	s := make(CategorySet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether the set admits the given category. A nil or
// empty set admits everything.
func (s CategorySet) Contains(code int) bool {
	if len(s) == 0 {
		return true
	}
	_, ok := s[code]
	return ok
}

// Aggregate counts matching events per unit. Events whose category is not
// in the set are discarded silently. Units with no matching events do not
// appear in the result: absence of data is distinct from a zero count and
// must stay distinguishable downstream.
func Aggregate(events []model.RawEvent, categories CategorySet) map[string]int {
	counts := make(map[string]int)
	for _, ev := range events {
		if !categories.Contains(ev.Category) {
			continue
		}
		counts[ev.UnitID]++
	}
	return counts
}
