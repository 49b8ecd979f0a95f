package domain

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultPriceCeiling is the upper bound of the default price range.
const DefaultPriceCeiling = 2000

// SortOrder selects the single ordering applied after filtering.
type SortOrder string

const (
	SortNewest    SortOrder = "newest"
	SortOldest    SortOrder = "oldest"
	SortPriceAsc  SortOrder = "price-asc"
	SortPriceDesc SortOrder = "price-desc"
)

// ParseSortOrder accepts the empty string as SortNewest.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.TrimSpace(s)) {
	case "", SortNewest:
		return SortNewest, nil
	case SortOldest:
		return SortOldest, nil
	case SortPriceAsc:
		return SortPriceAsc, nil
	case SortPriceDesc:
		return SortPriceDesc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSort, s)
}

// PriceRange is inclusive on both ends.
type PriceRange struct {
	Lo float64
	Hi float64
}

func (r PriceRange) Contains(price float64) bool {
	return price >= r.Lo && price <= r.Hi
}

// ListingQuery describes one view over the catalog. Zero-valued fields are
// inactive filters; a nil Price disables the price predicate.
type ListingQuery struct {
	Kind      ListingKind
	Term      string
	Category  string
	Condition string
	Price     *PriceRange
	OwnerID   string
	Sort      SortOrder
	Limit     int
}

type predicate func(*Listing) bool

func (q ListingQuery) predicates() []predicate {
	var ps []predicate
	if q.Kind != "" {
		kind := q.Kind
		ps = append(ps, func(l *Listing) bool { return l.Kind == kind })
	}
	if term := strings.ToLower(q.Term); term != "" {
		ps = append(ps, func(l *Listing) bool {
			return strings.Contains(strings.ToLower(l.Title), term) ||
				strings.Contains(strings.ToLower(l.Description), term)
		})
	}
	if q.Category != "" {
		category := q.Category
		ps = append(ps, func(l *Listing) bool { return l.Category == category })
	}
	if q.Condition != "" {
		condition := q.Condition
		ps = append(ps, func(l *Listing) bool { return l.Condition == condition })
	}
	if q.Price != nil {
		rng := *q.Price
		ps = append(ps, func(l *Listing) bool { return rng.Contains(l.Price) })
	}
	return ps
}

// Apply derives the visible listings from source. Owner narrowing runs first,
// then every active predicate, then one stable sort so ties keep their source
// order. source is never modified.
func Apply(source []Listing, q ListingQuery) []Listing {
	ps := q.predicates()
	out := make([]Listing, 0, len(source))

next:
	for i := range source {
		l := &source[i]
		if q.OwnerID != "" && l.UserID != q.OwnerID {
			continue
		}
		for _, p := range ps {
			if !p(l) {
				continue next
			}
		}
		out = append(out, l.Clone())
	}

	sort.SliceStable(out, less(out, q.Sort))

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

func less(ls []Listing, order SortOrder) func(i, j int) bool {
	switch order {
	case SortOldest:
		return func(i, j int) bool { return ls[i].CreatedAt.Before(ls[j].CreatedAt) }
	case SortPriceAsc:
		return func(i, j int) bool { return ls[i].Price < ls[j].Price }
	case SortPriceDesc:
		return func(i, j int) bool { return ls[i].Price > ls[j].Price }
	default:
		return func(i, j int) bool { return ls[i].CreatedAt.After(ls[j].CreatedAt) }
	}
}

// FacetCount is one bar or slice of a catalog breakdown.
type FacetCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// CategoryCounts counts listings per category in order of first appearance.
func CategoryCounts(ls []Listing) []FacetCount {
	index := make(map[string]int)
	var out []FacetCount
	for _, l := range ls {
		i, ok := index[l.Category]
		if !ok {
			index[l.Category] = len(out)
			out = append(out, FacetCount{Name: l.Category, Count: 1})
			continue
		}
		out[i].Count++
	}
	return out
}

// ConditionCounts reports every value of kind's closed condition set, zero
// counts included. Listings of another kind are ignored.
func ConditionCounts(ls []Listing, kind ListingKind) []FacetCount {
	values := ConditionsFor(kind)
	out := make([]FacetCount, len(values))
	index := make(map[string]int, len(values))
	for i, v := range values {
		out[i] = FacetCount{Name: v}
		index[v] = i
	}
	for _, l := range ls {
		if l.Kind != kind {
			continue
		}
		if i, ok := index[l.Condition]; ok {
			out[i].Count++
		}
	}
	return out
}
