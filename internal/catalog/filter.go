package catalog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"jewels/internal/store"
)

// Sort options. Featured keeps the incoming order (the repository already
// returns newest first), the price sorts order by the lower bound only.
const (
	SortFeatured  = "featured"
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
)

// Filter is the storefront's filter context. Every zero-valued criterion is a
// pass-through, so the zero Filter matches everything. Criteria compose with
// AND; the composition is order-independent.
type Filter struct {
	Category   string
	Brand      string
	Collection string
	Search     string
	Flags      []string
	PriceMin   *float64
	PriceMax   *float64
	Sort       string
}

// ParseFilter extracts the filter context from request query parameters.
// Unknown values never fail the parse; they fall back to pass-through.
func ParseFilter(q url.Values) Filter {
	f := Filter{
		Category:   strings.TrimSpace(q.Get("category")),
		Brand:      strings.TrimSpace(q.Get("brand")),
		Collection: strings.TrimSpace(q.Get("collection")),
		Search:     strings.TrimSpace(q.Get("search")),
		Sort:       strings.TrimSpace(q.Get("sort")),
	}

	for _, flag := range q["flag"] {
		if flag = strings.TrimSpace(flag); flag != "" {
			f.Flags = append(f.Flags, flag)
		}
	}

	if v := strings.TrimSpace(q.Get("min_price")); v != "" {
		if min, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMin = &min
		}
	}
	if v := strings.TrimSpace(q.Get("max_price")); v != "" {
		if max, err := strconv.ParseFloat(v, 64); err == nil {
			f.PriceMax = &max
		}
	}
	return f
}

// Matches reports whether the product satisfies every active criterion.
func (f Filter) Matches(p store.Product) bool {
	if f.Category != "" && f.Category != "All" && p.Category != f.Category {
		return false
	}
	if f.Brand != "" && (p.Brand == nil || *p.Brand != f.Brand) {
		return false
	}
	if f.Collection != "" && (p.Collection == nil || *p.Collection != f.Collection) {
		return false
	}
	if !f.matchesSearch(p) {
		return false
	}
	for _, flag := range f.Flags {
		if !matchesFlag(p, flag) {
			return false
		}
	}
	return f.matchesPrice(p)
}

// matchesSearch is a case-insensitive substring match against name,
// description and brand; a hit in any one field includes the product.
func (f Filter) matchesSearch(p store.Product) bool {
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(p.Name), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Description), needle) {
		return true
	}
	return p.Brand != nil && strings.Contains(strings.ToLower(*p.Brand), needle)
}

func matchesFlag(p store.Product, flag string) bool {
	switch flag {
	case "new":
		return p.IsNew
	case "limited":
		return p.IsLimited
	case "available":
		// Everything listed is considered available.
		return true
	default:
		return true
	}
}

// matchesPrice checks whether the product's price interval [price, max_price]
// intersects the query range: the lower bound lies in range, the upper bound
// lies in range, or the product range fully straddles the query range.
func (f Filter) matchesPrice(p store.Product) bool {
	if f.PriceMin == nil || f.PriceMax == nil {
		return true
	}
	lo, hi := *f.PriceMin, *f.PriceMax

	if p.Price >= lo && p.Price <= hi {
		return true
	}
	if p.MaxPrice != nil && *p.MaxPrice >= lo && *p.MaxPrice <= hi {
		return true
	}
	return p.MaxPrice != nil && p.Price <= lo && *p.MaxPrice >= hi
}

// Apply filters then sorts the catalog. The input slice is not modified.
func Apply(products []store.Product, f Filter) []store.Product {
	out := make([]store.Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}

	switch f.Sort {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	}
	return out
}
