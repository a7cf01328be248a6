package catalog

import (
	"net/url"
	"testing"

	"jewels/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func testProducts() []store.Product {
	return []store.Product{
		{
			ID:       1,
			Name:     "Solitaire Ring",
			Category: "Rings",
			Brand:    ptr("Cartier"),
			Price:    1500,
			MaxPrice: ptr(2000.0),
			IsNew:    true,
		},
		{
			ID:          2,
			Name:        "Pearl Necklace",
			Description: "Freshwater pearls on a gold chain",
			Category:    "Necklaces",
			Collection:  ptr("Ocean"),
			Price:       800,
			IsLimited:   true,
		},
		{
			ID:       3,
			Name:     "Gold Bangle",
			Category: "Bracelets",
			Brand:    ptr("Tiffany"),
			Price:    3200,
		},
	}
}

func TestFilterZeroValueMatchesEverything(t *testing.T) {
	products := testProducts()

	out := Apply(products, Filter{})

	assert.Len(t, out, len(products))
}

func TestFilterCategory(t *testing.T) {
	products := testProducts()

	out := Apply(products, Filter{Category: "Rings"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	// "All" is a pass-through sentinel, not a category name.
	assert.Len(t, Apply(products, Filter{Category: "All"}), 3)

	// Category matching is exact, including case.
	assert.Empty(t, Apply(products, Filter{Category: "rings"}))
}

func TestFilterBrandAndCollection(t *testing.T) {
	products := testProducts()

	out := Apply(products, Filter{Brand: "Cartier"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	out = Apply(products, Filter{Collection: "Ocean"})
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)

	// A product without the attribute never matches an active criterion.
	assert.Empty(t, Apply(products, Filter{Brand: "Nobrand"}))
}

func TestFilterSearchIsCaseInsensitive(t *testing.T) {
	products := testProducts()

	assert.Len(t, Apply(products, Filter{Search: "PEARL"}), 1)
	assert.Len(t, Apply(products, Filter{Search: "gold"}), 2) // description of #2, name of #3
	assert.Len(t, Apply(products, Filter{Search: "tiffany"}), 1)
	assert.Empty(t, Apply(products, Filter{Search: "emerald"}))
}

func TestFilterFlags(t *testing.T) {
	products := testProducts()

	out := Apply(products, Filter{Flags: []string{"new"}})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	out = Apply(products, Filter{Flags: []string{"limited"}})
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)

	// Every active flag must hold at once.
	assert.Empty(t, Apply(products, Filter{Flags: []string{"new", "limited"}}))

	// "available" and unknown flags are pass-throughs.
	assert.Len(t, Apply(products, Filter{Flags: []string{"available"}}), 3)
	assert.Len(t, Apply(products, Filter{Flags: []string{"bogus"}}), 3)
}

func TestFilterPriceIntervalIntersection(t *testing.T) {
	products := testProducts()

	// Lower bound inside range.
	out := Apply(products, Filter{PriceMin: ptr(1000.0), PriceMax: ptr(1600.0)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	// Only the product's max_price falls in range.
	out = Apply(products, Filter{PriceMin: ptr(1800.0), PriceMax: ptr(2500.0)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	// Product interval fully straddles the query range.
	out = Apply(products, Filter{PriceMin: ptr(1600.0), PriceMax: ptr(1900.0)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	// A fixed-price product has a degenerate interval.
	out = Apply(products, Filter{PriceMin: ptr(700.0), PriceMax: ptr(900.0)})
	require.Len(t, out, 1)
	assert.Equal(t, int64(2), out[0].ID)

	// One bound alone never restricts.
	assert.Len(t, Apply(products, Filter{PriceMin: ptr(99999.0)}), 3)
}

func TestFilterCriteriaComposeWithAND(t *testing.T) {
	products := testProducts()

	f := Filter{Category: "Rings", Flags: []string{"new"}, Search: "solitaire"}
	out := Apply(products, f)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	f.Search = "pearl"
	assert.Empty(t, Apply(products, f))
}

func TestApplySort(t *testing.T) {
	products := testProducts()

	out := Apply(products, Filter{Sort: SortPriceAsc})
	require.Len(t, out, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{out[0].ID, out[1].ID, out[2].ID})

	out = Apply(products, Filter{Sort: SortPriceDesc})
	require.Len(t, out, 3)
	assert.Equal(t, []int64{3, 1, 2}, []int64{out[0].ID, out[1].ID, out[2].ID})

	// Featured keeps incoming order.
	out = Apply(products, Filter{Sort: SortFeatured})
	require.Len(t, out, 3)
	assert.Equal(t, int64(1), out[0].ID)
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	products := testProducts()

	Apply(products, Filter{Sort: SortPriceAsc, Category: "Rings"})

	assert.Equal(t, int64(1), products[0].ID)
	assert.Equal(t, int64(2), products[1].ID)
	assert.Equal(t, int64(3), products[2].ID)
}

func TestParseFilter(t *testing.T) {
	q := url.Values{}
	q.Set("category", " Rings ")
	q.Set("brand", "Cartier")
	q.Set("search", "ring")
	q.Set("sort", "price-asc")
	q.Add("flag", "new")
	q.Add("flag", "limited")
	q.Set("min_price", "100")
	q.Set("max_price", "2000")

	f := ParseFilter(q)

	assert.Equal(t, "Rings", f.Category)
	assert.Equal(t, "Cartier", f.Brand)
	assert.Equal(t, "ring", f.Search)
	assert.Equal(t, SortPriceAsc, f.Sort)
	assert.Equal(t, []string{"new", "limited"}, f.Flags)
	require.NotNil(t, f.PriceMin)
	require.NotNil(t, f.PriceMax)
	assert.Equal(t, 100.0, *f.PriceMin)
	assert.Equal(t, 2000.0, *f.PriceMax)
}

func TestParseFilterIgnoresMalformedPrices(t *testing.T) {
	q := url.Values{}
	q.Set("min_price", "cheap")
	q.Set("max_price", "")

	f := ParseFilter(q)

	assert.Nil(t, f.PriceMin)
	assert.Nil(t, f.PriceMax)
}
