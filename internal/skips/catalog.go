package skips

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Catalog is the ordered list of skips returned for one Query.
type Catalog []Skip

// SortedBySize returns a copy ordered by ascending size; equal sizes keep
// their received order.
func (c Catalog) SortedBySize() Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Size < out[j].Size })
	return out
}

func (c Catalog) Find(id int64) (Skip, bool) {
	for _, s := range c {
		if s.ID == id {
			return s, true
		}
	}
	return Skip{}, false
}

func (c Catalog) MaxSize() int {
	m := 0
	for _, s := range c {
		if s.Size > m {
			m = s.Size
		}
	}
	return m
}

// CapacityPercent is skip size relative to the largest skip on offer.
func (c Catalog) CapacityPercent(s Skip) decimal.Decimal {
	m := c.MaxSize()
	if m == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Size)).Mul(hundred).Div(decimal.NewFromInt(int64(m))).Round(1)
}
