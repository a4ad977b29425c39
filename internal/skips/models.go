package skips

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Skip mirrors one record of the by-location endpoint. Values are never
// mutated after decode; the gross price is derived on demand.
type Skip struct {
	ID               int64           `json:"id"`
	Size             int             `json:"size"`
	HirePeriodDays   int             `json:"hire_period_days"`
	PriceBeforeVAT   decimal.Decimal `json:"price_before_vat"`
	VAT              decimal.Decimal `json:"vat"`
	AllowedOnRoad    bool            `json:"allowed_on_road"`
	AllowsHeavyWaste bool            `json:"allows_heavy_waste"`
}

// TotalPrice = round(price_before_vat * (1 + vat), 2).
func (s Skip) TotalPrice() (decimal.Decimal, error) {
	return TotalPrice(s.PriceBeforeVAT, s.VAT)
}

// Query identifies a catalog: one (postcode, area) pair.
type Query struct {
	Postcode string
	Area     string
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Postcode) == "" {
		return &InvariantError{Field: "postcode", Value: q.Postcode}
	}
	if strings.TrimSpace(q.Area) == "" {
		return &InvariantError{Field: "area", Value: q.Area}
	}
	return nil
}

func (q Query) Key() string { return q.Postcode + "|" + q.Area }

// WithDefaults fills empty fields from def.
func (q Query) WithDefaults(def Query) Query {
	if strings.TrimSpace(q.Postcode) == "" {
		q.Postcode = def.Postcode
	}
	if strings.TrimSpace(q.Area) == "" {
		q.Area = def.Area
	}
	return q
}
