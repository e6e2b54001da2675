package ledger

import (
	"fmt"

	"ogbarber/backend/internal/domain"
)

// Normalize reconciles the three historical service-line shapes into the one
// canonical shape the aggregation engine consumes:
//
//   - unit_price set: frozen-price line. The combined count lands in a single
//     bucket; the frozen price already encodes the economics at write time,
//     so the cash/electronic split does not matter for pricing.
//   - cash_count and electronic_count both set, no unit_price: counts split
//     by payment method, priced at the current configured price.
//   - count alone: oldest shape, same as the previous one with the whole
//     count treated as cash.
//
// Any other field combination, and any unknown kind, is rejected rather than
// silently zeroed.
func Normalize(line domain.ServiceLine) (domain.NormalizedLine, error) {
	if !line.Kind.Valid() {
		return domain.NormalizedLine{}, fmt.Errorf("unknown service kind %q", line.Kind)
	}

	switch {
	case line.UnitPrice != nil:
		if line.Count == nil {
			return domain.NormalizedLine{}, fmt.Errorf("frozen-price line is missing count")
		}
		price := *line.UnitPrice
		return domain.NormalizedLine{
			Kind:      line.Kind,
			CashCount: *line.Count,
			UnitPrice: &price,
		}, nil

	case line.CashCount != nil && line.ElectronicCount != nil:
		return domain.NormalizedLine{
			Kind:            line.Kind,
			CashCount:       *line.CashCount,
			ElectronicCount: *line.ElectronicCount,
		}, nil

	case line.Count != nil && line.CashCount == nil && line.ElectronicCount == nil:
		return domain.NormalizedLine{
			Kind:      line.Kind,
			CashCount: *line.Count,
		}, nil

	default:
		return domain.NormalizedLine{}, fmt.Errorf("unrecognized service line shape")
	}
}
