package checkout

import "github.com/shopspring/decimal"

const (
	// Subtotals at or above the threshold ship free; below it a flat fee applies.
	freeDeliveryThresholdCents = 3000
	deliveryFeeCents           = 499
)

// Pricing is the server-derived money breakdown for a cart. Client-supplied
// totals are never trusted; this computation is the authoritative one used for
// both the payment session and the ledger row.
type Pricing struct {
	SubtotalCents    int
	DeliveryFeeCents int
	TotalCents       int
}

// PriceCart converts each line's euro price to cents with half-up rounding and
// accumulates the subtotal, fee and total.
func PriceCart(lines []CartLine) Pricing {
	subtotal := 0
	for _, line := range lines {
		subtotal += unitPriceCents(line.Price) * line.Quantity
	}

	fee := 0
	if subtotal < freeDeliveryThresholdCents {
		fee = deliveryFeeCents
	}

	return Pricing{
		SubtotalCents:    subtotal,
		DeliveryFeeCents: fee,
		TotalCents:       subtotal + fee,
	}
}

func unitPriceCents(priceEUR float64) int {
	return int(decimal.NewFromFloat(priceEUR).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
}
