package checkout

import "testing"

func TestPriceCartAppliesDeliveryFeeBelowThreshold(t *testing.T) {
	pricing := PriceCart([]CartLine{
		{Price: 12.50, Quantity: 2}, // 2500
	})

	if pricing.SubtotalCents != 2500 {
		t.Fatalf("subtotal = %d, want 2500", pricing.SubtotalCents)
	}
	if pricing.DeliveryFeeCents != 499 {
		t.Fatalf("delivery fee = %d, want 499", pricing.DeliveryFeeCents)
	}
	if pricing.TotalCents != 2999 {
		t.Fatalf("total = %d, want 2999", pricing.TotalCents)
	}
}

func TestPriceCartFreeDeliveryAtThreshold(t *testing.T) {
	pricing := PriceCart([]CartLine{
		{Price: 15.00, Quantity: 2}, // exactly 3000
	})

	if pricing.DeliveryFeeCents != 0 {
		t.Fatalf("delivery fee = %d, want 0", pricing.DeliveryFeeCents)
	}
	if pricing.TotalCents != 3000 {
		t.Fatalf("total = %d, want 3000", pricing.TotalCents)
	}
}

func TestPriceCartRoundsBinaryFloatPrices(t *testing.T) {
	// 19.99 has no exact binary representation; naive *100 truncation
	// would yield 1998.
	pricing := PriceCart([]CartLine{
		{Price: 19.99, Quantity: 1},
		{Price: 0.10, Quantity: 3},
	})

	if pricing.SubtotalCents != 2029 {
		t.Fatalf("subtotal = %d, want 2029", pricing.SubtotalCents)
	}
}

func TestPriceCartSumsMultipleLines(t *testing.T) {
	pricing := PriceCart([]CartLine{
		{Price: 24.90, Quantity: 1},
		{Price: 8.75, Quantity: 2},
	})

	want := 2490 + 1750
	if pricing.SubtotalCents != want {
		t.Fatalf("subtotal = %d, want %d", pricing.SubtotalCents, want)
	}
	if pricing.DeliveryFeeCents != 0 {
		t.Fatalf("delivery fee = %d, want 0 (subtotal above threshold)", pricing.DeliveryFeeCents)
	}
}
