package inventory

import "github.com/shopspring/decimal"

// Net applies the netting rules to a breakdown. Every result is clamped at zero.
func Net(b Breakdown, stockQty float64) Derived {
	purStoreOk := clampSub(b.PSIROkQty, b.InHouseIssuedPurchase, b.VendorIssuedTotal)
	vendorOk := clampSub(b.VendorDeptOkQty, b.InHouseIssuedVendor)
	closing := decimal.NewFromFloat(stockQty).
		Add(decimal.NewFromFloat(purStoreOk)).
		Add(decimal.NewFromFloat(vendorOk)).
		Sub(decimal.NewFromFloat(b.InHouseIssuedStock))
	return Derived{
		IndentQty:        b.IndentQty,
		PurchaseQty:      b.PurchaseQty,
		VendorQty:        clampSub(b.VendorDeptSent, b.VendorIssuedTotal),
		PurStoreOkQty:    purStoreOk,
		VendorOkQty:      vendorOk,
		InHouseIssuedQty: b.InHouseIssuedAll,
		VendorIssuedQty:  clampSub(b.VendorIssuedTotal, b.VSIRReceived),
		ClosingStock:     clamp(closing),
	}
}

func clampSub(from float64, minus ...float64) float64 {
	d := decimal.NewFromFloat(from)
	for _, m := range minus {
		d = d.Sub(decimal.NewFromFloat(m))
	}
	return clamp(d)
}

func clamp(d decimal.Decimal) float64 {
	if d.IsNegative() {
		return 0
	}
	return d.InexactFloat64()
}
