/*
tax.go - GST decomposition

PURPOSE:
  Splits the tax on an amount into its Central, State and Integrated
  components at record time.

POLICY:
  Every split is modelled as intra-state: the tax is halved into CGST and
  SGST and IGST is always zero. This matches what the application has
  always recorded; inter-state supply is not modelled.

EXAMPLE:
  Split(1000, 18) → tax 180 → {CGST: 90, SGST: 90, IGST: 0}
*/
package cashbook

import "github.com/shopspring/decimal"

type TaxSplit struct {
	CGST decimal.Decimal
	SGST decimal.Decimal
	IGST decimal.Decimal
}

// Total is CGST + SGST + IGST.
func (s TaxSplit) Total() decimal.Decimal {
	return s.CGST.Add(s.SGST).Add(s.IGST)
}

var two = decimal.NewFromInt(2)

// Split computes the GST components of amount at ratePercent.
func Split(amount, ratePercent decimal.Decimal) (TaxSplit, error) {
	if ratePercent.IsNegative() {
		return TaxSplit{}, invalid("gst_rate", "must not be negative")
	}
	tax := amount.Mul(ratePercent).Div(hundred)
	half := tax.Div(two)
	return TaxSplit{CGST: half, SGST: half, IGST: decimal.Zero}, nil
}
