package cashbook_test

import (
	"testing"

	"github.com/smartspend/cashbook-engine/cashbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		amount, rate     string
		cgst, sgst, igst string
	}{
		{"1000", "18", "90", "90", "0"},
		{"100", "5", "2.5", "2.5", "0"},
		{"999.99", "12", "59.9994", "59.9994", "0"},
		{"250", "0", "0", "0", "0"},
		{"0", "28", "0", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.amount+"@"+tt.rate, func(t *testing.T) {
			split, err := cashbook.Split(dec(tt.amount), dec(tt.rate))
			require.NoError(t, err)
			assertDecimal(t, tt.cgst, split.CGST, "cgst")
			assertDecimal(t, tt.sgst, split.SGST, "sgst")
			assertDecimal(t, tt.igst, split.IGST, "igst")
		})
	}
}

func TestSplit_ComponentsSumToTax(t *testing.T) {
	split, err := cashbook.Split(dec("1234.57"), dec("18"))
	require.NoError(t, err)
	assertDecimal(t, "222.2226", split.Total())
}

func TestSplit_NegativeRate(t *testing.T) {
	_, err := cashbook.Split(dec("100"), dec("-0.01"))
	assert.ErrorIs(t, err, cashbook.ErrValidation)
}
