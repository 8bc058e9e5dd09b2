package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// maxMoney bounds any single monetary figure accepted over the API. Matches
// the NUMERIC(18,2) columns in the schema.
var maxMoney = decimal.New(1, 13)

func validMoney(field string, v decimal.Decimal) error {
	if !v.Equal(v.Round(2)) {
		return fmt.Errorf("%s: %w", field, ErrAmountPrecision)
	}
	if v.Abs().GreaterThan(maxMoney) {
		return fmt.Errorf("%s exceeds maximum magnitude", field)
	}
	return nil
}

func negativeMoneyError(field string, index int) error {
	if index >= 0 {
		return fmt.Errorf("%s[%d] cannot be negative", field, index)
	}
	return fmt.Errorf("%s cannot be negative", field)
}
