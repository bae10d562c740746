package model

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CommissionRatePercent is the share of an item's snapshot price credited to
// the account that served it, expressed in whole percent.
const CommissionRatePercent = 10

// GenerateUUIDWithSuffix generates a UUID with a given module name as a prefix.
// This is useful for creating unique identifiers with context-specific prefixes.
func GenerateUUIDWithSuffix(module string) string {
	id := uuid.New()
	uuidStr := id.String()
	idWithSuffix := fmt.Sprintf("%s_%s", module, uuidStr)
	return idWithSuffix
}

// CommissionForPrice computes the commission on a single availed service price.
// The result is truncated toward zero to a whole currency unit, never rounded:
// two items priced 499 and 501 earn 49 and 50 respectively, not 50 and 50.
func CommissionForPrice(price int64) int64 {
	rate := decimal.NewFromInt(CommissionRatePercent).Div(decimal.NewFromInt(100))
	return decimal.NewFromInt(price).Mul(rate).Floor().IntPart()
}
