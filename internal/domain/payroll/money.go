package payroll

import (
	"github.com/shopspring/decimal"
)

// Money is a response amount. It always renders with two fraction digits,
// the same form the payslip fingerprint is computed over.
type Money struct {
	decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

func (m Money) String() string {
	return m.StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}
