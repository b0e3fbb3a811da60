// Package money holds the fixed-point amount type used for every cash figure
// in the register: opening floats, ledger movements, counted cash and differences.
//
// Amounts are kept as signed int64 minor units (cents). Text and JSON input goes
// through shopspring/decimal so that "0.10" becomes exactly 10 cents.
package money

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const scale = 2

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrTooPrecise    = errors.New("amount has more than two decimal places")
	ErrOutOfRange    = errors.New("amount out of range")

	maxCents = decimal.NewFromInt(math.MaxInt64)
	minCents = decimal.NewFromInt(math.MinInt64)
)

// Money is an exact amount in minor units. The zero value is 0.00.
type Money struct {
	cents int64
}

var Zero = Money{}

func FromCents(cents int64) Money {
	return Money{cents: cents}
}

// Parse converts decimal text ("125", "125.5", "-5.00") to Money.
// More than two fractional digits is an error, never a rounding.
func Parse(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, ErrInvalidAmount
	}
	return FromDecimal(d)
}

func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("money: parse %q: %v", s, err))
	}
	return m
}

func FromDecimal(d decimal.Decimal) (Money, error) {
	scaled := d.Shift(scale)
	if !scaled.IsInteger() {
		return Zero, ErrTooPrecise
	}
	if scaled.GreaterThan(maxCents) || scaled.LessThan(minCents) {
		return Zero, ErrOutOfRange
	}
	return Money{cents: scaled.IntPart()}, nil
}

func (m Money) Cents() int64 { return m.cents }

func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.cents, -scale)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(scale)
}

// Max bounds every amount entered from outside: opening floats, movements,
// closing overrides and tolerances. Sums of in-range amounts still go through
// the checked operations below.
var Max = Money{cents: 100_000_000_000_000} // 1,000,000,000,000.00

// InRange reports whether |m| <= Max.
func (m Money) InRange() bool {
	return m.cents <= Max.cents && m.cents >= -Max.cents
}

// Add, Sub and MulInt fail with ErrOutOfRange instead of wrapping around.
func (m Money) Add(o Money) (Money, error) {
	sum := m.cents + o.cents
	if (o.cents > 0 && sum < m.cents) || (o.cents < 0 && sum > m.cents) {
		return Zero, ErrOutOfRange
	}
	return Money{cents: sum}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	diff := m.cents - o.cents
	if (o.cents > 0 && diff > m.cents) || (o.cents < 0 && diff < m.cents) {
		return Zero, ErrOutOfRange
	}
	return Money{cents: diff}, nil
}

func (m Money) MulInt(n int64) (Money, error) {
	if m.cents == 0 || n == 0 {
		return Zero, nil
	}
	if (m.cents == -1 && n == math.MinInt64) || (n == -1 && m.cents == math.MinInt64) {
		return Zero, ErrOutOfRange
	}
	p := m.cents * n
	if p/n != m.cents {
		return Zero, ErrOutOfRange
	}
	return Money{cents: p}, nil
}

// Neg and Abs saturate at the int64 limits; only FromCents can reach them.
func (m Money) Neg() Money {
	if m.cents == math.MinInt64 {
		return Money{cents: math.MaxInt64}
	}
	return Money{cents: -m.cents}
}

func (m Money) Abs() Money {
	if m.cents < 0 {
		return m.Neg()
	}
	return m
}

// Cmp returns -1, 0 or +1.
func (m Money) Cmp(o Money) int {
	switch {
	case m.cents < o.cents:
		return -1
	case m.cents > o.cents:
		return 1
	}
	return 0
}

func (m Money) Equal(o Money) bool { return m.cents == o.cents }
func (m Money) IsZero() bool       { return m.cents == 0 }
func (m Money) IsNegative() bool   { return m.cents < 0 }
func (m Money) IsPositive() bool   { return m.cents > 0 }

func Sum(amounts ...Money) (Money, error) {
	total := Zero
	for _, a := range amounts {
		var err error
		if total, err = total.Add(a); err != nil {
			return Zero, err
		}
	}
	return total, nil
}

// MarshalJSON renders the amount as a quoted two-decimal string so clients
// never round-trip it through a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(m.String())), nil
}

// UnmarshalJSON accepts "125.00" or 125.00.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// GormDataType stores Money as a BIGINT of cents.
func (Money) GormDataType() string {
	return "bigint"
}

func (m Money) Value() (driver.Value, error) {
	return m.cents, nil
}

func (m *Money) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		m.cents = 0
	case int64:
		m.cents = v
	case int32:
		m.cents = int64(v)
	case []byte:
		return m.scanText(string(v))
	case string:
		return m.scanText(v)
	default:
		return fmt.Errorf("money: cannot scan %T", value)
	}
	return nil
}

func (m *Money) scanText(s string) error {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return fmt.Errorf("money: scan %q: %w", s, err)
	}
	m.cents = n
	return nil
}
