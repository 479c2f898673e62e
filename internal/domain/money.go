package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is an amount in minor units (cents). Arithmetic on Money is exact;
// it is rendered with two decimals only when it leaves the process.
type Money int64

const centsPerUnit = 100

var ErrInvalidMoney = errors.New("invalid money amount")

// ParseMoney parses a decimal string such as "89.90", "89.9" or "120"
// without going through float64. More than two decimals is an error.
func ParseMoney(s string) (Money, error) {
	raw := s
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidMoney)
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if hasFrac && frac == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, raw)
	}
	if whole == "" {
		if !hasFrac {
			return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, raw)
		}
		whole = "0"
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimals in %q", ErrInvalidMoney, raw)
	}
	if !isDigits(whole) || !isDigits(frac) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidMoney, raw)
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units > math.MaxInt64/centsPerUnit-1 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidMoney, raw)
	}

	for len(frac) < 2 {
		frac += "0"
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)

	v := units*centsPerUnit + cents
	if negative {
		v = -v
	}
	return Money(v), nil
}

// MustParseMoney is ParseMoney for literals known to be valid.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/centsPerUnit, v%centsPerUnit)
}

// Mul does not check for overflow. Use MulChecked on values that are not
// already known to be in range.
func (m Money) Mul(quantity int) Money {
	return m * Money(quantity)
}

// MulChecked is Mul that reports whether the product fits in a Money.
func (m Money) MulChecked(quantity int) (Money, bool) {
	if m == 0 || quantity == 0 {
		return 0, true
	}
	p := m * Money(quantity)
	if p/Money(quantity) != m || (quantity == -1 && m == math.MinInt64) {
		return 0, false
	}
	return p, true
}

// AddChecked is m + o that reports whether the sum fits in a Money.
func (m Money) AddChecked(o Money) (Money, bool) {
	sum := m + o
	if (o > 0 && sum < m) || (o < 0 && sum > m) {
		return 0, false
	}
	return sum, true
}

func (m Money) IsNegative() bool {
	return m < 0
}

// MarshalJSON emits a JSON number with exactly two decimals.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidMoney, s)
		}
		s = unquoted
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
