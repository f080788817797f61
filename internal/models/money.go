package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money is a fixed-point amount in cents, matching NUMERIC(5,2) columns.
type Money int64

// MaxMoney is the largest value a NUMERIC(5,2) column holds.
const MaxMoney Money = 99999

var ErrMoneyFormat = errors.New("invalid money format")

// ParseMoney accepts "12", "12.5", "12.50", "-3.10". More than two
// fractional digits is rejected rather than rounded.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMoneyFormat
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && (!hasDot || frac == "") {
		return 0, ErrMoneyFormat
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("%w: more than two decimal places", ErrMoneyFormat)
	}
	if !allDigits(whole) || !allDigits(frac) {
		return 0, ErrMoneyFormat
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	n, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMoneyFormat, err)
	}
	if neg {
		n = -n
	}
	return Money(n), nil
}

func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Times multiplies by a whole number of units. The result is exact as long
// as it fits; callers that cannot bound n use TimesChecked.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

// TimesChecked is Times that reports false instead of wrapping on overflow.
func (m Money) TimesChecked(n int) (Money, bool) {
	a, b := int64(m), int64(n)
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return Money(p), true
}

func (m Money) String() string {
	n := int64(m)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" {
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = s
	}
	v, err := ParseMoney(raw)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Value writes the amount as a decimal string for NUMERIC columns.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads NUMERIC values, which drivers hand over as text or floats.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return m.scanText(v)
	case []byte:
		return m.scanText(string(v))
	case int64:
		*m = Money(v * 100)
		return nil
	case float64:
		*m = Money(math.Round(v * 100))
		return nil
	}
	return fmt.Errorf("money: cannot scan %T", src)
}

func (m *Money) scanText(s string) error {
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
