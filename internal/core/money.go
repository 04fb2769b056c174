// Package core provides money parsing and handling utilities.
//
// Amounts are kept in integer cents. Transaction amounts must be positive,
// budget targets may be any number including zero and negatives.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxAmountCents bounds the magnitude of every parsed amount
// (100,000,000,000 units).
const MaxAmountCents = 10_000_000_000_000

// integer digits that can still fit under MaxAmountCents
const maxAmountDigits = 12

// ParseDecimalToCents converts a positive decimal string to cents with half-up
// rounding on the third decimal place.
//
// Both dot (12.34) and comma (12,34) separators are accepted. Empty,
// non-numeric, negative and zero inputs return ErrInvalidAmount; anything
// above MaxAmountCents returns ErrAmountTooLarge.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,345") -> 1235, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	cents, err := parseUnsigned(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedDecimalToCents is ParseDecimalToCents without the sign and zero
// restrictions. Budget edits use it.
func ParseSignedDecimalToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	cents, err := parseUnsigned(s)
	if err != nil {
		return 0, err
	}
	if neg {
		cents = -cents
	}
	return cents, nil
}

func parseUnsigned(s string) (int64, error) {
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > unicode.MaxASCII {
			return 0, ErrInvalidAmount
		}
	}
	intPart = strings.TrimLeft(intPart, "0")
	if len(intPart) > maxAmountDigits {
		return 0, ErrAmountTooLarge
	}
	var iv int64
	if intPart != "" {
		var err error
		if iv, err = strconv.ParseInt(intPart, 10, 64); err != nil {
			return 0, ErrInvalidAmount
		}
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxAmountCents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}

// Add returns m+o, saturating at the int64 range.
func (m Money) Add(o Money) Money {
	return Money{Cents: addSaturating(m.Cents, o.Cents)}
}

// Sub returns m-o, saturating at the int64 range.
func (m Money) Sub(o Money) Money {
	if o.Cents == math.MinInt64 {
		return Money{Cents: addSaturating(addSaturating(m.Cents, math.MaxInt64), 1)}
	}
	return Money{Cents: addSaturating(m.Cents, -o.Cents)}
}

func addSaturating(a, b int64) int64 {
	sum := a + b
	switch {
	case a > 0 && b > 0 && sum < 0:
		return math.MaxInt64
	case a < 0 && b < 0 && sum >= 0:
		return math.MinInt64
	}
	return sum
}

// Units returns the amount in major units, for display and charts only.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Format renders the amount with the given currency symbol, e.g. "₹1,234.50".
// Whole amounts drop the fractional part, matching how they were typed.
func (m Money) Format(symbol string) string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := groupThousands(strconv.FormatInt(cents/100, 10))
	rem := cents % 100
	if rem == 0 {
		return sign + symbol + whole
	}
	frac := strconv.FormatInt(rem, 10)
	if rem < 10 {
		frac = "0" + frac
	}
	return sign + symbol + whole + "." + frac
}

// Input renders the amount the way the form expects it back ("12.5", "300").
func (m Money) Input() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	rem := cents % 100
	switch {
	case rem == 0:
		return sign + whole
	case rem%10 == 0:
		return sign + whole + "." + strconv.FormatInt(rem/10, 10)
	case rem < 10:
		return sign + whole + ".0" + strconv.FormatInt(rem, 10)
	default:
		return sign + whole + "." + strconv.FormatInt(rem, 10)
	}
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
