// Package core holds the domain model of the finance tracker: transaction
// and user records, their validation rules, money handling and the types the
// aggregation queries produce.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseAmount converts a decimal amount string to cents with half-up
// rounding on the third decimal place. Only positive values are accepted.
//
// Examples:
//
//	ParseAmount("250")    -> 25000, nil
//	ParseAmount("12.34")  -> 1234, nil
//	ParseAmount("12.346") -> 1235, nil (rounds up)
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, NewValidationError("amount is required")
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, NewValidationError("amount must be a positive number")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return Money{}, NewValidationError("amount must be a decimal number")
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return Money{}, NewValidationError("amount must be a decimal number")
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return Money{}, NewValidationError("amount is out of range")
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return Money{}, NewValidationError("amount is out of range")
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
	if cents <= 0 {
		return Money{}, NewValidationError("amount must be a positive number")
	}
	return Money{Cents: cents}, nil
}

// Amount returns the decimal value for display and JSON output. Calculations
// stay in cents to avoid floating-point drift.
func (m Money) Amount() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON renders the amount as a plain decimal number (250, 12.34).
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(m.Amount(), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return NewValidationError("amount is required")
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
