// Package core holds the domain model shared by every backend.
//
// Money is stored as integer cents; parsing performs half-up rounding on the
// third decimal digit so "12.346" becomes 1235 cents.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

type Money struct {
	Cents int64
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Dollars returns the amount as a float64 for display and for the hosted
// table API, which stores decimal amounts. Use cents for arithmetic.
func (m Money) Dollars() float64 {
	return float64(m.Cents) / 100.0
}

// MoneyFromDollars converts a decimal amount (as the hosted API returns it)
// back to cents with half-up rounding.
func MoneyFromDollars(v float64) Money {
	if v < 0 {
		return Money{Cents: -int64(-v*100 + 0.5)}
	}
	return Money{Cents: int64(v*100 + 0.5)}
}

// ParseCents converts a positive decimal string to cents. Both dot and comma
// decimal separators are accepted. Signs, zero, and negative values are
// rejected with ErrInvalidAmount.
func ParseCents(s string) (int64, error) {
	cents, neg, err := parseSigned(s)
	if err != nil {
		return 0, err
	}
	if neg || cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseSignedCents converts a signed decimal string to cents. CSV imports
// carry the transaction direction in the sign, so negatives are allowed here.
func ParseSignedCents(s string) (int64, error) {
	cents, neg, err := parseSigned(s)
	if err != nil {
		return 0, err
	}
	if neg {
		return -cents, nil
	}
	return cents, nil
}

func parseSigned(s string) (cents int64, neg bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	switch {
	case strings.HasPrefix(s, "-"):
		neg = true
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, false, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && len(parts) == 2 {
		// lone "." (or "-.") carries no digits at all
		return 0, false, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, false, ErrInvalidAmount
		}
	}

	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, false, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, false, ErrInvalidAmount
	}

	// First two fractional digits, half-up rounding on the third.
	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	return iv*100 + frac, neg, nil
}
