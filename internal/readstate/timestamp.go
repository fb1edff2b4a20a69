// Package readstate tracks per-channel unread, highlight and read-marker
// timestamps and derives the global tray status from them.
package readstate

import "strings"

// Timestamp is a Slack message timestamp ("1700000000.123456").
// The zero value means unset.
type Timestamp string

// IsZero reports whether the timestamp is unset.
func (t Timestamp) IsZero() bool {
	return t == ""
}

// Compare returns -1, 0 or +1. Unset sorts before every real timestamp.
// Values are compared numerically, seconds first and then the fraction;
// anything that does not parse falls back to a plain string comparison.
func (t Timestamp) Compare(other Timestamp) int {
	switch {
	case t == other:
		return 0
	case t.IsZero():
		return -1
	case other.IsZero():
		return 1
	}

	aSec, aFrac, aok := split(string(t))
	bSec, bFrac, bok := split(string(other))
	if !aok || !bok {
		return strings.Compare(string(t), string(other))
	}
	if c := compareDigits(aSec, bSec); c != 0 {
		return c
	}
	return compareFraction(aFrac, bFrac)
}

// After reports whether t is strictly greater than other.
func (t Timestamp) After(other Timestamp) bool {
	return t.Compare(other) > 0
}

// Max returns the greater of t and other.
func (t Timestamp) Max(other Timestamp) Timestamp {
	if other.After(t) {
		return other
	}
	return t
}

func (t Timestamp) String() string {
	return string(t)
}

// split breaks "123.456" into its integer and fractional digit runs.
func split(s string) (sec, frac string, ok bool) {
	sec, frac, _ = strings.Cut(s, ".")
	if sec == "" || !allDigits(sec) || !allDigits(frac) {
		return "", "", false
	}
	return strings.TrimLeft(sec, "0"), frac, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// compareDigits compares two digit strings without leading zeros.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// compareFraction compares fractional digit runs, padding the shorter one
// with trailing zeros.
func compareFraction(a, b string) int {
	for len(a) < len(b) {
		a += "0"
	}
	for len(b) < len(a) {
		b += "0"
	}
	return strings.Compare(a, b)
}
