// Package cpf validates and formats Brazilian individual taxpayer identifiers.
package cpf

import "strings"

// Valid reports whether s is a structurally valid CPF after stripping
// punctuation: exactly 11 digits, not all identical, and both mod-11 check
// digits correct.
func Valid(s string) bool {
	digits := Digits(s)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}
	return checkDigit(digits, 9) && checkDigit(digits, 10)
}

// checkDigit verifies the check digit at position pos (9 or 10) using the
// weighted sum of the preceding digits with descending weights pos+1..2.
func checkDigit(digits string, pos int) bool {
	sum := 0
	for i := 0; i < pos; i++ {
		sum += int(digits[i]-'0') * (pos + 1 - i)
	}
	expected := 11 - sum%11
	if expected >= 10 {
		expected = 0
	}
	return int(digits[pos]-'0') == expected
}

// Mask formats progressive CPF input as DDD.DDD.DDD-DD, truncating extra
// digits. Partial input keeps whatever separators already apply.
func Mask(s string) string {
	digits := Digits(s)
	if len(digits) > 11 {
		digits = digits[:11]
	}
	switch {
	case len(digits) <= 3:
		return digits
	case len(digits) <= 6:
		return digits[:3] + "." + digits[3:]
	case len(digits) <= 9:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:]
	default:
		return digits[:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:]
	}
}

// Digits strips everything but digits from s. It is the canonical form for
// storing and comparing CPFs, so masked and bare input resolve identically.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
