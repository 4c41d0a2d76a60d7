// Package idcode maps item counters to the fixed-shape codes printed on
// container labels, e.g. counter 1 is "H66AAA00001".
package idcode

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// Prefix starts every generated code.
	Prefix = "H66"

	letters = 3
	digits  = 5

	digitSpan  = 100000 // 10^digits
	letterSpan = 26 * 26 * 26

	// Length is the total length of a generated code.
	Length = len(Prefix) + letters + digits

	// MaxCounter is the largest counter that still fits the code shape.
	MaxCounter = int64(letterSpan) * digitSpan
)

// ErrOutOfRange is returned by Encode for counters outside [1, MaxCounter].
var ErrOutOfRange = errors.New("counter out of range")

// Encode returns the code for counter. The low five digits come from
// (counter-1) mod 100000 and the letter block is the remaining quotient in
// base 26, most significant letter first.
func Encode(counter int64) (string, error) {
	if counter < 1 || counter > MaxCounter {
		return "", fmt.Errorf("encoding %d: %w", counter, ErrOutOfRange)
	}

	n := counter - 1
	num := n % digitSpan
	block := n / digitSpan

	var b strings.Builder
	b.Grow(Length)
	b.WriteString(Prefix)

	var lb [letters]byte
	for i := letters - 1; i >= 0; i-- {
		lb[i] = byte('A' + block%26)
		block /= 26
	}
	b.Write(lb[:])
	fmt.Fprintf(&b, "%0*d", digits, num)

	return b.String(), nil
}

// Decode is the inverse of Encode. It returns false if code is not a
// well-formed generated code.
func Decode(code string) (int64, bool) {
	if !IsValidFormat(code) {
		return 0, false
	}

	rest := code[len(Prefix):]
	var block int64
	for i := 0; i < letters; i++ {
		block = block*26 + int64(rest[i]-'A')
	}
	var num int64
	for i := letters; i < letters+digits; i++ {
		num = num*10 + int64(rest[i]-'0')
	}

	return block*digitSpan + num + 1, true
}

// IsValidFormat reports whether code has the exact generated shape: the
// prefix, three uppercase ASCII letters and five ASCII digits.
func IsValidFormat(code string) bool {
	if len(code) != Length || !strings.HasPrefix(code, Prefix) {
		return false
	}
	rest := code[len(Prefix):]
	for i := 0; i < letters; i++ {
		if rest[i] < 'A' || rest[i] > 'Z' {
			return false
		}
	}
	for i := letters; i < letters+digits; i++ {
		if rest[i] < '0' || rest[i] > '9' {
			return false
		}
	}
	return true
}

// Normalize cleans up a scanned or typed id. Surrounding whitespace is
// dropped, a code in the generated shape is upper-cased, and a short
// all-digit legacy label is zero-padded to four digits. Anything else is
// returned trimmed but otherwise untouched.
func Normalize(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return id
	}

	if upper := strings.ToUpper(id); IsValidFormat(upper) {
		return upper
	}

	if len(id) <= 4 && allDigits(id) {
		return strings.Repeat("0", 4-len(id)) + id
	}

	return id
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
