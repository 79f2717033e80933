// Package shortlink creates and resolves short share codes for calculations.
//
// Codes are the store's sequence number written in base 36 ("1", "a", "2s"),
// so they stay short and never collide.
package shortlink

import (
	"fmt"
	"strconv"
	"strings"
)

// Encode returns the short code for a sequence number.
func Encode(seq int64) string {
	return strconv.FormatInt(seq, 36)
}

// Decode returns the sequence number of a short code.
func Decode(code string) (int64, error) {
	if !Valid(code) {
		return 0, fmt.Errorf("invalid short code %q", code)
	}
	seq, err := strconv.ParseInt(code, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid short code %q: %w", code, err)
	}
	return seq, nil
}

// Valid reports whether code looks like a short code: 1-13 lowercase base-36
// digits.
func Valid(code string) bool {
	if code == "" || len(code) > 13 {
		return false
	}
	return strings.IndexFunc(code, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z')
	}) < 0
}
