package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// LPSequenceDigits is the zero padded width of generated license plate numbers
const LPSequenceDigits = 8

// NumberFormatter builds and orders document numbers such as LP00000042 or
// SO-2025-00007
type NumberFormatter struct {
	numberPattern *regexp.Regexp
}

// NewNumberFormatter creates a formatter with the default pattern
func NewNumberFormatter() *NumberFormatter {
	return &NumberFormatter{
		numberPattern: regexp.MustCompile(`^(.*?)(\d+)$`),
	}
}

// LPNumber formats a license plate number from the org prefix and a sequence value
func (f *NumberFormatter) LPNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s%0*d", prefix, LPSequenceDigits, seq)
}

// YearlyKey is the sequence key for documents numbered per calendar year
func (f *NumberFormatter) YearlyKey(kind string, year int) string {
	return fmt.Sprintf("%s-%d", kind, year)
}

// YearlyNumber formats KIND-YYYY-NNNNN
func (f *NumberFormatter) YearlyNumber(kind string, year int, seq int64) string {
	return fmt.Sprintf("%s-%d-%05d", kind, year, seq)
}

// Compare orders two numbers by prefix then numeric tail, so LP9 sorts before
// LP10. Returns -1, 0 or 1.
func (f *NumberFormatter) Compare(a, b string) int {
	if a == b {
		return 0
	}

	prefixA, numA, errA := f.Parse(a)
	prefixB, numB, errB := f.Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	if prefixA != prefixB {
		return strings.Compare(prefixA, prefixB)
	}

	switch {
	case numA < numB:
		return -1
	case numA > numB:
		return 1
	}
	// same value, different padding
	return strings.Compare(a, b)
}

// Parse splits a number into its prefix and numeric tail
func (f *NumberFormatter) Parse(number string) (string, int64, error) {
	matches := f.numberPattern.FindStringSubmatch(number)
	if len(matches) != 3 {
		return "", 0, fmt.Errorf("invalid number format: %s", number)
	}

	num, err := strconv.ParseInt(matches[2], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid numeric portion in %s: %w", number, err)
	}

	return matches[1], num, nil
}

// SequenceOf extracts the sequence value of a number issued with prefix, or
// false when the number was not generated from it
func (f *NumberFormatter) SequenceOf(prefix, number string) (int64, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	tail := strings.TrimPrefix(number, prefix)
	if tail == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(tail, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
