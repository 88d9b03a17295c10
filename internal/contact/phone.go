package contact

import (
	"regexp"
	"strings"
	"unicode"
)

// National mobile numbers are 10 or 11 digits and start with 0.
const (
	minPhoneDigits = 10
	maxPhoneDigits = 11
)

var (
	plus84Pattern     = regexp.MustCompile(`\+84[\s\-]?(\d{9,10})`)
	loosePhonePattern = regexp.MustCompile(`0[\d\s\-]{8,12}`)
)

// digitsOnly drops every non-digit rune.
func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// isNationalNumber reports whether digits form a 10–11 digit number starting with 0.
func isNationalNumber(digits string) bool {
	return len(digits) >= minPhoneDigits && len(digits) <= maxPhoneDigits && strings.HasPrefix(digits, "0")
}

// matchDigits tests a segment as a whole: all of its digits must form a national number.
func matchDigits(segment string) (string, bool) {
	d := digitsOnly(segment)
	if isNationalNumber(d) {
		return d, true
	}
	return "", false
}

// matchPlus84 finds an international +84 number and rewrites it with a leading 0.
func matchPlus84(segment string) (string, bool) {
	if !strings.Contains(segment, "+84") {
		return "", false
	}
	m := plus84Pattern.FindStringSubmatch(segment)
	if m == nil {
		return "", false
	}
	return "0" + m[1], true
}

// matchLoose finds a 0-prefixed run of digits broken up by spaces or dashes inside a noisy segment.
func matchLoose(segment string) (string, bool) {
	m := loosePhonePattern.FindString(segment)
	if m == "" {
		return "", false
	}
	candidate := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' {
			return -1
		}
		return r
	}, m)
	if isNationalNumber(candidate) {
		return candidate, true
	}
	return "", false
}

// findPhoneAnchor returns the phone and index of the first segment holding one.
// Whole-segment digits and +84 forms are tried on every segment before the loose pattern.
func findPhoneAnchor(segments []string) (phone string, index int) {
	for i, seg := range segments {
		if p, ok := matchDigits(seg); ok {
			return p, i
		}
		if p, ok := matchPlus84(seg); ok {
			return p, i
		}
	}
	for i, seg := range segments {
		if p, ok := matchLoose(seg); ok {
			return p, i
		}
	}
	return "", -1
}
