package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseVersion parses a GPX version number: an optional sign, digits and an
// optional fraction. Exponents, hex floats, NaN and infinities are rejected.
// Negative zero comes back as 0.
func ParseVersion(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !isDecimal(s) {
		return 0, invalidf("version %q is not a decimal number", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || v < 0 {
		return 0, invalidf("version %q is not a non-negative number", s)
	}
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	return v, nil
}

func isDecimal(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	digits, dot := 0, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits++
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits > 0
}

// ValidateText rejects strings an XML document cannot carry unchanged:
// invalid UTF-8 and runes outside the XML Char production.
func ValidateText(what, s string) error {
	if !utf8.ValidString(s) {
		return invalidf("%s is not valid UTF-8", what)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return invalidf("%s contains %U, which XML cannot represent", what, r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == '\t' || r == '\n' || r == '\r' ||
		(r >= 0x20 && r <= 0xD7FF) ||
		(r >= 0xE000 && r <= 0xFFFD) ||
		(r >= 0x10000 && r <= 0x10FFFF)
}
