// Package validation holds the input checks applied to every field an
// operator types while registering an order. All functions are pure and
// report failure through their second return value.
package validation

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	// DocumentNumberLength is the digit count of a CPF.
	DocumentNumberLength = 11
	// DateTimeLayout is the only accepted date format, DD/MM/YYYY HH:MM:SS.
	DateTimeLayout = "02/01/2006 15:04:05"
)

var (
	dateTimePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4} \d{2}:\d{2}:\d{2}$`)

	// maxMonetaryValue matches the NUMERIC(12,2) columns of the orders table.
	maxMonetaryValue = decimal.RequireFromString("9999999999.99")
)

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidateDocumentNumber accepts an empty input (the field is optional) or
// any text holding exactly eleven digits once punctuation is removed.
// Whitespace is not empty: "   " has no digits and fails.
func ValidateDocumentNumber(text string) bool {
	if text == "" {
		return true
	}
	return len(DigitsOnly(text)) == DocumentNumberLength
}

// NormalizeDocumentNumber returns the digits-only form of a valid document
// number, or an empty string when the input is empty.
func NormalizeDocumentNumber(text string) (string, bool) {
	if !ValidateDocumentNumber(text) {
		return "", false
	}
	return DigitsOnly(text), true
}

// SanitizeText trims surrounding whitespace and caps the text at maxLength
// runes. The output is a fixed point: sanitizing it again changes nothing.
func SanitizeText(text string, maxLength int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxLength <= 0 {
		return ""
	}
	if utf8.RuneCountInString(trimmed) <= maxLength {
		return trimmed
	}
	runes := []rune(trimmed)
	return strings.TrimRightFunc(string(runes[:maxLength]), unicode.IsSpace)
}

// ValidateMonetaryValue parses amounts such as "10,50", "10.50" or
// "R$ 10.50". Negative, non-numeric and out of range amounts are rejected.
// The result is rounded to two decimal places.
func ValidateMonetaryValue(text string) (decimal.Decimal, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "R$")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.Join(strings.Fields(cleaned), "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}

	if value.IsNegative() {
		return decimal.Decimal{}, false
	}

	value = value.Round(2)
	if value.GreaterThan(maxMonetaryValue) {
		return decimal.Decimal{}, false
	}

	return value, true
}

// ParseDateTime parses text in DateTimeLayout within loc. Calendar-invalid
// dates such as 31/02 fail.
func ParseDateTime(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if !dateTimePattern.MatchString(text) {
		return time.Time{}, false
	}

	if loc == nil {
		loc = time.Local
	}

	t, err := time.ParseInLocation(DateTimeLayout, text, loc)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// ValidateDateTime returns the canonical DateTimeLayout rendering of text.
func ValidateDateTime(text string) (string, bool) {
	t, ok := ParseDateTime(text, time.Local)
	if !ok {
		return "", false
	}
	return t.Format(DateTimeLayout), true
}
