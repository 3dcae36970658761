// Package validation checks command-line input before it is sent to the portal.
package validation

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Input length limits to prevent resource exhaustion
const (
	MaxNameLength    = 255
	MaxEmailLength   = 320 // RFC 5321: 64 chars (local) + 1 (@) + 255 (domain) = 320
	MaxPhoneLength   = 20  // International E.164 format
	MaxIDLength      = 128
	MaxMessageLength = 100000 // 100KB for message content
	MaxURLLength     = 2048
)

// DateLayout is the calendar date format used by the portal.
const DateLayout = "2006-01-02"

// ValidateName validates a display name length. Empty names are allowed.
func ValidateName(name string) error {
	if length := utf8.RuneCountInString(name); length > MaxNameLength {
		return fmt.Errorf("name exceeds maximum length of %d characters (got %d)", MaxNameLength, length)
	}
	return nil
}

// ValidateEmail validates length and format. Empty emails are allowed.
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if length := utf8.RuneCountInString(email); length > MaxEmailLength {
		return fmt.Errorf("email exceeds maximum length of %d characters (got %d)", MaxEmailLength, length)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

// ValidatePhone allows digits, spaces, dashes, parentheses, and a leading +.
func ValidatePhone(phone string) error {
	if phone == "" {
		return nil
	}
	if length := utf8.RuneCountInString(phone); length > MaxPhoneLength {
		return fmt.Errorf("phone number exceeds maximum length of %d characters (got %d)", MaxPhoneLength, length)
	}
	for i, r := range phone {
		if r == '+' && i == 0 {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == ' ' || r == '-' || r == '(' || r == ')' {
			continue
		}
		return fmt.Errorf("invalid phone format: contains invalid character '%c'", r)
	}
	return nil
}

// ValidateMessageContent requires non-empty content within the size limit.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	if length := len(content); length > MaxMessageLength {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d)", MaxMessageLength, length)
	}
	return nil
}

// ValidateID checks a resource identifier taken from the command line.
// Identifiers are opaque strings but must be usable as a single path segment.
func ValidateID(id, fieldName string) (string, error) {
	id = strings.TrimPrefix(strings.TrimSpace(id), "#")
	if id == "" {
		return "", fmt.Errorf("%s is required", fieldName)
	}
	if len(id) > MaxIDLength {
		return "", fmt.Errorf("invalid %s: exceeds %d characters", fieldName, MaxIDLength)
	}
	if strings.ContainsAny(id, "/?#% \t\n") || id == "." || id == ".." {
		return "", fmt.Errorf("invalid %s %q", fieldName, id)
	}
	return id, nil
}

// ParseAmount parses a positive money amount such as "1200", "$1,200.50".
func ParseAmount(s string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(s), "$"), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("amount must be a positive number (got %s)", s)
	}
	return math.Round(v*100) / 100, nil
}

// ParseChoice matches s case-insensitively against allowed and returns the
// canonical spelling.
func ParseChoice(s, fieldName string, allowed []string) (string, error) {
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(s), a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid %s %q: must be one of %s", fieldName, s, strings.Join(allowed, ", "))
}
