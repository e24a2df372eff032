package authrelay

import (
	"regexp"
	"strings"
)

// The identity provider decorates its errors with markup and verbose
// phrasing. Known patterns get rewritten into short user-facing strings;
// everything else only has the markup stripped.

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

const incorrectPasswordMessage = "Incorrect email or password."

// SanitizeMessage strips markup from an identity-provider error and rewrites
// the common "incorrect password" phrasing into a short string.
func SanitizeMessage(raw string) string {
	plain := tagPattern.ReplaceAllString(raw, " ")
	plain = whitespacePattern.ReplaceAllString(plain, " ")
	plain = strings.TrimSpace(plain)

	lower := strings.ToLower(plain)
	if strings.Contains(lower, "the password you entered") && strings.Contains(lower, "incorrect") {
		return incorrectPasswordMessage
	}

	// Drop the provider's "Error:" prefix and any trailing recovery hint.
	plain = strings.TrimSpace(strings.TrimPrefix(plain, "Error:"))
	if idx := strings.Index(plain, "Lost your password?"); idx >= 0 {
		plain = strings.TrimSpace(plain[:idx])
	}
	return plain
}
