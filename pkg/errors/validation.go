package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateURL validates an endpoint URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	for _, r := range rawURL {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "URL contains whitespace or control characters")
		}
	}

	return nil
}

// prefixRegex matches a namespace prefix: the ASCII subset of PN_PREFIX from
// the SPARQL 1.1 grammar. The empty prefix is allowed.
var prefixRegex = regexp.MustCompile(`^([A-Za-z]([A-Za-z0-9_.-]*[A-Za-z0-9_-])?)?$`)

// ValidatePrefix validates a namespace prefix such as "foaf" or "dbo".
func ValidatePrefix(prefix string) error {
	if !prefixRegex.MatchString(prefix) {
		return New(ErrCodeInvalidInput, "invalid namespace prefix: %q", prefix)
	}
	return nil
}

// ValidateNamespace validates a namespace IRI bound to a prefix.
// It must be non-empty and contain no characters forbidden in an IRIREF.
func ValidateNamespace(ns string) error {
	if ns == "" {
		return New(ErrCodeInvalidInput, "namespace cannot be empty")
	}
	if strings.ContainsAny(ns, "<>\"{}|^`\\ ") {
		return New(ErrCodeInvalidInput, "namespace contains characters not allowed in an IRI: %q", ns)
	}
	for _, r := range ns {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "namespace contains control characters: %q", ns)
		}
	}
	return nil
}

// ValidatePath validates a local data file path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
