package session

import (
	"fmt"
	"regexp"
	"strings"

	coorderr "github.com/p-blackswan/workspace-coordinator/internal/errors"
)

// maxNameLen bounds the sanitized name so records stay comfortably inside
// filename limits.
const maxNameLen = 50

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// reservedNames cannot be used as session names: "any" is the allocator's
// sentinel and "summary" would collide with the registry's summary record.
var reservedNames = map[string]bool{
	"any":     true,
	"all":     true,
	"summary": true,
	"active":  true,
	"closed":  true,
}

// SanitizeName converts a session name into its filesystem-safe canonical
// form: surrounding whitespace trimmed, every disallowed path character
// replaced with an underscore. The sanitized form keys the stored record, so
// two inputs that sanitize identically are the same session.
func SanitizeName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", &coorderr.ValidationError{Field: "name", Reason: "must not be empty"}
	}
	s := unsafeNameChars.ReplaceAllString(trimmed, "_")
	if len(s) > maxNameLen {
		return "", &coorderr.ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("must be at most %d characters after sanitization, got %d", maxNameLen, len(s)),
		}
	}
	if reservedNames[strings.ToLower(s)] {
		return "", &coorderr.ValidationError{Field: "name", Reason: fmt.Sprintf("%q is reserved", s)}
	}
	return s, nil
}
