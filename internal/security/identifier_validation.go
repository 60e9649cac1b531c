package security

import (
	"regexp"
	"strings"
)

var identRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func IsSafeIdentifier(value string) bool {
	return identRegex.MatchString(value)
}

// IsSafeQualifiedIdentifier accepts schema-qualified names like marts.document_index.
func IsSafeQualifiedIdentifier(value string) bool {
	parts := strings.Split(value, ".")
	if len(parts) == 0 || len(parts) > 2 {
		return false
	}
	for _, part := range parts {
		if !identRegex.MatchString(part) {
			return false
		}
	}
	return true
}
