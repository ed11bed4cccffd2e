package hass

import (
	"errors"
	"strings"
)

var errEmptyID = errors.New("identifier is empty after sanitizing")

// SanitizeID turns a friendly device name into a topic-safe identifier:
// lowercase letters, digits and dashes only. Spaces, dashes and
// underscores collapse to a dash; anything else is dropped. An
// identifier may not begin with a dash.
func SanitizeID(name string) (string, error) {
	id := make([]byte, 0, len(name))
	for i, b := range []byte(name) {
		switch {
		case b >= 'a' && b <= 'z' || b >= '0' && b <= '9':
			id = append(id, b)
		case b >= 'A' && b <= 'Z':
			id = append(id, b+'a'-'A')
		case i > 0 && (b == '-' || b == ' ' || b == '_'):
			id = append(id, '-')
		}
	}
	s := strings.Trim(string(id), "-")
	if s == "" {
		return "", errEmptyID
	}
	return s, nil
}
