// Package paint implements the paint-code dataset: identifier parsing,
// swatch color derivation, CSV decoding, the tier-1/tier-2 merge and the
// in-memory tiered database consulted by the resolver.
package paint

import (
	"fmt"
	"strings"
)

// identifierSep is the literal separator inside composite identifiers,
// e.g. "Toyota - 040 - Super White".
const identifierSep = " - "

// MalformedIdentifierError reports an identifier that does not split into
// the brand/code/name form.
type MalformedIdentifierError struct {
	Raw string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: want \"Brand - Code - Name\"", e.Raw)
}

// Identity is a parsed composite identifier.
type Identity struct {
	Brand     string
	Code      string
	ColorName string
}

// String rejoins the identity into its canonical composite form.
func (id Identity) String() string {
	return id.Brand + identifierSep + id.Code + identifierSep + id.ColorName
}

// ParseIdentifier splits a composite identifier into brand, code and color
// name. Fewer than 3 segments is malformed; more than 3 means the color name
// itself contains the separator, so the tail is rejoined.
func ParseIdentifier(raw string) (Identity, error) {
	parts := strings.Split(raw, identifierSep)
	if len(parts) < 3 {
		return Identity{}, &MalformedIdentifierError{Raw: raw}
	}
	id := Identity{
		Brand:     strings.TrimSpace(parts[0]),
		Code:      strings.TrimSpace(parts[1]),
		ColorName: strings.TrimSpace(strings.Join(parts[2:], identifierSep)),
	}
	if id.Brand == "" || id.Code == "" || id.ColorName == "" {
		return Identity{}, &MalformedIdentifierError{Raw: raw}
	}
	return id, nil
}

// NormalizeKey builds the exact-match lookup key for a brand + paint code.
// Keys are case- and whitespace-insensitive.
func NormalizeKey(brand, code string) string {
	return strings.ToLower(strings.TrimSpace(brand)) + ":" + strings.ToLower(strings.TrimSpace(code))
}
