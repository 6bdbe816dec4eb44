package paint

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"paintcode/pkg/domain"
)

// Highlight/shadow scaling factors applied when only a base sample is known.
// Metallic and pearl finishes get a wider spread than solid paints.
const (
	metallicHighlight = 1.25
	metallicShadow    = 0.70
	solidHighlight    = 1.18
	solidShadow       = 0.75
)

var hexPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// DeriveSwatch builds a three-point swatch from a single base sample by
// scaling per finish and clamping to the RGB range.
func DeriveSwatch(base domain.RGB, finish domain.Finish) domain.Swatch {
	highlight, shadow := solidHighlight, solidShadow
	if finish == domain.FinishMetallic || finish == domain.FinishPearl {
		highlight, shadow = metallicHighlight, metallicShadow
	}
	return domain.Swatch{
		Highlight: scaleRGB(base, highlight),
		Base:      base,
		Shadow:    scaleRGB(base, shadow),
	}
}

func scaleRGB(c domain.RGB, factor float64) domain.RGB {
	return domain.RGB{
		R: clampChannel(float64(c.R) * factor),
		G: clampChannel(float64(c.G) * factor),
		B: clampChannel(float64(c.B) * factor),
	}
}

func clampChannel(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v)
}

// RGBToHex renders an RGB sample as an uppercase "#RRGGBB" string.
func RGBToHex(c domain.RGB) string {
	return fmt.Sprintf("#%02X%02X%02X", clampChannel(float64(c.R)), clampChannel(float64(c.G)), clampChannel(float64(c.B)))
}

// HexToRGB parses a 6-digit hex color, with or without the leading "#".
func HexToRGB(hex string) (domain.RGB, error) {
	if !hexPattern.MatchString(hex) {
		return domain.RGB{}, fmt.Errorf("invalid hex color %q", hex)
	}
	hex = strings.TrimPrefix(hex, "#")
	r, _ := strconv.ParseInt(hex[0:2], 16, 32)
	g, _ := strconv.ParseInt(hex[2:4], 16, 32)
	b, _ := strconv.ParseInt(hex[4:6], 16, 32)
	return domain.RGB{R: int(r), G: int(g), B: int(b)}, nil
}

// ValidHex reports whether the value is a well-formed "#RRGGBB" color.
func ValidHex(hex string) bool {
	return strings.HasPrefix(hex, "#") && hexPattern.MatchString(hex)
}

// ParseFinish maps dataset finish strings onto the finish enumeration.
func ParseFinish(raw string) domain.Finish {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "metallic":
		return domain.FinishMetallic
	case "pearl":
		return domain.FinishPearl
	case "solid":
		return domain.FinishSolid
	default:
		return domain.FinishUnknown
	}
}

// ParseGloss maps dataset gloss strings onto the gloss enumeration.
func ParseGloss(raw string) domain.Gloss {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high":
		return domain.GlossHigh
	case "medium", "med":
		return domain.GlossMedium
	case "low":
		return domain.GlossLow
	default:
		return domain.GlossUnknown
	}
}
