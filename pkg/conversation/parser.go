package conversation

import (
	"regexp"
	"strconv"
	"strings"
)

// The deterministic parser runs before any model call. Whatever it extracts
// is merged ahead of the model's extraction, so an unambiguous "code 040"
// cannot be mangled by a hallucinating model.

var (
	yearPattern = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

	// "paint code 040", "code: NH-731P", "the code is WA8555"
	labeledCodePattern = regexp.MustCompile(`(?i)\b(?:paint\s+)?code\s*(?:is|was)?\s*[:#]?\s*([A-Za-z0-9][A-Za-z0-9-]{1,7})`)

	// Bare formats seen across manufacturers: "040", "1F7", "NH-731P",
	// "WA8555", "B-593M". Must contain a digit to avoid eating words.
	bareCodePattern = regexp.MustCompile(`\b([A-Z]{0,3}-?\d{1,4}[A-Z]{0,2}\d{0,2}[A-Z]?)\b`)

	affirmativeWords = []string{"yes", "yeah", "yep", "yup", "correct", "right", "exactly", "that's it", "thats it", "sure", "confirm"}
	negativeWords    = []string{"no", "nope", "nah", "wrong", "incorrect", "not it", "not right", "not my color", "different"}
)

// ParsedInput is what the deterministic pass recovered from a message.
type ParsedInput struct {
	Brand     string
	Model     string
	Year      int
	PaintCode string
}

// knownBrands drives brand and model matching. Keys are lowercase brand
// names; values list common model names for that brand, also lowercase.
var knownBrands = map[string][]string{
	"toyota":        {"camry", "corolla", "rav4", "tacoma", "tundra", "highlander", "prius", "4runner", "sienna", "supra"},
	"lexus":         {"rx", "es", "nx", "gx", "is", "ls"},
	"honda":         {"civic", "accord", "cr-v", "crv", "pilot", "odyssey", "fit", "ridgeline", "hr-v"},
	"acura":         {"mdx", "rdx", "tlx", "integra"},
	"nissan":        {"altima", "sentra", "rogue", "pathfinder", "frontier", "maxima", "titan", "murano"},
	"infiniti":      {"q50", "qx60", "qx80"},
	"ford":          {"f-150", "f150", "mustang", "explorer", "escape", "ranger", "bronco", "edge", "fusion"},
	"lincoln":       {"navigator", "aviator", "corsair"},
	"chevrolet":     {"silverado", "equinox", "malibu", "tahoe", "suburban", "camaro", "corvette", "traverse", "colorado"},
	"chevy":         {"silverado", "equinox", "malibu", "tahoe", "suburban", "camaro", "corvette", "traverse", "colorado"},
	"gmc":           {"sierra", "yukon", "acadia", "terrain", "canyon"},
	"dodge":         {"charger", "challenger", "durango"},
	"ram":           {"1500", "2500", "3500"},
	"jeep":          {"wrangler", "grand cherokee", "cherokee", "gladiator", "compass", "renegade"},
	"chrysler":      {"pacifica", "300"},
	"bmw":           {"3 series", "5 series", "x3", "x5", "m3", "m5"},
	"mercedes":      {"c-class", "e-class", "s-class", "gle", "glc"},
	"mercedes-benz": {"c-class", "e-class", "s-class", "gle", "glc"},
	"audi":          {"a4", "a6", "q5", "q7", "a3"},
	"volkswagen":    {"jetta", "passat", "golf", "tiguan", "atlas", "gti"},
	"vw":            {"jetta", "passat", "golf", "tiguan", "atlas", "gti"},
	"subaru":        {"outback", "forester", "crosstrek", "impreza", "wrx", "legacy", "ascent"},
	"mazda":         {"cx-5", "cx5", "mazda3", "cx-9", "cx-30", "mx-5", "miata"},
	"hyundai":       {"elantra", "sonata", "tucson", "santa fe", "kona", "palisade"},
	"kia":           {"sorento", "sportage", "telluride", "forte", "soul", "optima"},
	"volvo":         {"xc90", "xc60", "xc40", "s60", "s90"},
	"tesla":         {"model 3", "model s", "model x", "model y"},
	"porsche":       {"911", "cayenne", "macan", "taycan", "boxster"},
	"mitsubishi":    {"outlander", "eclipse"},
}

// canonicalBrand maps alias spellings to the catalog brand name.
var canonicalBrand = map[string]string{
	"chevy":    "Chevrolet",
	"vw":       "Volkswagen",
	"mercedes": "Mercedes-Benz",
}

// ParseMessage runs the deterministic extraction over a user message.
func ParseMessage(message string) ParsedInput {
	var out ParsedInput
	lower := strings.ToLower(message)

	if m := yearPattern.FindString(message); m != "" {
		out.Year, _ = strconv.Atoi(m)
	}

	for brand, models := range knownBrands {
		if !containsWord(lower, brand) {
			continue
		}
		out.Brand = titleBrand(brand)
		for _, model := range models {
			if containsWord(lower, model) {
				out.Model = titleModel(model)
				break
			}
		}
		break
	}

	if m := labeledCodePattern.FindStringSubmatch(message); m != nil {
		out.PaintCode = strings.ToUpper(m[1])
	} else {
		out.PaintCode = pickBareCode(message, out)
	}
	return out
}

// pickBareCode scans for unlabeled code-shaped tokens, discarding ones that
// are really the year or the model designation ("F-150", "1500").
func pickBareCode(message string, parsed ParsedInput) string {
	year := strconv.Itoa(parsed.Year)
	model := strings.ToUpper(parsed.Model)
	for _, m := range bareCodePattern.FindAllStringSubmatch(strings.ToUpper(message), -1) {
		code := m[1]
		if len(code) < 3 || code == year || code == model {
			continue
		}
		return code
	}
	return ""
}

// IsAffirmative reports whether the message reads as a yes.
func IsAffirmative(message string) bool {
	return matchesAny(message, affirmativeWords)
}

// IsNegative reports whether the message reads as a no. Checked before
// IsAffirmative by callers: "no, that's not right" contains "right".
func IsNegative(message string) bool {
	return matchesAny(message, negativeWords)
}

func matchesAny(message string, words []string) bool {
	lower := strings.ToLower(strings.TrimSpace(message))
	for _, w := range words {
		if lower == w || containsWord(lower, w) {
			return true
		}
	}
	return false
}

// containsWord reports whether substr occurs in s on word boundaries.
func containsWord(s, substr string) bool {
	for start := 0; ; {
		i := strings.Index(s[start:], substr)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(substr)
		beforeOK := i == 0 || !isWordChar(s[i-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		start = i + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// upperBrands are initialisms that title-casing would mangle.
var upperBrands = map[string]bool{"bmw": true, "gmc": true}

func titleBrand(brand string) string {
	if canon, ok := canonicalBrand[brand]; ok {
		return canon
	}
	if upperBrands[brand] {
		return strings.ToUpper(brand)
	}
	return titleWords(brand)
}

func titleModel(model string) string {
	if len(model) <= 4 && strings.ContainsAny(model, "0123456789") {
		return strings.ToUpper(model)
	}
	return titleWords(model)
}

func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
