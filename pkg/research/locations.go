package research

import "strings"

// staticLocations is the curated per-brand paint code label table. Brands are
// keyed lowercase. These answers are served before any web research runs.
var staticLocations = map[string][]string{
	"toyota": {
		"Driver's side door jamb, on the vehicle identification label",
		"Under the hood on the firewall (older models)",
	},
	"lexus": {
		"Driver's side door jamb, on the vehicle identification label",
	},
	"honda": {
		"Driver's side door jamb",
		"Passenger side door jamb (some models)",
	},
	"acura": {
		"Driver's side door jamb",
	},
	"nissan": {
		"Driver's side door jamb, on the FMVSS certification label",
		"Under the hood on the firewall (older models)",
	},
	"infiniti": {
		"Driver's side door jamb, on the FMVSS certification label",
	},
	"ford": {
		"Driver's side door jamb, on the safety compliance sticker",
	},
	"lincoln": {
		"Driver's side door jamb, on the safety compliance sticker",
	},
	"chevrolet": {
		"Glove box or center console, on the service parts identification label",
		"Trunk lid or spare tire cover (older models)",
	},
	"gmc": {
		"Glove box or center console, on the service parts identification label",
	},
	"dodge": {
		"Driver's side door jamb",
		"Under the hood on the radiator support (older models)",
	},
	"ram": {
		"Driver's side door jamb",
	},
	"jeep": {
		"Driver's side door jamb",
		"Under the hood on the firewall",
	},
	"chrysler": {
		"Driver's side door jamb",
	},
	"bmw": {
		"Under the hood on the strut tower or firewall",
		"Driver's side door jamb (newer models)",
	},
	"mercedes-benz": {
		"Driver's side door jamb or B-pillar",
		"Under the hood on the radiator support",
	},
	"audi": {
		"Trunk, on the spare wheel well sticker",
		"Front of the service booklet",
	},
	"volkswagen": {
		"Trunk, on the spare wheel well sticker",
		"Front of the service booklet",
	},
	"subaru": {
		"Under the hood on the strut tower",
		"Driver's side door jamb (newer models)",
	},
	"mazda": {
		"Driver's side door jamb",
		"Under the hood on the firewall (older models)",
	},
	"hyundai": {
		"Driver's side door jamb",
	},
	"kia": {
		"Driver's side door jamb",
	},
	"volvo": {
		"Under the hood on the radiator support",
		"Driver's side door jamb",
	},
	"tesla": {
		"Driver's side door jamb, lower B-pillar",
	},
	"porsche": {
		"Under the front hood near the spare wheel well",
		"Driver's side door jamb (newer models)",
	},
	"mitsubishi": {
		"Driver's side door jamb",
	},
}

// genericLocations is the answer of last resort when neither the table nor
// web research names a location.
var genericLocations = []string{
	"Driver's side door jamb",
	"Under the hood on the firewall or strut tower",
	"Owner's manual specification page",
}

// StaticLocations looks a brand up in the curated table.
func StaticLocations(brand string) ([]string, bool) {
	locs, ok := staticLocations[strings.ToLower(strings.TrimSpace(brand))]
	return locs, ok
}
