package domain

import "time"

// Tier classifies where a paint record came from.
const (
	TierProduct   = 1 // purchasable catalog
	TierReference = 2 // OEM reference, not stocked
	TierResearch  = 3 // synthesized from web research
)

// ReferenceDisclaimer is attached to every tier-2 record.
const ReferenceDisclaimer = "We don't currently stock this color. Contact us if you'd like to request it!"

// Finish describes the paint finish type.
type Finish string

const (
	FinishMetallic Finish = "Metallic"
	FinishPearl    Finish = "Pearl"
	FinishSolid    Finish = "Solid"
	FinishUnknown  Finish = "Unknown"
)

// Gloss describes the gloss level.
type Gloss string

const (
	GlossHigh    Gloss = "High"
	GlossMedium  Gloss = "Medium"
	GlossLow     Gloss = "Low"
	GlossUnknown Gloss = "Unknown"
)

// RGB is a single color sample.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Swatch holds the three-point rendering samples for a paint color.
type Swatch struct {
	Highlight RGB `json:"highlight"`
	Base      RGB `json:"base"`
	Shadow    RGB `json:"shadow"`
}

// KitASINs holds per-kit product references. Empty string means not sold.
type KitASINs struct {
	BasicKit     string `json:"basicKit,omitempty"`
	EssentialKit string `json:"essentialKit,omitempty"`
	ProKit       string `json:"proKit,omitempty"`
	PremiumKit   string `json:"premiumKit,omitempty"`
}

// Empty reports whether no kit has a product reference.
func (k KitASINs) Empty() bool {
	return k.BasicKit == "" && k.EssentialKit == "" && k.ProKit == "" && k.PremiumKit == ""
}

// PaintRecord is the unit of truth for a single paint code.
type PaintRecord struct {
	Identifier string `json:"identifier"`
	Brand      string `json:"brand"`
	Code       string `json:"paintCode"`
	ColorName  string `json:"colorName"`

	Swatch Swatch `json:"rgb"`
	Finish Finish `json:"paintType"`
	Gloss  Gloss  `json:"gloss"`

	// Vehicle compatibility, populated from reference datasets only.
	Models         []string          `json:"models"`
	YearRanges     map[string]string `json:"yearRanges,omitempty"`
	Parts          []string          `json:"applicableParts,omitempty"`
	Regions        []string          `json:"regions,omitempty"`
	HasVehicleData bool              `json:"hasVehicleData"`

	// Product fields, tier 1 only.
	ProductTitle string   `json:"productTitle,omitempty"`
	Price        string   `json:"msrp,omitempty"`
	ASINs        KitASINs `json:"asins,omitzero"`

	Tier       int    `json:"tier"`
	InStock    bool   `json:"inStock"`
	Disclaimer string `json:"message,omitempty"`
}

// Resolution is a successful tiered lookup result.
type Resolution struct {
	Record  PaintRecord `json:"record"`
	Tier    int         `json:"tier"`
	Sources []string    `json:"sources,omitempty"`
}

// SearchResult is a single web search hit. Only these three fields are
// consumed anywhere in the pipeline.
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Confidence levels reported by extraction steps.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ResolvedColor is a color record synthesized from web research.
type ResolvedColor struct {
	Name       string     `json:"name"`
	HexBase    string     `json:"hexBase"`
	RGBBase    RGB        `json:"rgbBase"`
	Confidence Confidence `json:"confidence"`
	Source     string     `json:"source"`
	Researched bool       `json:"researched"`
}

// RepairType is the closed set of diagnosable paint problems.
type RepairType string

const (
	RepairChip      RepairType = "chip"
	RepairScratch   RepairType = "scratch"
	RepairLargeArea RepairType = "large-area"
	RepairRust      RepairType = "rust"
	RepairTouchup   RepairType = "touchup"
)

// Valid reports whether the value is a member of the repair type enumeration.
func (r RepairType) Valid() bool {
	switch r {
	case RepairChip, RepairScratch, RepairLargeArea, RepairRust, RepairTouchup:
		return true
	}
	return false
}

// ProductKind is the closed set of recommendable products.
type ProductKind string

const (
	ProductTouchUpPen  ProductKind = "touch-up-pen"
	ProductSprayCan    ProductKind = "spray-can"
	ProductCompleteKit ProductKind = "complete-kit"
)

// Valid reports whether the value is a member of the product enumeration.
func (p ProductKind) Valid() bool {
	switch p {
	case ProductTouchUpPen, ProductSprayCan, ProductCompleteKit:
		return true
	}
	return false
}

// Diagnosis is a validated repair classification.
type Diagnosis struct {
	Problem            string      `json:"problem"`
	RepairType         RepairType  `json:"repairType"`
	RecommendedProduct ProductKind `json:"recommendedProduct"`
	ProductName        string      `json:"productName,omitempty"`
	Confidence         float64     `json:"confidence"`
}

// FactSource tags where extracted vehicle facts came from. VIN-tag facts are
// trusted ground truth and skip color confirmation; everything else requires it.
type FactSource string

const (
	SourceText  FactSource = "text"
	SourcePhoto FactSource = "car_photo"
	SourceVIN   FactSource = "vin"
)

// Facts is the accumulated, partially-known attribute set of a conversation.
// Zero values mean "not yet known".
type Facts struct {
	Brand              string      `json:"brand,omitempty"`
	Model              string      `json:"model,omitempty"`
	Year               int         `json:"year,omitempty"`
	PaintCode          string      `json:"paintCode,omitempty"`
	ColorName          string      `json:"colorName,omitempty"`
	HexColor           string      `json:"hexColor,omitempty"`
	ColorVerified      bool        `json:"colorVerified,omitempty"`
	ImageType          FactSource  `json:"imageType,omitempty"`
	RepairProblem      string      `json:"repairProblem,omitempty"`
	RepairType         RepairType  `json:"repairType,omitempty"`
	RecommendedProduct ProductKind `json:"recommendedProduct,omitempty"`
}

// LocationInfo is the paint-code-location research result.
type LocationInfo struct {
	Locations  []string `json:"locations"`
	Sources    []string `json:"sources"`
	Researched bool     `json:"researched"`
	Cached     bool     `json:"cached,omitempty"`
}

// ContentLink points at a researched article or video.
type ContentLink struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}

// EraContent is the promotional-content research result.
type EraContent struct {
	Article    *ContentLink `json:"article,omitempty"`
	Video      *ContentLink `json:"video,omitempty"`
	Researched bool         `json:"researched"`
	Cached     bool         `json:"cached,omitempty"`
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversationId"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Conversation is a persisted chat session summary.
type Conversation struct {
	ID        string    `json:"id"`
	Preview   string    `json:"preview"`
	Stage     string    `json:"stage"`
	Facts     Facts     `json:"facts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
