package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"paintcode/pkg/domain"
)

// VehicleExtraction is what a chat turn yields: conversational reply text
// plus whatever vehicle facts the model could pull out of the message.
type VehicleExtraction struct {
	Reply            string   `json:"reply"`
	Brand            string   `json:"brand"`
	Model            string   `json:"model"`
	Year             int      `json:"year"`
	PaintCode        string   `json:"paintCode"`
	ColorName        string   `json:"colorName"`
	RepairProblem    string   `json:"repairProblem"`
	SuggestedOptions []string `json:"suggestedOptions"`
}

// Facts converts the extraction into the domain fact set. Empty fields stay
// zero so the merge layer treats them as "not mentioned".
func (v VehicleExtraction) Facts() domain.Facts {
	return domain.Facts{
		Brand:         strings.TrimSpace(v.Brand),
		Model:         strings.TrimSpace(v.Model),
		Year:          v.Year,
		PaintCode:     strings.TrimSpace(v.PaintCode),
		ColorName:     strings.TrimSpace(v.ColorName),
		RepairProblem: strings.TrimSpace(v.RepairProblem),
	}
}

// PhotoAnalysis is the result of analyzing an uploaded vehicle image.
type PhotoAnalysis struct {
	ImageType string `json:"imageType"`
	Brand     string `json:"brand"`
	Model     string `json:"model"`
	Year      int    `json:"year"`
	PaintCode string `json:"paintCode"`
	ColorName string `json:"colorName"`
	Notes     string `json:"notes"`
}

// Source maps the detected image kind onto a fact source tag.
func (p PhotoAnalysis) Source() domain.FactSource {
	if strings.EqualFold(strings.TrimSpace(p.ImageType), "vin") {
		return domain.SourceVIN
	}
	return domain.SourcePhoto
}

// RepairClassification is the raw, unvalidated model output for a repair
// diagnosis. Enum validation happens in the diagnose package.
type RepairClassification struct {
	RepairType         string  `json:"repairType"`
	RecommendedProduct string  `json:"recommendedProduct"`
	ProductName        string  `json:"productName"`
	Confidence         float64 `json:"confidence"`
}

// Extractor assembles prompts and decodes model output into the typed
// variants above. It is stateless and safe for concurrent use.
type Extractor struct {
	gen TextGenerator
}

// NewExtractor wraps a text generator.
func NewExtractor(gen TextGenerator) *Extractor {
	return &Extractor{gen: gen}
}

const chatSystemPrompt = `You are a friendly automotive paint assistant. The user needs
the exact factory paint for their vehicle. From each message, extract any of:
vehicle brand, model, year, paint code, color name, and a description of the
paint damage. Reply with JSON only, no prose outside the JSON:
{"reply": "<short friendly reply or follow-up question>",
 "brand": "", "model": "", "year": 0, "paintCode": "", "colorName": "",
 "repairProblem": "", "suggestedOptions": []}
Leave fields empty (or 0) when the message does not mention them. Never guess.`

// ExtractVehicleInfo runs one chat turn: it passes the recent history and the
// new message to the model and returns the reply plus extracted facts.
func (e *Extractor) ExtractVehicleInfo(ctx context.Context, history []domain.Message, message string) (VehicleExtraction, error) {
	var b strings.Builder
	for _, m := range history {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	fmt.Fprintf(&b, "user: %s\n", message)

	raw, err := e.gen.GenerateText(ctx, chatSystemPrompt, b.String())
	if err != nil {
		return VehicleExtraction{}, fmt.Errorf("chat extraction: %w", err)
	}
	var out VehicleExtraction
	if err := decodeJSONBlock(raw, &out); err != nil {
		return VehicleExtraction{}, fmt.Errorf("decode chat extraction: %w", err)
	}
	return out, nil
}

const colorSystemPrompt = `You identify automotive paint colors from web search results.
Given a vehicle brand, a paint code and search snippets, determine the official
color name and its base hex value. Reply with JSON only:
{"name": "", "hexBase": "#RRGGBB", "confidence": "high|medium|low", "source": "<url>"}
Use confidence "low" when the snippets do not clearly state the color.`

// ExtractColor turns web search results for a brand and paint code into a
// resolved color. The caller validates hex format and confidence.
func (e *Extractor) ExtractColor(ctx context.Context, brand, code string, results []domain.SearchResult) (domain.ResolvedColor, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Brand: %s\nPaint code: %s\n\nSearch results:\n", brand, code)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}

	raw, err := e.gen.GenerateText(ctx, colorSystemPrompt, b.String())
	if err != nil {
		return domain.ResolvedColor{}, fmt.Errorf("color extraction: %w", err)
	}
	var out domain.ResolvedColor
	if err := decodeJSONBlock(raw, &out); err != nil {
		return domain.ResolvedColor{}, fmt.Errorf("decode color extraction: %w", err)
	}
	out.Researched = true
	return out, nil
}

const repairSystemPrompt = `You classify automotive paint damage. Given a damage
description, pick exactly one repairType from: chip, scratch, large-area, rust,
touchup. Pick exactly one recommendedProduct from: touch-up-pen, spray-can,
complete-kit. Reply with JSON only:
{"repairType": "", "recommendedProduct": "", "productName": "", "confidence": 0.0}`

// ClassifyRepair asks the model for a raw repair classification.
func (e *Extractor) ClassifyRepair(ctx context.Context, problem string) (RepairClassification, error) {
	raw, err := e.gen.GenerateText(ctx, repairSystemPrompt, "Damage description: "+problem)
	if err != nil {
		return RepairClassification{}, fmt.Errorf("repair classification: %w", err)
	}
	var out RepairClassification
	if err := decodeJSONBlock(raw, &out); err != nil {
		return RepairClassification{}, fmt.Errorf("decode repair classification: %w", err)
	}
	return out, nil
}

const contentSystemPrompt = `You select the most relevant promotional content for a
vehicle owner. Given candidate articles and videos, pick at most one of each
that best matches the vehicle's era and repair need. Reply with JSON only:
{"article": {"title": "", "url": "", "snippet": ""} or null,
 "video": {"title": "", "url": "", "snippet": ""} or null}`

// SelectContent picks the best article and video from search candidates.
func (e *Extractor) SelectContent(ctx context.Context, brand, model string, year int, articles, videos []domain.SearchResult) (domain.EraContent, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Vehicle: %d %s %s\n\nArticle candidates:\n", year, brand, model)
	for i, r := range articles {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}
	b.WriteString("Video candidates:\n")
	for i, r := range videos {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}

	raw, err := e.gen.GenerateText(ctx, contentSystemPrompt, b.String())
	if err != nil {
		return domain.EraContent{}, fmt.Errorf("content selection: %w", err)
	}
	var out domain.EraContent
	if err := decodeJSONBlock(raw, &out); err != nil {
		return domain.EraContent{}, fmt.Errorf("decode content selection: %w", err)
	}
	out.Researched = true
	return out, nil
}

const locationSystemPrompt = `You research where the factory paint code label is
located on a vehicle. Given search snippets, list the physical locations named
in them. Reply with JSON only:
{"locations": ["", ""], "sources": ["<url>"]}
Leave locations empty when the snippets do not state any.`

// ExtractLocations pulls paint-code label locations out of search results.
func (e *Extractor) ExtractLocations(ctx context.Context, brand, model string, year int, results []domain.SearchResult) (domain.LocationInfo, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Vehicle: %d %s %s\n\nSearch results:\n", year, brand, model)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n%s\n%s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}

	raw, err := e.gen.GenerateText(ctx, locationSystemPrompt, b.String())
	if err != nil {
		return domain.LocationInfo{}, fmt.Errorf("location extraction: %w", err)
	}
	var out domain.LocationInfo
	if err := decodeJSONBlock(raw, &out); err != nil {
		return domain.LocationInfo{}, fmt.Errorf("decode location extraction: %w", err)
	}
	out.Researched = true
	return out, nil
}

const photoPrompt = `Identify this image. If it is a vehicle identification or paint
code sticker, set imageType to "vin" and read the paint code off the label. If
it is a photo of a car, set imageType to "car_photo" and identify the vehicle.
Reply with JSON only:
{"imageType": "vin|car_photo", "brand": "", "model": "", "year": 0,
 "paintCode": "", "colorName": "", "notes": ""}
Leave fields empty (or 0) when you cannot tell.`

// AnalyzePhoto sends a vehicle image through the vision model and decodes the
// typed analysis.
func AnalyzePhoto(ctx context.Context, analyzer ImageAnalyzer, mimeType string, image []byte) (PhotoAnalysis, error) {
	raw, err := analyzer.AnalyzeImage(ctx, photoPrompt, mimeType, image)
	if err != nil {
		return PhotoAnalysis{}, fmt.Errorf("photo analysis: %w", err)
	}
	var out PhotoAnalysis
	if err := decodeJSONBlock(raw, &out); err != nil {
		return PhotoAnalysis{}, fmt.Errorf("decode photo analysis: %w", err)
	}
	return out, nil
}

// decodeJSONBlock decodes the first JSON object found in model output.
// Models wrap JSON in markdown fences or prose often enough that strict
// decoding of the whole reply is not workable.
func decodeJSONBlock(text string, out any) error {
	s := strings.TrimSpace(text)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model output")
	}
	return json.Unmarshal([]byte(s[start:end+1]), out)
}
