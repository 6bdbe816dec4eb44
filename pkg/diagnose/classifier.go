// Package diagnose turns free-text damage descriptions into a repair type and
// product recommendation. A deterministic keyword pass handles the common
// phrasings without a model call; everything else goes to the LLM, whose
// output is validated against the closed enums before it can reach a user.
package diagnose

import (
	"context"
	"fmt"
	"strings"

	"paintcode/pkg/ai"
	"paintcode/pkg/domain"
)

// InvalidClassificationError reports model output outside the repair enums.
// This is a hard failure: an unvalidated repair type must never drive a
// product recommendation.
type InvalidClassificationError struct {
	RepairType string
	Product    string
}

func (e *InvalidClassificationError) Error() string {
	return fmt.Sprintf("classification outside enum: repairType=%q recommendedProduct=%q", e.RepairType, e.Product)
}

// RepairExtractor is the model-backed classification step.
type RepairExtractor interface {
	ClassifyRepair(ctx context.Context, problem string) (ai.RepairClassification, error)
}

// productFor maps each repair type to its stock recommendation. Used by the
// keyword pass and to fill in model output that named a valid repair type but
// an unknown product.
var productFor = map[domain.RepairType]domain.ProductKind{
	domain.RepairChip:      domain.ProductTouchUpPen,
	domain.RepairScratch:   domain.ProductTouchUpPen,
	domain.RepairTouchup:   domain.ProductTouchUpPen,
	domain.RepairLargeArea: domain.ProductSprayCan,
	domain.RepairRust:      domain.ProductCompleteKit,
}

var productNames = map[domain.ProductKind]string{
	domain.ProductTouchUpPen:  "Touch-Up Paint Pen",
	domain.ProductSprayCan:    "Aerosol Spray Can",
	domain.ProductCompleteKit: "Complete Repair Kit",
}

// keywordRules are checked in order; the first rule with a matching keyword
// wins. Ordering matters: "rust spots" must hit rust before chip.
var keywordRules = []struct {
	repair   domain.RepairType
	keywords []string
}{
	{domain.RepairRust, []string{"rust", "corrosion", "oxidation", "oxidized"}},
	{domain.RepairLargeArea, []string{"large area", "whole panel", "entire panel", "whole door", "whole hood", "bumper", "repaint", "faded", "peeling", "clear coat"}},
	{domain.RepairChip, []string{"chip", "stone", "rock", "gravel", "pit"}},
	{domain.RepairScratch, []string{"scratch", "scrape", "scuff", "key", "swirl"}},
	{domain.RepairTouchup, []string{"touch up", "touch-up", "touchup", "small spot", "tiny spot"}},
}

// Classifier runs the two-pass diagnosis.
type Classifier struct {
	extractor RepairExtractor
}

// New builds a classifier. extractor may be nil, in which case only the
// keyword pass is available and unmatched descriptions fail.
func New(extractor RepairExtractor) *Classifier {
	return &Classifier{extractor: extractor}
}

// Diagnose classifies the damage description. The returned diagnosis always
// carries enum-valid repair type and product.
func (c *Classifier) Diagnose(ctx context.Context, problem string) (domain.Diagnosis, error) {
	problem = strings.TrimSpace(problem)
	if problem == "" {
		return domain.Diagnosis{}, fmt.Errorf("empty damage description")
	}

	if d, ok := classifyByKeyword(problem); ok {
		return d, nil
	}
	if c.extractor == nil {
		return domain.Diagnosis{}, fmt.Errorf("no keyword match for %q and no model configured", problem)
	}

	raw, err := c.extractor.ClassifyRepair(ctx, problem)
	if err != nil {
		return domain.Diagnosis{}, err
	}

	repair := domain.RepairType(strings.ToLower(strings.TrimSpace(raw.RepairType)))
	product := domain.ProductKind(strings.ToLower(strings.TrimSpace(raw.RecommendedProduct)))
	if !repair.Valid() {
		return domain.Diagnosis{}, &InvalidClassificationError{RepairType: raw.RepairType, Product: raw.RecommendedProduct}
	}
	if !product.Valid() {
		product = productFor[repair]
	}

	name := strings.TrimSpace(raw.ProductName)
	if name == "" {
		name = productNames[product]
	}
	return domain.Diagnosis{
		Problem:            problem,
		RepairType:         repair,
		RecommendedProduct: product,
		ProductName:        name,
		Confidence:         raw.Confidence,
	}, nil
}

func classifyByKeyword(problem string) (domain.Diagnosis, bool) {
	lower := strings.ToLower(problem)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				product := productFor[rule.repair]
				return domain.Diagnosis{
					Problem:            problem,
					RepairType:         rule.repair,
					RecommendedProduct: product,
					ProductName:        productNames[product],
					Confidence:         0.9,
				}, true
			}
		}
	}
	return domain.Diagnosis{}, false
}
