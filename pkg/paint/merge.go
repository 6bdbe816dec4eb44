package paint

import (
	"log/slog"
	"sort"
	"strings"

	"paintcode/pkg/domain"
)

// nonSpecificModel is a placeholder model name in the reference sheets that
// carries no compatibility information.
const nonSpecificModel = "Non-specific Model"

// MergeResult is the two-tier output of the dataset merge.
type MergeResult struct {
	Tier1 []domain.PaintRecord `json:"tier1"`
	Tier2 []domain.PaintRecord `json:"tier2"`

	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
	Skipped   int `json:"skipped"`
}

// usageAccumulator collects compatibility data for one identifier across all
// reference datasets.
type usageAccumulator struct {
	models     map[string]struct{}
	yearRanges map[string]string
	parts      map[string]struct{}
	regions    map[string]struct{}
}

func newUsageAccumulator() *usageAccumulator {
	return &usageAccumulator{
		models:     make(map[string]struct{}),
		yearRanges: make(map[string]string),
		parts:      make(map[string]struct{}),
		regions:    make(map[string]struct{}),
	}
}

func (u *usageAccumulator) add(row UsageRow) {
	if row.Model != "" && row.Model != nonSpecificModel {
		u.models[row.Model] = struct{}{}
		if row.YearsUsed != "" {
			u.yearRanges[row.Model] = row.YearsUsed
		}
	}
	if row.Parts != "" {
		u.parts[row.Parts] = struct{}{}
	}
	if row.Region != "" {
		u.regions[row.Region] = struct{}{}
	}
}

// Merge joins the primary product dataset with the vehicle-usage reference
// datasets on the composite identifier. Tier 1 carries every parseable
// product row; tier 2 carries every reference identifier not already in
// tier 1. Row-level failures are skipped, never fatal.
func Merge(primary []ProductRow, references ...[]UsageRow) MergeResult {
	usage := make(map[string]*usageAccumulator)
	for _, rows := range references {
		for _, row := range rows {
			// Gaps in reference identifiers are expected, not errors.
			if row.Identifier == "" {
				continue
			}
			acc, ok := usage[row.Identifier]
			if !ok {
				acc = newUsageAccumulator()
				usage[row.Identifier] = acc
			}
			acc.add(row)
		}
	}

	var result MergeResult
	tier1Keys := make(map[string]struct{}, len(primary))
	for _, row := range primary {
		id, err := ParseIdentifier(row.Identifier)
		if err != nil {
			slog.Warn("skipping product row", "identifier", row.Identifier, "err", err)
			result.Skipped++
			continue
		}
		record := domain.PaintRecord{
			Identifier: row.Identifier,
			Brand:      id.Brand,
			Code:       id.Code,
			ColorName:  id.ColorName,
			Swatch: domain.Swatch{
				Highlight: domain.RGB{R: row.Highlight[0], G: row.Highlight[1], B: row.Highlight[2]},
				Base:      domain.RGB{R: row.Base[0], G: row.Base[1], B: row.Base[2]},
				Shadow:    domain.RGB{R: row.Shadow[0], G: row.Shadow[1], B: row.Shadow[2]},
			},
			Finish:       ParseFinish(row.Type),
			Gloss:        ParseGloss(row.Gloss),
			ProductTitle: row.ProductTitle,
			Price:        strings.TrimPrefix(row.Price, "$"),
			ASINs: domain.KitASINs{
				BasicKit:     row.ASINBasic,
				EssentialKit: row.ASINEssential,
				ProKit:       row.ASINPro,
				PremiumKit:   row.ASINPremium,
			},
			Tier:    domain.TierProduct,
			InStock: true,
			Models:  []string{},
		}
		if acc, ok := usage[row.Identifier]; ok {
			record.Models = sortedKeys(acc.models)
			record.YearRanges = copyYearRanges(acc.yearRanges)
			record.Parts = sortedKeys(acc.parts)
			record.Regions = sortedKeys(acc.regions)
			record.HasVehicleData = true
			result.Matched++
		} else {
			result.Unmatched++
		}
		result.Tier1 = append(result.Tier1, record)
		tier1Keys[strings.ToLower(row.Identifier)] = struct{}{}
	}

	// Tier 2: every reference identifier not covered by a product. This is
	// the dedup invariant: no identifier appears in both tiers.
	for identifier, acc := range usage {
		if _, stocked := tier1Keys[strings.ToLower(identifier)]; stocked {
			continue
		}
		id, err := ParseIdentifier(identifier)
		if err != nil {
			result.Skipped++
			continue
		}
		result.Tier2 = append(result.Tier2, domain.PaintRecord{
			Identifier:     identifier,
			Brand:          id.Brand,
			Code:           id.Code,
			ColorName:      id.ColorName,
			Finish:         domain.FinishUnknown,
			Gloss:          domain.GlossUnknown,
			Models:         sortedKeys(acc.models),
			YearRanges:     copyYearRanges(acc.yearRanges),
			Parts:          sortedKeys(acc.parts),
			Regions:        sortedKeys(acc.regions),
			HasVehicleData: len(acc.models) > 0,
			Tier:           domain.TierReference,
			InStock:        false,
			Disclaimer:     domain.ReferenceDisclaimer,
		})
	}

	sortRecords(result.Tier1)
	sortRecords(result.Tier2)
	return result
}

// sortRecords orders by (brand, code) so regenerated output is diffable.
func sortRecords(records []domain.PaintRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].Brand != records[j].Brand {
			return records[i].Brand < records[j].Brand
		}
		if records[i].Code != records[j].Code {
			return records[i].Code < records[j].Code
		}
		return records[i].Identifier < records[j].Identifier
	})
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyYearRanges(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
