package paint

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"paintcode/pkg/domain"
)

// Database is the loaded two-tier paint dataset with exact-match indexes.
// It is immutable after construction and safe for concurrent reads.
type Database struct {
	tier1 []domain.PaintRecord
	tier2 []domain.PaintRecord

	tier1ByKey map[string]int
	tier2ByKey map[string]int
}

// NewDatabase indexes the given tier slices. Records keep their slice order.
func NewDatabase(tier1, tier2 []domain.PaintRecord) *Database {
	db := &Database{
		tier1:      tier1,
		tier2:      tier2,
		tier1ByKey: make(map[string]int, len(tier1)),
		tier2ByKey: make(map[string]int, len(tier2)),
	}
	for i, rec := range tier1 {
		db.tier1ByKey[NormalizeKey(rec.Brand, rec.Code)] = i
	}
	for i, rec := range tier2 {
		db.tier2ByKey[NormalizeKey(rec.Brand, rec.Code)] = i
	}
	return db
}

// LoadDatabase reads the tier-1 and tier-2 JSON artifacts produced by the
// merge pipeline. The tier-2 path may be empty for product-only deployments.
func LoadDatabase(tier1Path, tier2Path string) (*Database, error) {
	tier1, err := readRecords(tier1Path)
	if err != nil {
		return nil, fmt.Errorf("load tier 1: %w", err)
	}
	var tier2 []domain.PaintRecord
	if tier2Path != "" {
		tier2, err = readRecords(tier2Path)
		if err != nil {
			return nil, fmt.Errorf("load tier 2: %w", err)
		}
	}
	return NewDatabase(tier1, tier2), nil
}

func readRecords(path string) ([]domain.PaintRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []domain.PaintRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

// Lookup finds a record by normalized (brand, code), checking tier 1 before
// tier 2. The returned tier is 0 when nothing matched.
func (db *Database) Lookup(brand, code string) (domain.PaintRecord, int, bool) {
	key := NormalizeKey(brand, code)
	if i, ok := db.tier1ByKey[key]; ok {
		return db.tier1[i], domain.TierProduct, true
	}
	if i, ok := db.tier2ByKey[key]; ok {
		return db.tier2[i], domain.TierReference, true
	}
	return domain.PaintRecord{}, 0, false
}

// LookupTier searches a single tier by normalized (brand, code).
func (db *Database) LookupTier(tier int, brand, code string) (domain.PaintRecord, bool) {
	key := NormalizeKey(brand, code)
	switch tier {
	case domain.TierProduct:
		if i, ok := db.tier1ByKey[key]; ok {
			return db.tier1[i], true
		}
	case domain.TierReference:
		if i, ok := db.tier2ByKey[key]; ok {
			return db.tier2[i], true
		}
	}
	return domain.PaintRecord{}, false
}

// Brands returns the sorted set of tier-1 brands.
func (db *Database) Brands() []string {
	seen := make(map[string]struct{})
	for _, rec := range db.tier1 {
		seen[rec.Brand] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for b := range seen {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

// SearchByColorName returns tier-1 records whose color name contains the
// query, case-insensitively.
func (db *Database) SearchByColorName(query string) []domain.PaintRecord {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}
	var out []domain.PaintRecord
	for _, rec := range db.tier1 {
		if strings.Contains(strings.ToLower(rec.ColorName), query) {
			out = append(out, rec)
		}
	}
	return out
}

// SimilarColors returns up to limit tier-1 records ordered by RGB distance
// from the reference sample, for suggesting purchasable alternatives.
func (db *Database) SimilarColors(ref domain.RGB, limit int) []domain.PaintRecord {
	if limit <= 0 || len(db.tier1) == 0 {
		return nil
	}
	type scored struct {
		rec  domain.PaintRecord
		dist float64
	}
	ranked := make([]scored, 0, len(db.tier1))
	for _, rec := range db.tier1 {
		ranked = append(ranked, scored{rec: rec, dist: rgbDistance(ref, rec.Swatch.Base)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].dist < ranked[j].dist })
	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]domain.PaintRecord, 0, limit)
	for _, s := range ranked[:limit] {
		out = append(out, s.rec)
	}
	return out
}

// TierSizes reports (tier1, tier2) record counts.
func (db *Database) TierSizes() (int, int) {
	return len(db.tier1), len(db.tier2)
}

func rgbDistance(a, b domain.RGB) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	dbl := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + dbl*dbl)
}
