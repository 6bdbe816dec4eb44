package paint

import (
	"testing"

	"paintcode/pkg/domain"
)

func testDatabase() *Database {
	tier1 := []domain.PaintRecord{
		{
			Identifier: "Toyota - 040 - Super White",
			Brand:      "Toyota", Code: "040", ColorName: "Super White",
			Swatch:  domain.Swatch{Base: domain.RGB{R: 255, G: 255, B: 255}},
			Tier:    domain.TierProduct,
			InStock: true,
		},
		{
			Identifier: "Toyota - 202 - Black",
			Brand:      "Toyota", Code: "202", ColorName: "Black",
			Swatch:  domain.Swatch{Base: domain.RGB{R: 10, G: 10, B: 12}},
			Tier:    domain.TierProduct,
			InStock: true,
		},
	}
	tier2 := []domain.PaintRecord{
		{
			Identifier: "Nissan - QAB - Pearl White",
			Brand:      "Nissan", Code: "QAB", ColorName: "Pearl White",
			Models:     []string{"Altima"},
			Tier:       domain.TierReference,
			Disclaimer: domain.ReferenceDisclaimer,
		},
	}
	return NewDatabase(tier1, tier2)
}

func TestDatabaseLookup(t *testing.T) {
	db := testDatabase()

	rec, tier, ok := db.Lookup("toyota", " 040 ")
	if !ok || tier != domain.TierProduct {
		t.Fatalf("lookup = tier %d ok %v", tier, ok)
	}
	if rec.ColorName != "Super White" {
		t.Errorf("colorName = %q", rec.ColorName)
	}

	rec, tier, ok = db.Lookup("NISSAN", "qab")
	if !ok || tier != domain.TierReference {
		t.Fatalf("tier2 lookup = tier %d ok %v", tier, ok)
	}
	if rec.Disclaimer != domain.ReferenceDisclaimer {
		t.Errorf("disclaimer = %q", rec.Disclaimer)
	}

	if _, _, ok := db.Lookup("Mazda", "41W"); ok {
		t.Fatal("unexpected hit for unknown code")
	}
}

func TestDatabaseSearchByColorName(t *testing.T) {
	db := testDatabase()
	hits := db.SearchByColorName("white")
	if len(hits) != 1 || hits[0].Code != "040" {
		t.Fatalf("hits = %+v", hits)
	}
	if db.SearchByColorName("  ") != nil {
		t.Fatal("blank query should return nothing")
	}
}

func TestDatabaseSimilarColors(t *testing.T) {
	db := testDatabase()
	hits := db.SimilarColors(domain.RGB{R: 0, G: 0, B: 0}, 1)
	if len(hits) != 1 || hits[0].Code != "202" {
		t.Fatalf("nearest to black = %+v", hits)
	}
}
