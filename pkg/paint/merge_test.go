package paint

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"paintcode/pkg/domain"
)

func sampleProductRows() []ProductRow {
	return []ProductRow{
		{
			Identifier: "Toyota - 040 - Super White",
			Highlight:  [3]int{255, 255, 255},
			Base:       [3]int{245, 245, 245},
			Shadow:     [3]int{200, 200, 200},
			Type:       "Solid",
			Gloss:      "High",
			Price:      "$54.95",
			ASINBasic:  "B000TEST01",
		},
		{
			Identifier: "Honda - NH-883P - Platinum White Pearl",
			Base:       [3]int{240, 240, 238},
			Type:       "Pearl",
			Gloss:      "High",
		},
		{Identifier: "garbage row"},
	}
}

func sampleUsageRows() []UsageRow {
	return []UsageRow{
		{Identifier: "Toyota - 040 - Super White", Model: "Camry", YearsUsed: "2002;2003;2004", Parts: "Bumper"},
		{Identifier: "Toyota - 040 - Super White", Model: "Corolla", YearsUsed: "2005", Region: "North America"},
		{Identifier: "Toyota - 040 - Super White", Model: "Non-specific Model"},
		{Identifier: "Nissan - QAB - Pearl White", Model: "Altima", YearsUsed: "2013;2014"},
		{Identifier: "", Model: "Ghost"},
	}
}

func TestMergeTiers(t *testing.T) {
	result := Merge(sampleProductRows(), sampleUsageRows())

	if len(result.Tier1) != 2 {
		t.Fatalf("tier1 len = %d, want 2 (malformed row skipped)", len(result.Tier1))
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}

	// Tier 1 sorted by (brand, code): Honda before Toyota.
	if result.Tier1[0].Brand != "Honda" || result.Tier1[1].Brand != "Toyota" {
		t.Fatalf("tier1 order = %s, %s", result.Tier1[0].Brand, result.Tier1[1].Brand)
	}

	toyota := result.Tier1[1]
	if !toyota.HasVehicleData {
		t.Fatal("toyota record should have vehicle data")
	}
	if !reflect.DeepEqual(toyota.Models, []string{"Camry", "Corolla"}) {
		t.Errorf("models = %v", toyota.Models)
	}
	if toyota.YearRanges["Camry"] != "2002;2003;2004" {
		t.Errorf("year ranges = %v", toyota.YearRanges)
	}
	if toyota.Price != "54.95" {
		t.Errorf("price = %q", toyota.Price)
	}
	if !toyota.InStock || toyota.Tier != domain.TierProduct {
		t.Errorf("tier fields = tier %d inStock %v", toyota.Tier, toyota.InStock)
	}

	honda := result.Tier1[0]
	if honda.HasVehicleData || len(honda.Models) != 0 {
		t.Errorf("honda should have empty compatibility, got %+v", honda.Models)
	}

	// Tier 2 contains only the Nissan reference identifier.
	if len(result.Tier2) != 1 {
		t.Fatalf("tier2 len = %d, want 1", len(result.Tier2))
	}
	nissan := result.Tier2[0]
	if nissan.Brand != "Nissan" || nissan.Code != "QAB" {
		t.Errorf("tier2 record = %+v", nissan)
	}
	if nissan.InStock || nissan.Tier != domain.TierReference {
		t.Errorf("tier2 flags = tier %d inStock %v", nissan.Tier, nissan.InStock)
	}
	if nissan.Disclaimer != domain.ReferenceDisclaimer {
		t.Errorf("disclaimer = %q", nissan.Disclaimer)
	}
}

func TestMergeDedupInvariant(t *testing.T) {
	result := Merge(sampleProductRows(), sampleUsageRows())
	tier1 := make(map[string]struct{})
	for _, rec := range result.Tier1 {
		tier1[strings.ToLower(rec.Identifier)] = struct{}{}
	}
	for _, rec := range result.Tier2 {
		if _, dup := tier1[strings.ToLower(rec.Identifier)]; dup {
			t.Fatalf("identifier %q present in both tiers", rec.Identifier)
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	first := Merge(sampleProductRows(), sampleUsageRows())
	second := Merge(sampleProductRows(), sampleUsageRows())

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatal("merge output is not byte-identical across runs")
	}
}

func TestReadProductCSVNamedColumns(t *testing.T) {
	// Column order differs from production files on purpose.
	csvData := "Type,Identifier (Make + Color Code + Color Name),Red1,Green1,Blue1,Red2,Green2,Blue2,Red3,Green3,Blue3,Gloss,MSRP,ASIN Basic Kit [Touchup Jar]\n" +
		"Solid,Toyota - 040 - Super White,255,255,255,245,245,245,200,200,200,High,$54.95,#N/A\n"
	rows, err := ReadProductCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadProductCSV: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d", len(rows))
	}
	row := rows[0]
	if row.Identifier != "Toyota - 040 - Super White" {
		t.Errorf("identifier = %q", row.Identifier)
	}
	if row.Base != [3]int{245, 245, 245} {
		t.Errorf("base = %v", row.Base)
	}
	if row.ASINBasic != "" {
		t.Errorf("#N/A ASIN must normalize to absent, got %q", row.ASINBasic)
	}
}

func TestReadUsageCSV(t *testing.T) {
	csvData := "Identifier (Make + Color Code + Color Name),MODEL_NAME,ALL_YEARS_USED,ALL_VEHICLE_PARTS,REGION_NAME\n" +
		"Nissan - QAB - Pearl White,Altima,2013;2014,Hood,North America\n" +
		",Orphan,,,\n"
	rows, err := ReadUsageCSV(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ReadUsageCSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if rows[0].Model != "Altima" || rows[0].Region != "North America" {
		t.Errorf("row = %+v", rows[0])
	}
}
