package paint

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Dataset column names. Lookup is by header name so column order and any
// extra columns in the source files are irrelevant.
const (
	colIdentifier    = "Identifier (Make + Color Code + Color Name)"
	colIdentifierAlt = "Name (Make/Brand + Color Code + Color Name)"
	colProductTitle  = "PRODUCT TITLE"
	colMSRP          = "MSRP"
	colType          = "Type"
	colGloss         = "Gloss"
	colASINPro       = "Asin Pro Kit [Touchup Jar]"
	colASINEssential = "Asin Essential Kit [Touchup Jar]"
	colASINPremium   = "Asin Premium Kit [Touchup Jar]"
	colASINBasic     = "ASIN Basic Kit [Touchup Jar]"

	colModelName    = "MODEL_NAME"
	colAllYearsUsed = "ALL_YEARS_USED"
	colVehicleParts = "ALL_VEHICLE_PARTS"
	colRegionName   = "REGION_NAME"
)

// asinAbsent is the sentinel the product sheet uses for "no listing".
const asinAbsent = "#N/A"

// ProductRow is one row of the primary product dataset.
type ProductRow struct {
	Identifier   string
	Highlight    [3]int
	Base         [3]int
	Shadow       [3]int
	Type         string
	Gloss        string
	ProductTitle string
	Price        string
	ASINPro      string
	ASINEssential string
	ASINPremium  string
	ASINBasic    string
}

// UsageRow is one row of a vehicle-usage reference dataset.
type UsageRow struct {
	Identifier string
	Model      string
	YearsUsed  string
	Parts      string
	Region     string
}

type headerIndex map[string]int

func readHeader(r *csv.Reader) (headerIndex, error) {
	record, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(headerIndex, len(record))
	for i, name := range record {
		idx[strings.TrimSpace(name)] = i
	}
	return idx, nil
}

func (h headerIndex) get(record []string, name string) string {
	i, ok := h[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func (h headerIndex) getInt(record []string, name string) int {
	v, err := strconv.Atoi(h.get(record, name))
	if err != nil {
		return 0
	}
	return v
}

// normalizeASIN converts the sheet's absent sentinels to the empty string so
// "#N/A" never leaks into output as a product reference.
func normalizeASIN(raw string) string {
	if raw == "" || raw == asinAbsent {
		return ""
	}
	return raw
}

// ReadProductCSV decodes the primary product dataset. Rows that fail to
// decode structurally are skipped; semantic validation happens in Merge.
func ReadProductCSV(r io.Reader) ([]ProductRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	var rows []ProductRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read product row: %w", err)
		}
		identifier := header.get(record, colIdentifier)
		if identifier == "" {
			identifier = header.get(record, colIdentifierAlt)
		}
		row := ProductRow{
			Identifier:   identifier,
			Type:         header.get(record, colType),
			Gloss:        header.get(record, colGloss),
			ProductTitle: header.get(record, colProductTitle),
			Price:        header.get(record, colMSRP),
			ASINPro:      normalizeASIN(header.get(record, colASINPro)),
			ASINEssential: normalizeASIN(header.get(record, colASINEssential)),
			ASINPremium:  normalizeASIN(header.get(record, colASINPremium)),
			ASINBasic:    normalizeASIN(header.get(record, colASINBasic)),
		}
		for i := 0; i < 3; i++ {
			n := strconv.Itoa(i + 1)
			sample := [3]int{
				header.getInt(record, "Red"+n),
				header.getInt(record, "Green"+n),
				header.getInt(record, "Blue"+n),
			}
			switch i {
			case 0:
				row.Highlight = sample
			case 1:
				row.Base = sample
			case 2:
				row.Shadow = sample
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadUsageCSV decodes a vehicle-usage reference dataset.
func ReadUsageCSV(r io.Reader) ([]UsageRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := readHeader(cr)
	if err != nil {
		return nil, err
	}
	var rows []UsageRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read usage row: %w", err)
		}
		rows = append(rows, UsageRow{
			Identifier: header.get(record, colIdentifier),
			Model:      header.get(record, colModelName),
			YearsUsed:  header.get(record, colAllYearsUsed),
			Parts:      header.get(record, colVehicleParts),
			Region:     header.get(record, colRegionName),
		})
	}
	return rows, nil
}
