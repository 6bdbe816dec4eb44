// Command mergedb rebuilds the two-tier paint dataset from the raw CSV
// exports: one product sheet and any number of vehicle-usage reference
// sheets. The output JSON artifacts are what the service loads at startup.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"paintcode/internal/util"
	"paintcode/pkg/paint"
)

// pathList lets -usage be given once per reference sheet.
type pathList []string

func (p *pathList) String() string { return strings.Join(*p, ",") }

func (p *pathList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func main() {
	var usagePaths pathList
	productPath := flag.String("products", "", "product CSV export")
	flag.Var(&usagePaths, "usage", "vehicle-usage reference CSV (repeatable)")
	tier1Out := flag.String("tier1-out", "tier1.json", "tier 1 output path")
	tier2Out := flag.String("tier2-out", "tier2.json", "tier 2 output path")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	util.InitLogger(*logLevel)
	if *productPath == "" {
		log.Fatal("missing required -products flag")
	}

	runID := uuid.NewString()
	logger := slog.With("run_id", runID)

	products, err := readProducts(*productPath)
	if err != nil {
		log.Fatalf("read products: %v", err)
	}
	logger.Info("product sheet loaded", "path", *productPath, "rows", len(products))

	references := make([][]paint.UsageRow, 0, len(usagePaths))
	for _, path := range usagePaths {
		rows, err := readUsage(path)
		if err != nil {
			log.Fatalf("read usage %s: %v", path, err)
		}
		logger.Info("usage sheet loaded", "path", path, "rows", len(rows))
		references = append(references, rows)
	}

	result := paint.Merge(products, references...)
	logger.Info("merge complete",
		"tier1", len(result.Tier1),
		"tier2", len(result.Tier2),
		"matched", result.Matched,
		"unmatched", result.Unmatched,
		"skipped", result.Skipped,
	)

	if err := writeRecords(*tier1Out, result.Tier1); err != nil {
		log.Fatalf("write tier 1: %v", err)
	}
	if err := writeRecords(*tier2Out, result.Tier2); err != nil {
		log.Fatalf("write tier 2: %v", err)
	}
	logger.Info("artifacts written", "tier1_path", *tier1Out, "tier2_path", *tier2Out)
}

func readProducts(path string) ([]paint.ProductRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return paint.ReadProductCSV(f)
}

func readUsage(path string) ([]paint.UsageRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return paint.ReadUsageCSV(f)
}

func writeRecords(path string, records any) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
