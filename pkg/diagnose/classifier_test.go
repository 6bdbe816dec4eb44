package diagnose

import (
	"context"
	"errors"
	"testing"

	"paintcode/pkg/ai"
	"paintcode/pkg/domain"
)

type stubExtractor struct {
	calls  int
	result ai.RepairClassification
	err    error
}

func (s *stubExtractor) ClassifyRepair(context.Context, string) (ai.RepairClassification, error) {
	s.calls++
	return s.result, s.err
}

func TestKeywordPassSkipsModel(t *testing.T) {
	tests := []struct {
		problem     string
		wantRepair  domain.RepairType
		wantProduct domain.ProductKind
	}{
		{"stone chip on the hood", domain.RepairChip, domain.ProductTouchUpPen},
		{"someone keyed my door", domain.RepairScratch, domain.ProductTouchUpPen},
		{"rust spots around the wheel arch", domain.RepairRust, domain.ProductCompleteKit},
		{"clear coat peeling on the roof", domain.RepairLargeArea, domain.ProductSprayCan},
		{"just needs a small touch up", domain.RepairTouchup, domain.ProductTouchUpPen},
	}
	for _, tt := range tests {
		t.Run(tt.problem, func(t *testing.T) {
			ext := &stubExtractor{}
			c := New(ext)
			got, err := c.Diagnose(context.Background(), tt.problem)
			if err != nil {
				t.Fatalf("Diagnose: %v", err)
			}
			if got.RepairType != tt.wantRepair || got.RecommendedProduct != tt.wantProduct {
				t.Fatalf("diagnosis = %+v", got)
			}
			if ext.calls != 0 {
				t.Fatal("keyword match must not call the model")
			}
			if got.ProductName == "" {
				t.Fatal("missing product name")
			}
		})
	}
}

func TestModelFallback(t *testing.T) {
	ext := &stubExtractor{result: ai.RepairClassification{
		RepairType:         "Large-Area",
		RecommendedProduct: "spray-can",
		Confidence:         0.8,
	}}
	c := New(ext)

	got, err := c.Diagnose(context.Background(), "the paint looks terrible all over the trunk lid")
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if ext.calls != 1 {
		t.Fatalf("model calls = %d", ext.calls)
	}
	if got.RepairType != domain.RepairLargeArea || got.RecommendedProduct != domain.ProductSprayCan {
		t.Fatalf("diagnosis = %+v", got)
	}
}

func TestInvalidRepairTypeIsHardFailure(t *testing.T) {
	ext := &stubExtractor{result: ai.RepairClassification{
		RepairType:         "dent",
		RecommendedProduct: "hammer",
	}}
	c := New(ext)

	_, err := c.Diagnose(context.Background(), "big dent in the rear quarter panel")
	var invalid *InvalidClassificationError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidClassificationError", err)
	}
	if invalid.RepairType != "dent" {
		t.Fatalf("error = %+v", invalid)
	}
}

func TestInvalidProductFallsBackToMapping(t *testing.T) {
	ext := &stubExtractor{result: ai.RepairClassification{
		RepairType:         "rust",
		RecommendedProduct: "sandpaper",
	}}
	c := New(ext)

	got, err := c.Diagnose(context.Background(), "brown bubbling near the sill")
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if got.RecommendedProduct != domain.ProductCompleteKit {
		t.Fatalf("product = %q", got.RecommendedProduct)
	}
}

func TestEmptyProblem(t *testing.T) {
	c := New(&stubExtractor{})
	if _, err := c.Diagnose(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty description")
	}
}
