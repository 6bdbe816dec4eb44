package ai

import (
	"context"
	"strings"
	"testing"

	"paintcode/pkg/domain"
)

type stubGenerator struct {
	reply      string
	err        error
	lastSystem string
	lastUser   string
}

func (s *stubGenerator) GenerateText(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastUser = userPrompt
	return s.reply, s.err
}

func TestDecodeJSONBlock(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "bare object", input: `{"name":"Super White"}`, want: "Super White"},
		{name: "fenced", input: "```json\n{\"name\":\"Super White\"}\n```", want: "Super White"},
		{name: "fenced no language", input: "```\n{\"name\":\"Super White\"}\n```", want: "Super White"},
		{name: "surrounding prose", input: "Here you go:\n{\"name\":\"Super White\"}\nHope that helps!", want: "Super White"},
		{name: "no object", input: "I could not determine the color.", wantErr: true},
		{name: "truncated object", input: `{"name":"Super`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Name string `json:"name"`
			}
			err := decodeJSONBlock(tt.input, &out)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeJSONBlock: %v", err)
			}
			if out.Name != tt.want {
				t.Fatalf("name = %q, want %q", out.Name, tt.want)
			}
		})
	}
}

func TestExtractVehicleInfo(t *testing.T) {
	gen := &stubGenerator{reply: `{"reply":"Got it, a 2020 Toyota!","brand":"Toyota","model":"Camry","year":2020,"paintCode":"040","colorName":"","repairProblem":"stone chip on the hood","suggestedOptions":["Yes","No"]}`}
	e := NewExtractor(gen)

	history := []domain.Message{{Role: "assistant", Content: "What vehicle do you have?"}}
	got, err := e.ExtractVehicleInfo(context.Background(), history, "2020 Toyota Camry, code 040, stone chip on the hood")
	if err != nil {
		t.Fatalf("ExtractVehicleInfo: %v", err)
	}
	if got.Brand != "Toyota" || got.Model != "Camry" || got.Year != 2020 || got.PaintCode != "040" {
		t.Fatalf("extraction = %+v", got)
	}
	facts := got.Facts()
	if facts.RepairProblem != "stone chip on the hood" || facts.ColorName != "" {
		t.Fatalf("facts = %+v", facts)
	}
	if !strings.Contains(gen.lastUser, "assistant: What vehicle do you have?") {
		t.Fatalf("history missing from prompt: %q", gen.lastUser)
	}
}

func TestExtractColor(t *testing.T) {
	gen := &stubGenerator{reply: "```json\n" + `{"name":"Super White","hexBase":"#F8F8F8","confidence":"high","source":"https://example.com/toyota-040"}` + "\n```"}
	e := NewExtractor(gen)

	got, err := e.ExtractColor(context.Background(), "Toyota", "040", []domain.SearchResult{
		{Title: "Toyota 040 Super White", Snippet: "Paint code 040 is Super White", URL: "https://example.com/toyota-040"},
	})
	if err != nil {
		t.Fatalf("ExtractColor: %v", err)
	}
	if got.Name != "Super White" || got.HexBase != "#F8F8F8" || got.Confidence != domain.ConfidenceHigh {
		t.Fatalf("color = %+v", got)
	}
	if !got.Researched {
		t.Fatal("Researched must be set")
	}
	if !strings.Contains(gen.lastUser, "Paint code: 040") {
		t.Fatalf("code missing from prompt: %q", gen.lastUser)
	}
}

func TestClassifyRepairPassesRawValues(t *testing.T) {
	// The extractor does not validate enums; invalid values must flow
	// through unchanged so the diagnose layer can reject them.
	gen := &stubGenerator{reply: `{"repairType":"dent","recommendedProduct":"hammer","productName":"","confidence":0.9}`}
	e := NewExtractor(gen)

	got, err := e.ClassifyRepair(context.Background(), "big dent in the door")
	if err != nil {
		t.Fatalf("ClassifyRepair: %v", err)
	}
	if got.RepairType != "dent" || got.RecommendedProduct != "hammer" {
		t.Fatalf("classification = %+v", got)
	}
}

func TestPhotoAnalysisSource(t *testing.T) {
	tests := []struct {
		imageType string
		want      domain.FactSource
	}{
		{"vin", domain.SourceVIN},
		{"VIN", domain.SourceVIN},
		{"car_photo", domain.SourcePhoto},
		{"", domain.SourcePhoto},
	}
	for _, tt := range tests {
		if got := (PhotoAnalysis{ImageType: tt.imageType}).Source(); got != tt.want {
			t.Errorf("Source(%q) = %q, want %q", tt.imageType, got, tt.want)
		}
	}
}
